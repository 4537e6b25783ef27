package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/stamper/internal/stamp"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

type payloadFlags struct {
	data string
	file string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.data, "data", "", "payload literal")
	cmd.Flags().StringVar(&p.file, "file", "", "archivo con el payload (- para stdin)")
}

func (p *payloadFlags) read(cmd *cobra.Command) ([]byte, error) {
	switch {
	case p.data != "" && p.file != "":
		return nil, errors.New("usar --data o --file, no ambos")
	case p.file == "-":
		return io.ReadAll(cmd.InOrStdin())
	case p.file != "":
		return os.ReadFile(p.file)
	}
	return []byte(p.data), nil
}

type stampOutput struct {
	Header string `json:"header"`
	Stamp  string `json:"stamp"`
}

func newStampCmd(o *rootOptions) *cobra.Command {
	var (
		payload             payloadFlags
		mode, idToken, salt string
	)
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Firma un payload y devuelve el valor de X-Phantom-Stamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := payload.read(cmd)
			if err != nil {
				return err
			}
			var params stamp.Params
			if mode != "" || idToken != "" || salt != "" {
				if params, err = stamp.ParseParams(mode, idToken, salt); err != nil {
					return err
				}
			}
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				out, err := mgr.Stamp(cmd.Context(), body, params)
				if err != nil {
					return err
				}
				return o.emit(cmd, stampOutput{Header: stamp.Header, Stamp: out}, func(w io.Writer) {
					fmt.Fprintln(w, out)
				})
			})
		},
	}
	payload.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", "", "PKI|OIDC (default: stamper.mode de la config)")
	cmd.Flags().StringVar(&idToken, "id-token", "", "id token OIDC")
	cmd.Flags().StringVar(&salt, "salt", "", "salt OIDC")
	return cmd
}

type verifyOutput struct {
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind"`
	Algorithm string `json:"algorithm"`
	KeyID     string `json:"keyId"`
	PublicKey string `json:"publicKey"`
}

// verify no toca el store ni la master key.
func newVerifyCmd(o *rootOptions) *cobra.Command {
	var (
		payload payloadFlags
		value   string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifica un X-Phantom-Stamp contra un payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(value) == "" {
				return errors.New("--stamp es requerido")
			}
			body, err := payload.read(cmd)
			if err != nil {
				return err
			}
			env, err := stamp.Decode(strings.TrimSpace(value))
			if err != nil {
				return err
			}
			if err := stamp.Verify(env, body); err != nil {
				return err
			}
			out := verifyOutput{
				Valid:     true,
				Kind:      string(env.Kind),
				Algorithm: string(env.SigningAlgorithm()),
				KeyID:     env.KeyID(),
				PublicKey: env.PublicKeyBase58(),
			}
			return o.emit(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "valid (%s, %s) keyId=%s\n", out.Kind, out.Algorithm, out.KeyID)
			})
		},
	}
	payload.register(cmd)
	cmd.Flags().StringVar(&value, "stamp", "", "valor del header X-Phantom-Stamp")
	return cmd
}
