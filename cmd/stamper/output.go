package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
)

// printJSON escribe v indentado.
func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// emit imprime v como JSON o, en modo text, con textFn.
func (o *rootOptions) emit(cmd *cobra.Command, v any, textFn func(io.Writer)) error {
	if o.out == "json" {
		return printJSON(cmd.OutOrStdout(), v)
	}
	textFn(cmd.OutOrStdout())
	return nil
}

func printKeyInfo(w io.Writer, label string, info repository.KeyInfo) {
	fmt.Fprintf(w, "%s:\n", label)
	fmt.Fprintf(w, "  keyId:      %s\n", info.KeyID)
	fmt.Fprintf(w, "  publicKey:  %s\n", info.PublicKey)
	fmt.Fprintf(w, "  createdAt:  %s\n", info.CreatedAt.Format(time.RFC3339))
	if !info.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "  expiresAt:  %s\n", info.ExpiresAt.Format(time.RFC3339))
	}
	if info.AuthenticatorID != "" {
		fmt.Fprintf(w, "  authenticatorId: %s\n", info.AuthenticatorID)
	}
}
