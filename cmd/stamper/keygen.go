package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/stamper/internal/security/secretbox"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Genera una master key para " + secretbox.EnvMasterKey,
		Args:  cobra.NoArgs,
		// no necesita config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", secretbox.EnvMasterKey, k)
			return err
		},
	}
}
