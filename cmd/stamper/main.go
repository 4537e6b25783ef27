// Command stamper administra la clave de firma del wallet client y firma
// requests con X-Phantom-Stamp, por CLI o como agente HTTP local.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/stamper/internal/config"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
)

// version se inyecta con -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
	out        string // json | text

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:           "stamper",
		Short:         "Claves de firma no extraíbles y stamps X-Phantom-Stamp",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.envFile != "" {
				if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("env file %s: %w", o.envFile, err)
				}
			}
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config inválida: %w", err)
			}
			o.cfg = cfg
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Version: version})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", os.Getenv("STAMPER_CONFIG"), "ruta a config.yaml (env STAMPER_CONFIG)")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "ruta a .env (se ignora si no existe)")
	root.PersistentFlags().StringVar(&o.out, "out", "text", "formato de salida: json|text")

	root.AddCommand(
		newInitCmd(o),
		newInfoCmd(o),
		newExpirationCmd(o),
		newRotateCmd(o),
		newCommitCmd(o),
		newRollbackCmd(o),
		newResetCmd(o),
		newClearCmd(o),
		newStampCmd(o),
		newVerifyCmd(o),
		newServeCmd(o),
		newKeygenCmd(),
	)
	return root
}
