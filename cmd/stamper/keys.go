package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

type keyOutput struct {
	State   stamper.State       `json:"state"`
	Active  *repository.KeyInfo `json:"active,omitempty"`
	Pending *repository.KeyInfo `json:"pending,omitempty"`
}

func snapshot(mgr *stamper.Manager) keyOutput {
	out := keyOutput{State: mgr.State()}
	if info, ok := mgr.KeyInfo(); ok {
		out.Active = &info
	}
	if info, ok := mgr.PendingKeyInfo(); ok {
		out.Pending = &info
	}
	return out
}

func (o *rootOptions) emitKeys(cmd *cobra.Command, out keyOutput) error {
	return o.emit(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "state: %s\n", out.State)
		if out.Active != nil {
			printKeyInfo(w, "active", *out.Active)
		}
		if out.Pending != nil {
			printKeyInfo(w, "pending", *out.Pending)
		}
	})
}

func newInitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Carga la clave activa o genera una nueva; retoma rotaciones interrumpidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
}

// info lee el store directamente: no genera claves ni necesita la master key.
func newInfoCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Muestra la clave activa y la pendiente persistidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ks, err := openStore(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer ks.Close()

			out := keyOutput{State: stamper.StateUninitialized}
			for _, role := range []repository.Role{repository.RoleActive, repository.RolePending} {
				rec, err := ks.Get(ctx, role)
				if repository.IsNotFound(err) {
					continue
				}
				if err != nil {
					return err
				}
				info := rec.Info
				if role == repository.RoleActive {
					out.Active = &info
					if out.State == stamper.StateUninitialized {
						out.State = stamper.StateActive
					}
				} else {
					out.Pending = &info
				}
			}
			if out.Active != nil && out.Pending != nil {
				out.State = stamper.StateRotationPending
			}
			return o.emitKeys(cmd, out)
		},
	}
}

func newExpirationCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expiration",
		Short: "Muestra cuánto falta para que expire la clave activa",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				exp := mgr.ExpirationInfo()
				return o.emit(cmd, exp, func(w io.Writer) {
					fmt.Fprintf(w, "expiresAt:    %s\n", exp.ExpiresAt.Format(time.RFC3339))
					fmt.Fprintf(w, "remaining:    %s\n", exp.TimeUntilExpiry.Round(time.Second))
					fmt.Fprintf(w, "shouldRenew:  %t\n", exp.ShouldRenew)
					fmt.Fprintf(w, "expired:      %t\n", exp.Expired)
				})
			})
		},
	}
}

func newRotateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Genera una clave pendiente; la activa sigue firmando hasta commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				if _, err := mgr.RotateKeyPair(cmd.Context()); err != nil {
					return err
				}
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
}

func newCommitCmd(o *rootOptions) *cobra.Command {
	var authenticatorID string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Promueve la clave pendiente a activa",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				if err := mgr.CommitRotation(cmd.Context(), authenticatorID); err != nil {
					return err
				}
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
	cmd.Flags().StringVar(&authenticatorID, "authenticator-id", "", "id del authenticator registrado para la nueva clave")
	return cmd
}

func newRollbackCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Descarta la clave pendiente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), o.cfg, true, func(mgr *stamper.Manager) error {
				if err := mgr.RollbackRotation(cmd.Context()); err != nil {
					return err
				}
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
}

func newResetCmd(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reemplaza la clave activa sin rotación (descarta la pendiente)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset invalida la clave registrada; repetir con --yes")
			}
			return withManager(cmd.Context(), o.cfg, false, func(mgr *stamper.Manager) error {
				if _, err := mgr.ResetKeyPair(cmd.Context()); err != nil {
					return err
				}
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirmar")
	return cmd
}

func newClearCmd(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Borra la clave activa y la pendiente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("clear borra las claves persistidas; repetir con --yes")
			}
			return withManager(cmd.Context(), o.cfg, false, func(mgr *stamper.Manager) error {
				if err := mgr.Clear(cmd.Context()); err != nil {
					return err
				}
				return o.emitKeys(cmd, snapshot(mgr))
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirmar")
	return cmd
}
