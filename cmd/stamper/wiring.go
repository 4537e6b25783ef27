package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/stamper/internal/config"
	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/metrics"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/security/secretbox"
	"github.com/dropDatabas3/stamper/internal/stamper"
	"github.com/dropDatabas3/stamper/internal/store"
	_ "github.com/dropDatabas3/stamper/internal/store/adapters/dal"
	"github.com/dropDatabas3/stamper/internal/util"
)

func adapterConfig(cfg *config.Config) store.AdapterConfig {
	return store.AdapterConfig{
		Name:          cfg.Store.Driver,
		Namespace:     cfg.Namespace(),
		Dir:           cfg.Store.Dir,
		DSN:           cfg.Store.DSN,
		RedisAddr:     cfg.Store.Redis.Addr,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
	}
}

// openStore abre sólo el store, para comandos que no necesitan la master key.
func openStore(ctx context.Context, cfg *config.Config) (repository.KeyStore, error) {
	if err := metrics.Register(nil); err != nil {
		return nil, err
	}
	ac := adapterConfig(cfg)
	ks, err := store.OpenKeyStore(ctx, ac)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("key store opened",
		logger.Driver(ac.Name),
		logger.String("namespace", ac.Namespace.Database+"/"+ac.Namespace.Store+"/"+ac.Namespace.Record),
		logger.String("dir", ac.Dir),
		logger.String("dsn", util.MaskDSN(ac.DSN)),
		logger.String("redis_addr", ac.RedisAddr),
		logger.String("redis_password", util.MaskSecret(ac.RedisPassword)),
	)
	return ks, nil
}

// openManager arma config → secretbox → keycrypto → store → Manager.
// El Manager queda sin inicializar; cada comando decide si llama Init.
func openManager(ctx context.Context, cfg *config.Config) (*stamper.Manager, error) {
	if strings.TrimSpace(cfg.Security.MasterKey) == "" {
		return nil, fmt.Errorf("%w: defina %s (stamper keygen genera una)", secretbox.ErrKeyMissing, secretbox.EnvMasterKey)
	}
	box, err := secretbox.FromString(cfg.Security.MasterKey)
	if err != nil {
		return nil, err
	}
	alg, err := cfg.Algorithm()
	if err != nil {
		return nil, err
	}
	params, err := cfg.StampParams()
	if err != nil {
		return nil, err
	}

	ks, err := openStore(ctx, cfg)
	if err != nil {
		box.Wipe()
		return nil, err
	}

	mgr := stamper.New(ks, keycrypto.NewProvider(box), stamper.Options{
		Algorithm:     alg,
		KeyTTL:        cfg.Stamper.KeyTTL,
		RenewalWindow: cfg.Stamper.RenewalWindow,
		DefaultParams: params,
		FailFast:      cfg.Stamper.FailFast,
		Logger:        logger.Named("stamper").With(logger.Driver(cfg.Store.Driver)),
	})
	return mgr, nil
}

// withManager abre el Manager, opcionalmente lo inicializa, y lo cierra al final.
func withManager(ctx context.Context, cfg *config.Config, init bool, fn func(*stamper.Manager) error) error {
	mgr, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()
	if init {
		if _, err := mgr.Init(ctx); err != nil {
			return err
		}
	}
	return fn(mgr)
}
