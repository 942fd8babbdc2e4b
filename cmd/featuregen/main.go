// Command featuregen syncs the Chargebee feature catalog into the
// local registry and generates a Go enum of feature constants.
//
//	featuregen -type Feature -pkg features -out internal/features/features_gen.go
//
// Requires CHARGEBEE_SITE and CHARGEBEE_API_KEY in the environment.
// When DATABASE_URL is set the synced catalog is also persisted to
// Postgres; otherwise the sync runs against an in-memory registry and
// only the generated file is produced.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openbilling/billingkit/migrations"
	"github.com/openbilling/billingkit/pkg/config"
	"github.com/openbilling/billingkit/pkg/feature"
	"github.com/openbilling/billingkit/pkg/logger"
	"github.com/openbilling/billingkit/pkg/pg"
	"github.com/openbilling/billingkit/pkg/subscription"
)

type appConfig struct {
	Chargebee   subscription.ChargebeeConfig
	Logger      logger.Config
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	typeName := flag.String("type", "Feature", "name of the generated enum type")
	pkgName := flag.String("pkg", "features", "package name for the generated file")
	outPath := flag.String("out", "features_gen.go", "path of the generated file")
	force := flag.Bool("force", false, "overwrite the output file if it exists")
	flag.Parse()

	cfg, err := config.Load[appConfig]()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logger, logger.WithAttr(slog.String("component", "featuregen")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *typeName, *pkgName, *outPath, *force); err != nil {
		log.Error("featuregen failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger, typeName, pkgName, outPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists, pass -force to overwrite", outPath)
		}
	}

	// Configures the Chargebee SDK globally as a side effect.
	if _, err := subscription.NewChargebeeGateway(cfg.Chargebee); err != nil {
		return err
	}

	registry := feature.NewMemoryRegistry()
	if cfg.DatabaseURL != "" {
		pool, err := pg.Connect(ctx, pg.Config{ConnectionString: cfg.DatabaseURL, RetryAttempts: 1})
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, migrations.FS, log); err != nil {
			return err
		}
		registry = feature.NewPostgresRegistry(pool)
	}

	syncer := feature.NewSyncer(feature.NewChargebeeListingGateway(), registry,
		feature.WithSyncLogger(log))

	cases, err := syncer.Sync(ctx)
	if err != nil {
		if errors.Is(err, feature.ErrNoFeatures) {
			return fmt.Errorf("no features found on the Chargebee site: %w", err)
		}
		return err
	}

	src, err := feature.GenerateEnumSource(pkgName, typeName, cases)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	log.Info("generated feature enum",
		slog.String("path", outPath),
		slog.Int("cases", len(cases)))
	return nil
}
