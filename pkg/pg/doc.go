// Package pg wires Postgres connectivity for the billing stores:
// pooled connections via pgx, goose migrations, and a readiness
// probe.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, log); err != nil {
//		return err
//	}
//
// The error helpers (IsNotFound, IsDuplicateKey) let store code branch
// on database failures without importing pgx directly.
package pg
