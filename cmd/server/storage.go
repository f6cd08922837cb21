package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	httpapi "bloodbank/internal/http"
	"bloodbank/internal/inventory/service"
	unitstore "bloodbank/internal/inventory/store/unit"
	"bloodbank/internal/platform/config"
	"bloodbank/pkg/platform/audit"
	"bloodbank/pkg/platform/audit/outbox"
	auditmemory "bloodbank/pkg/platform/audit/store/memory"
	auditpostgres "bloodbank/pkg/platform/audit/store/postgres"
	txcontext "bloodbank/pkg/platform/tx"
)

// auditStore is both the sink the publisher appends to and the outbox the
// relay worker drains.
type auditStore interface {
	audit.Store
	outbox.Store
}

type storage struct {
	units    service.UnitStore
	txRunner txcontext.Runner
	audit    auditStore
	checks   map[string]httpapi.HealthCheck
	closers  []func() error
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStorage builds the unit store for the configured driver. Only Postgres
// gets a durable outbox that commits in the same transaction as the unit; the
// other drivers keep audit entries in process.
func openStorage(ctx context.Context, cfg config.Server, log *slog.Logger) (*storage, error) {
	st := &storage{checks: map[string]httpapi.HealthCheck{}}

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		units := unitstore.NewPostgres(db)
		if err := units.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		outboxStore := auditpostgres.New(db)
		if err := outboxStore.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		st.units = units
		st.audit = outboxStore
		st.txRunner = txcontext.NewSQLRunner(db)
		st.checks["postgres"] = db.PingContext

	case config.StoreDriverSQLite:
		units, err := unitstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, units.Close)
		st.units = units
		st.audit = auditmemory.NewInMemoryStore()
		st.txRunner = txcontext.NewSQLRunner(units.DB())
		st.checks["sqlite"] = units.DB().PingContext

	default:
		st.units = unitstore.NewInMemory()
		st.audit = auditmemory.NewInMemoryStore()
		st.txRunner = txcontext.NoopRunner{}
	}

	log.InfoContext(ctx, "storage ready", "driver", string(cfg.StoreDriver))
	return st, nil
}
