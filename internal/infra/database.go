package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (partial indexes mainly).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates or updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Vehiculo{},
		&model.Cubierta{},
		&model.Historial{},
		&model.ContadorRecibo{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// A una entrada del historial la corrige a lo sumo una entrada nueva.
		// El índice parcial hace que un reintento ambiguo del protocolo de
		// corrección no duplique el reemplazo.
		{"unique partial index on historiales(cubierta_id, corrects)", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_historiales_corrects') THEN
    CREATE UNIQUE INDEX idx_historiales_corrects
        ON historiales (cubierta_id, corrects)
        WHERE corrects IS NOT NULL;
  END IF;
END $$`},
		// Covering index for history replay, the hottest query in the system.
		{"index on historiales(cubierta_id, date)", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_historiales_cubierta_date') THEN
    CREATE INDEX idx_historiales_cubierta_date
        ON historiales (cubierta_id, date);
  END IF;
END $$`},
		// Order-number lookups back the correlative numbering endpoints.
		{"index on historiales(order_number)", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_historiales_order_number') THEN
    CREATE INDEX idx_historiales_order_number
        ON historiales (order_number)
        WHERE order_number <> '';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
