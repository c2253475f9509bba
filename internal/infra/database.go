package infra

import (
	"fmt"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the schema
// up to date with RunMigrations.
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

// RunMigrations creates / updates all tables, then applies the idempotent SQL
// patches AutoMigrate cannot express. It is dialect-neutral so the SQLite test
// store carries the same constraints as production.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.CashRegister{},
		&model.CashRegisterAssignment{},
		&model.CashRegisterSession{},
		&model.CashMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs the partial unique indexes backing the two store-level
// invariants. Both PostgreSQL and SQLite accept CREATE UNIQUE INDEX IF NOT EXISTS
// with a WHERE clause.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// at most one OPEN session per register
		{"ux_cash_register_sessions_open", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_cash_register_sessions_open
    ON cash_register_sessions (cash_register_code)
    WHERE status = 'OPEN'`},
		// at most one default register per operator
		{"ux_cash_register_assignments_default", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_cash_register_assignments_default
    ON cash_register_assignments (operator_id)
    WHERE is_default`},
		{"idx_cash_register_sessions_opening_at", `
CREATE INDEX IF NOT EXISTS idx_cash_register_sessions_opening_at
    ON cash_register_sessions (opening_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
