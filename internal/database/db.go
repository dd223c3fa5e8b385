package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"supplychain-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to Postgres with the settings every entry point shares.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Init opens the database, migrates the schema and stores the handle in DB.
func Init(dsn string, log *slog.Logger) error {
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	if err := ensureStockChecks(db, log); err != nil {
		return err
	}
	DB = db
	return nil
}

func Models() []any {
	return []any{
		&models.User{},
		&models.RefreshToken{},
		&models.Supplier{},
		&models.RawMaterial{},
		&models.SupplyOrder{},
		&models.SupplyOrderLine{},
		&models.Product{},
		&models.BillOfMaterial{},
		&models.ProductionOrder{},
		&models.Customer{},
		&models.Order{},
		&models.ProductOrder{},
		&models.Delivery{},
		&models.AuditLog{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

var stockChecks = []struct {
	table, name, expr string
}{
	{"products", "chk_products_stock_nonneg", "stock >= 0"},
	{"raw_materials", "chk_raw_materials_stock_nonneg", "stock >= 0"},
	{"raw_materials", "chk_raw_materials_reserved_nonneg", "reserved_stock >= 0"},
}

// ensureStockChecks adds CHECK constraints AutoMigrate does not manage.
func ensureStockChecks(db *gorm.DB, log *slog.Logger) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, c := range stockChecks {
		var exists bool
		err := db.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.table_constraints
				WHERE table_name = ? AND constraint_name = ?
			)`, c.table, c.name).Scan(&exists).Error
		if err != nil {
			return fmt.Errorf("inspect constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", c.table, c.name, c.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", c.name, err)
		}
		log.Info("constraint added", "table", c.table, "constraint", c.name)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite, used by the test suite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err came from a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
