package database

import (
	"fmt"

	"github.com/ksred/auo-api/internal/refdata"
	"github.com/ksred/auo-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes a GORM DB connection, migrates the reference data
// schema and seeds the demo universe when the tables are empty.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.MarketSnapshot{},
		&types.CounterpartyProfile{},
	)
	if err != nil {
		return nil, err
	}

	if err := refdata.Seed(db); err != nil {
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	return db, nil
}
