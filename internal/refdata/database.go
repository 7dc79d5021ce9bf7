package refdata

import (
	"errors"

	"github.com/ksred/auo-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetMarketSnapshot(symbol string) (*types.MarketSnapshot, error) {
	var snap types.MarketSnapshot
	if err := d.db.Where("symbol = ?", symbol).Order("id DESC").First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (d *Database) ListMarketSnapshots() ([]types.MarketSnapshot, error) {
	var snaps []types.MarketSnapshot
	if err := d.db.Order("symbol").Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

func (d *Database) UpdateTimeToClose(symbol string, minutes int) error {
	result := d.db.Model(&types.MarketSnapshot{}).
		Where("symbol = ?", symbol).
		Update("time_to_close", minutes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *Database) GetCounterparty(id string) (*types.CounterpartyProfile, error) {
	var profile types.CounterpartyProfile
	if err := d.db.Where("counterparty_id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (d *Database) ListCounterparties() ([]types.CounterpartyProfile, error) {
	var profiles []types.CounterpartyProfile
	if err := d.db.Order("counterparty_id").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetLowestUrgencyCounterparty returns the configured profile with the lowest
// urgency factor. It backs the documented fallback for unknown counterparties.
func (d *Database) GetLowestUrgencyCounterparty() (*types.CounterpartyProfile, error) {
	var profile types.CounterpartyProfile
	if err := d.db.Order("urgency_factor ASC").First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (d *Database) CountMarketSnapshots() (int64, error) {
	var count int64
	if err := d.db.Model(&types.MarketSnapshot{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (d *Database) CreateMarketSnapshots(snaps []types.MarketSnapshot) error {
	return d.db.Create(&snaps).Error
}

func (d *Database) CreateCounterparties(profiles []types.CounterpartyProfile) error {
	return d.db.Create(&profiles).Error
}
