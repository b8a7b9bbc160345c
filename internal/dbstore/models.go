// Package dbstore is the persistent-DB collaborator behind the pool's
// acquire/release effects (spec §6.5): GORM-backed tables storing a
// table's `{name, columns, rows}` shape with tagged-JSON value encoding
// and an optimistic compare_and_swap_rows update.
package dbstore

import (
	"time"

	"gorm.io/datatypes"
)

// TableRow is the persisted GORM model for one named table: columns and
// rows are stored as JSON blobs (datatypes.JSON, as termfx-morfx stores
// its query/scope payloads) and Rev is bumped on every successful
// compare-and-swap.
type TableRow struct {
	Name      string         `gorm:"primaryKey;type:varchar(255)"`
	Rev       int64          `gorm:"not null;default:0"`
	Columns   datatypes.JSON `gorm:"type:jsonb;not null"`
	Rows      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (TableRow) TableName() string { return "aivi_tables" }
