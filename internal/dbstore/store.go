package dbstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrConcurrentWrite is returned by CompareAndSwapRows when another
// writer bumped rev first (spec §6.5: "concurrent writers see
// `concurrent write detected; retry`").
var ErrConcurrentWrite = errors.New("concurrent write detected; retry")

const maxDeltaRetries = 3

// Store wraps a *gorm.DB with the table read/compare-and-swap operations
// the pool's DB collaborator effects are built from.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Load returns the current (rev, columns, rows) for name, or rev 0 and
// empty payloads if the table does not exist yet.
func (s *Store) Load(name string) (rev int64, columns, rows json.RawMessage, err error) {
	var row TableRow
	err = s.db.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, json.RawMessage("[]"), json.RawMessage("[]"), nil
	}
	if err != nil {
		return 0, nil, nil, fmt.Errorf("dbstore: load %q: %w", name, err)
	}
	return row.Rev, json.RawMessage(row.Columns), json.RawMessage(row.Rows), nil
}

// CompareAndSwapRows atomically replaces name's columns/rows, requiring
// the stored rev to equal expectedRev, then bumps rev by one (spec
// §6.5). A fresh table (expectedRev == 0, no row yet) is created.
func (s *Store) CompareAndSwapRows(name string, expectedRev int64, columns, rows json.RawMessage) (int64, error) {
	nextRev := expectedRev + 1
	var affected int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing TableRow
		err := tx.Where("name = ?", name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if expectedRev != 0 {
				return ErrConcurrentWrite
			}
			row := TableRow{Name: name, Rev: nextRev, Columns: datatypesJSON(columns), Rows: datatypesJSON(rows)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("dbstore: create %q: %w", name, err)
			}
			affected = 1
			return nil
		case err != nil:
			return fmt.Errorf("dbstore: load %q: %w", name, err)
		}

		res := tx.Model(&TableRow{}).
			Where("name = ? AND rev = ?", name, expectedRev).
			Updates(map[string]any{"rev": nextRev, "columns": datatypesJSON(columns), "rows": datatypesJSON(rows)})
		if res.Error != nil {
			return fmt.Errorf("dbstore: update %q: %w", name, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentWrite
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrConcurrentWrite
	}
	return nextRev, nil
}

// ApplyDelta retries a compare-and-swap delta function up to
// maxDeltaRetries times on ErrConcurrentWrite (spec §6.5: "Up to 3
// retries are performed by applyDelta before surfacing a failure"),
// re-reading the current rev/columns/rows before each attempt.
func (s *Store) ApplyDelta(name string, delta func(columns, rows json.RawMessage) (json.RawMessage, json.RawMessage, error)) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= maxDeltaRetries; attempt++ {
		rev, columns, rows, err := s.Load(name)
		if err != nil {
			return 0, err
		}
		newColumns, newRows, err := delta(columns, rows)
		if err != nil {
			return 0, err
		}
		newRev, err := s.CompareAndSwapRows(name, rev, newColumns, newRows)
		if err == nil {
			return newRev, nil
		}
		if !errors.Is(err, ErrConcurrentWrite) {
			return 0, err
		}
		lastErr = err
	}
	return 0, fmt.Errorf("dbstore: apply delta on %q: %w after %d retries", name, lastErr, maxDeltaRetries)
}
