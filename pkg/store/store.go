// Package store is the single source of truth for conversations, animations
// and messages. All job status, progress and version numbers live here; the
// runner and the HTTP layer never share in-process state beyond this store.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a resource is absent or owned by a
	// different user. Controllers map it to 404.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for bad input values. Controllers map it
	// to 400.
	ErrValidation = errors.New("validation failed")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// clampLimit bounds pagination to [1, 100].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
