// Package store provides persistence for theme preferences and threat records.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("key not found")

// DBType identifies the database engine behind a Store.
type DBType int

// supported database types
const (
	DBTypeSQLite DBType = iota
	DBTypePostgres
)

// RWLocker is the subset of sync.RWMutex used by Store.
// Postgres handles its own concurrency, so it gets a noop implementation.
type RWLocker interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}
func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}

// Threat is a single detected threat record.
type Threat struct {
	ID           int64     `db:"id" json:"id"`
	Source       string    `db:"source" json:"source"`
	Type         string    `db:"type" json:"type"`
	Keyword      string    `db:"keyword" json:"keyword"`
	Domain       string    `db:"domain" json:"domain"`
	DateDetected time.Time `db:"date_detected" json:"date_detected"`
}

// ThreatFilter selects threats. Empty fields match everything.
// From and To are inclusive days, Limit <= 0 means 10.
type ThreatFilter struct {
	Keyword string // substring of keyword or domain, case-insensitive
	Source  string
	Type    string
	From    time.Time
	To      time.Time
	Limit   int
}
