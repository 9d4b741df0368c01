package model

import "time"

// SnapshotVersion is the export format version written by this build.
const SnapshotVersion = 1

// Snapshot is the full export document for a ledger.
type Snapshot struct {
	ExportedAt   time.Time     `json:"exportedAt"`
	Categories   []Category    `json:"categories"`
	Rules        []Rule        `json:"rules"`
	Transactions []Transaction `json:"transactions"`
	Budgets      []Budget      `json:"budgets"`
	Version      int           `json:"version"`
}
