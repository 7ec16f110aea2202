package models

// SlotInfo is one presented time slot for a given day. An empty listing means
// "no availability" for that day, not an error.
type SlotInfo struct {
	Time      string `json:"time"` // "HH:MM"
	Available bool   `json:"available"`
}

// ConflictResult is the scheduling authority's answer to a conflict probe.
type ConflictResult struct {
	HasConflict bool `json:"hasConflict"`
}
