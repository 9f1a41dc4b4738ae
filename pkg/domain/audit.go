package domain

import "time"

// AuditEntry is one record in an entity's append-only audit log. Ledger
// entities record every consequential action as a structured entry instead
// of concatenating notes, so trails are queryable and serializable.
type AuditEntry struct {
	At      time.Time `json:"at"`
	Actor   string    `json:"actor"`
	Message string    `json:"message"`
}

// AuditLog is an append-only ordered list of entries. Append is the only
// mutation; entries are never rewritten or removed.
type AuditLog []AuditEntry

// Append returns the log with a new entry added.
func (l AuditLog) Append(at time.Time, actor, message string) AuditLog {
	return append(l, AuditEntry{At: at, Actor: actor, Message: message})
}
