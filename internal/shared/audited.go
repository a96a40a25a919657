// Package shared holds small value objects used across modules.
package shared

import "time"

// AuditedFields carries the lifecycle columns every persisted entity embeds
// by composition: creation/update timestamps and the active flag.
type AuditedFields struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

// NewAuditedFields returns fields for a freshly created, active entity.
func NewAuditedFields(now time.Time) AuditedFields {
	return AuditedFields{CreatedAt: now, UpdatedAt: now, Active: true}
}

// Touch refreshes the update timestamp.
func (a *AuditedFields) Touch(now time.Time) {
	a.UpdatedAt = now
}
