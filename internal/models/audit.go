package models

import "time"

// AuditAction labels the recorded audit event.
type AuditAction string

const (
	AuditActionLogin          AuditAction = "auth.login"
	AuditActionRegister       AuditAction = "auth.register"
	AuditActionResourceUpload AuditAction = "resource.upload"
	AuditActionResourceDelete AuditAction = "resource.delete"
	AuditActionReviewCreate   AuditAction = "review.create"
	AuditActionReviewDelete   AuditAction = "review.delete"
	AuditActionUserBlock      AuditAction = "user.block"
	AuditActionUserDelete     AuditAction = "user.delete"
)

// AuditLog stores a trace of security-relevant mutations.
type AuditLog struct {
	ID        string      `db:"id" json:"id"`
	UserID    *string     `db:"user_id" json:"user_id,omitempty"`
	Action    AuditAction `db:"action" json:"action"`
	Entity    string      `db:"entity" json:"entity"`
	EntityID  *string     `db:"entity_id" json:"entity_id,omitempty"`
	OldValues []byte      `db:"old_values" json:"old_values,omitempty"`
	NewValues []byte      `db:"new_values" json:"new_values,omitempty"`
	IPAddress string      `db:"ip_address" json:"ip_address"`
	UserAgent string      `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
