package models

import "time"

// Audit actions recorded for administrators.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionCreate         = "CREATE"
	AuditActionUpdate         = "UPDATE"
	AuditActionDelete         = "DELETE"
	AuditActionSend           = "SEND"
)

// Audited resources.
const (
	AuditResourceAuth          = "auth"
	AuditResourceUsers         = "users"
	AuditResourceTests         = "tests"
	AuditResourceCollaborators = "collaborators"
	AuditResourceEvaluations   = "evaluations"
	AuditResourceReports       = "reports"
)

// AuditLog is one administrative change. OldValues and NewValues hold JSON
// snapshots; respondents' answers are never audited.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
