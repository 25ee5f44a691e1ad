// internal/model/automation_record.go
package model

import (
	"encoding/json"
	"time"
)

// AutomationRecord statuses. A record is "active" while pending or sent;
// at most one active record exists per campaign at any time.
const (
	AutomationStatusPending = "pending"
	AutomationStatusSent    = "sent"
	AutomationStatusSuccess = "success"
	AutomationStatusFailed  = "failed"
)

// AutomationRecord is one dispatch attempt tying a campaign to an external
// workflow invocation. Retries produce new records; old ones stay for audit.
type AutomationRecord struct {
	ID          string          `db:"id" json:"id"`
	TenantID    string          `db:"tenant_id" json:"tenant_id"`
	CampaignID  string          `db:"campaign_id" json:"campaign_id"`
	WebhookURL  string          `db:"webhook_url" json:"webhook_url"`
	Status      string          `db:"status" json:"status"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Response    string          `db:"response" json:"response,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// Active reports whether the record is still awaiting resolution.
func (r *AutomationRecord) Active() bool {
	return r.Status == AutomationStatusPending || r.Status == AutomationStatusSent
}

// Resolved reports whether the record reached a terminal status.
func (r *AutomationRecord) Resolved() bool {
	return r.Status == AutomationStatusSuccess || r.Status == AutomationStatusFailed
}
