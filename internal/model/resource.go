// internal/model/resource.go
package model

import "time"

// Resource types map to the external advertising assets a campaign can reference.
const (
	ResourceTypeAccount   = "account"
	ResourceTypePage      = "page"
	ResourceTypeInstagram = "instagram"
	ResourceTypeWhatsapp  = "whatsapp"
	ResourceTypeLeadForm  = "leadform"
	ResourceTypeWebsite   = "website"
)

type Resource struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Type      string    `db:"type" json:"type"`
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
