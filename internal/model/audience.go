// internal/model/audience.go
package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	AudienceTypeInterest   = "interest"
	AudienceTypeCustomList = "custom_list"
)

type Audience struct {
	ID             string         `db:"id" json:"id"`
	TenantID       string         `db:"tenant_id" json:"tenant_id"`
	Name           string         `db:"name" json:"name"`
	Type           string         `db:"type" json:"type"`
	AgeMin         *int           `db:"age_min" json:"age_min,omitempty"`
	AgeMax         *int           `db:"age_max" json:"age_max,omitempty"`
	Interests      pq.StringArray `db:"interests" json:"interests"`
	Behaviors      pq.StringArray `db:"behaviors" json:"behaviors"`
	Locations      pq.StringArray `db:"locations" json:"locations"`
	CustomListFile string         `db:"custom_list_file" json:"custom_list_file,omitempty"`
	EstimatedSize  *int           `db:"estimated_size" json:"estimated_size,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
