// internal/model/integration.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ProviderMetaAds     = "meta_ads"
	ProviderGoogleDrive = "google_drive"
)

const (
	IntegrationStatusPending   = "pending"
	IntegrationStatusConnected = "connected"
	IntegrationStatusError     = "error"
)

// IntegrationConfig is an opaque credential bag stored as JSONB.
type IntegrationConfig map[string]string

func (c IntegrationConfig) Value() (driver.Value, error) {
	if c == nil {
		c = IntegrationConfig{}
	}
	return json.Marshal(c)
}

func (c *IntegrationConfig) Scan(src interface{}) error {
	if src == nil {
		*c = IntegrationConfig{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into IntegrationConfig", src)
	}
	return json.Unmarshal(b, c)
}

// Integration is a tenant's connection to an external provider. The
// dispatcher refuses to send a campaign unless the relevant provider
// integration is connected.
type Integration struct {
	ID          string            `db:"id" json:"id"`
	TenantID    string            `db:"tenant_id" json:"tenant_id"`
	Provider    string            `db:"provider" json:"provider"`
	Config      IntegrationConfig `db:"config" json:"config"`
	Status      string            `db:"status" json:"status"`
	LastChecked *time.Time        `db:"last_checked" json:"last_checked,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
