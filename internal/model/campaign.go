// internal/model/campaign.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Campaign objectives supported by the automation pipeline.
const (
	ObjectiveLead        = "LEAD"
	ObjectiveTraffic     = "TRAFFIC"
	ObjectiveWhatsapp    = "WHATSAPP"
	ObjectiveConversions = "CONVERSIONS"
	ObjectiveReach       = "REACH"
)

// AdSet is one (audience, budget, schedule) triple inside a campaign.
type AdSet struct {
	AudienceID string    `json:"audience_id"`
	Budget     float64   `json:"budget"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// Creative is one ad creative attached to a campaign.
type Creative struct {
	Title          string `json:"title"`
	Text           string `json:"text"`
	AssetFolderRef string `json:"asset_folder_ref,omitempty"`
}

// AdSetList and CreativeList are stored as ordered JSONB blobs on the campaign row.
type AdSetList []AdSet

type CreativeList []Creative

func (l AdSetList) Value() (driver.Value, error) {
	if l == nil {
		l = AdSetList{}
	}
	return json.Marshal(l)
}

func (l *AdSetList) Scan(src interface{}) error {
	if src == nil {
		*l = AdSetList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into AdSetList", src)
	}
	return json.Unmarshal(b, l)
}

func (l CreativeList) Value() (driver.Value, error) {
	if l == nil {
		l = CreativeList{}
	}
	return json.Marshal(l)
}

func (l *CreativeList) Scan(src interface{}) error {
	if src == nil {
		*l = CreativeList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into CreativeList", src)
	}
	return json.Unmarshal(b, l)
}

type Campaign struct {
	ID           string         `db:"id" json:"id"`
	TenantID     string         `db:"tenant_id" json:"tenant_id"`
	Name         string         `db:"name" json:"name"`
	Objective    string         `db:"objective" json:"objective"`
	Status       CampaignStatus `db:"status" json:"status"`
	StatusDetail string         `db:"status_detail" json:"status_detail,omitempty"`
	AccountID    *string        `db:"account_id" json:"account_id,omitempty"`
	PageID       *string        `db:"page_id" json:"page_id,omitempty"`
	InstagramID  *string        `db:"instagram_id" json:"instagram_id,omitempty"`
	WhatsappID   *string        `db:"whatsapp_id" json:"whatsapp_id,omitempty"`
	LeadFormID   *string        `db:"lead_form_id" json:"lead_form_id,omitempty"`
	WebsiteURL   string         `db:"website_url" json:"website_url,omitempty"`
	AdSets       AdSetList      `db:"ad_sets" json:"ad_sets"`
	Creatives    CreativeList   `db:"creatives" json:"creatives"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ValidObjective reports whether o is one of the supported campaign objectives.
func ValidObjective(o string) bool {
	switch o {
	case ObjectiveLead, ObjectiveTraffic, ObjectiveWhatsapp, ObjectiveConversions, ObjectiveReach:
		return true
	}
	return false
}
