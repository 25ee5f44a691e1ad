// internal/model/status.go
package model

// CampaignStatus is the lifecycle state of a campaign. Status only moves
// along the edges in campaignTransitions; arbitrary writes are rejected at
// the repository layer.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusPending   CampaignStatus = "pending"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusError     CampaignStatus = "error"
)

// campaignTransitions is the closed transition table:
//
//	draft  -> pending            (submit, via dispatcher)
//	pending -> active | error    (callback or timeout)
//	active -> paused | completed
//	paused -> active | completed
//	error  -> pending            (re-submit)
//
// completed is terminal.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:   {StatusPending},
	StatusPending: {StatusActive, StatusError},
	StatusActive:  {StatusPaused, StatusCompleted},
	StatusPaused:  {StatusActive, StatusCompleted},
	StatusError:   {StatusPending},
}

// CanTransitionTo reports whether moving from s to next is an allowed edge.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	for _, t := range campaignTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ValidCampaignStatus reports whether s is one of the defined statuses.
func ValidCampaignStatus(s CampaignStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusActive, StatusPaused, StatusCompleted, StatusError:
		return true
	}
	return false
}
