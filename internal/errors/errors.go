// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// NotFoundError covers both an absent entity and a tenant mismatch; the two
// must be indistinguishable to callers.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Helper constructor
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PreconditionFailedError signals a state-machine guard violation, e.g.
// submitting a campaign with no creatives.
type PreconditionFailedError struct {
	Reason string
}

func (e *PreconditionFailedError) Error() string {
	return "precondition failed: " + e.Reason
}

func NewPreconditionFailed(reason string) error {
	return &PreconditionFailedError{Reason: reason}
}

// ConflictError signals a dispatch attempted while another automation is
// already in flight for the same campaign.
type ConflictError struct {
	CampaignID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("automation already pending for campaign %s", e.CampaignID)
}

func NewConflict(campaignID string) error {
	return &ConflictError{CampaignID: campaignID}
}

// StaleCallbackError signals a callback for a superseded or unknown
// automation record. It is logged and swallowed, never surfaced to the
// external system.
type StaleCallbackError struct {
	CampaignID string
}

func (e *StaleCallbackError) Error() string {
	return fmt.Sprintf("no active automation record for campaign %s", e.CampaignID)
}

func NewStaleCallback(campaignID string) error {
	return &StaleCallbackError{CampaignID: campaignID}
}

// TransportFailureError signals that the webhook send failed. Campaign
// status is left unchanged so the caller can retry.
type TransportFailureError struct {
	URL string
	Err error
}

func (e *TransportFailureError) Error() string {
	return fmt.Sprintf("webhook send to %s failed: %v", e.URL, e.Err)
}

func (e *TransportFailureError) Unwrap() error {
	return e.Err
}

func NewTransportFailure(url string, err error) error {
	return &TransportFailureError{URL: url, Err: err}
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
