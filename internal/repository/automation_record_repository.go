package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

type AutomationRecordRepositoryInterface interface {
	// Claim atomically verifies the campaign is submittable (draft/error)
	// and that no active record exists, then inserts rec with status
	// pending. Returns ConflictError when another automation is in flight.
	Claim(rec *model.AutomationRecord) error

	GetActive(tenantID, campaignID string) (*model.AutomationRecord, error)
	GetLatest(tenantID, campaignID string) (*model.AutomationRecord, error)
	ListByCampaign(tenantID, campaignID string) ([]*model.AutomationRecord, error)

	MarkSent(id string) error
	MarkFailed(id, response string) error

	// Resolve is a compare-and-swap on the specific record id: it succeeds
	// only while the record is still active, so a superseded or duplicate
	// callback can never overwrite a resolution.
	Resolve(id, status, response string) (bool, error)

	FindStale(olderThan time.Time) ([]*model.AutomationRecord, error)
}

type AutomationRecordRepository struct {
	DB *sql.DB
}

const recordColumns = `id, tenant_id, campaign_id, webhook_url, status, payload, response, created_at, completed_at`

// Claim runs the draft/error -> in-flight hand-off as one transaction: the
// campaign row is locked, the submittable guard and the single-active-record
// invariant are checked under that lock, and the new pending record is
// inserted. A partial unique index on automation_records(campaign_id) for
// active rows backstops the check.
func (r *AutomationRecordRepository) Claim(rec *model.AutomationRecord) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status model.CampaignStatus
	err = tx.QueryRow(
		`SELECT status FROM campaigns WHERE id=$1 AND tenant_id=$2 FOR UPDATE`,
		rec.CampaignID, rec.TenantID,
	).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.NewNotFound("campaign", rec.CampaignID)
		}
		return err
	}

	if status == model.StatusPending {
		return appErrors.NewConflict(rec.CampaignID)
	}
	if status != model.StatusDraft && status != model.StatusError {
		return appErrors.NewPreconditionFailed(fmt.Sprintf("campaign cannot be submitted in status %s", status))
	}

	var existing int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM automation_records
         WHERE campaign_id=$1 AND tenant_id=$2 AND status IN ('pending','sent')`,
		rec.CampaignID, rec.TenantID,
	).Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		return appErrors.NewConflict(rec.CampaignID)
	}

	rec.Status = model.AutomationStatusPending
	rec.CreatedAt = time.Now()
	_, err = tx.Exec(
		`INSERT INTO automation_records
         (id, tenant_id, campaign_id, webhook_url, status, payload, response, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.TenantID, rec.CampaignID, rec.WebhookURL, rec.Status,
		[]byte(rec.Payload), rec.Response, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert automation record: %w", err)
	}

	return tx.Commit()
}

func (r *AutomationRecordRepository) GetActive(tenantID, campaignID string) (*model.AutomationRecord, error) {
	query := `
        SELECT ` + recordColumns + ` FROM automation_records
        WHERE campaign_id=$1 AND tenant_id=$2 AND status IN ('pending','sent')
        ORDER BY created_at DESC LIMIT 1
    `
	return r.scanOne(r.DB.QueryRow(query, campaignID, tenantID))
}

func (r *AutomationRecordRepository) GetLatest(tenantID, campaignID string) (*model.AutomationRecord, error) {
	query := `
        SELECT ` + recordColumns + ` FROM automation_records
        WHERE campaign_id=$1 AND tenant_id=$2
        ORDER BY created_at DESC LIMIT 1
    `
	return r.scanOne(r.DB.QueryRow(query, campaignID, tenantID))
}

func (r *AutomationRecordRepository) scanOne(row *sql.Row) (*model.AutomationRecord, error) {
	var rec model.AutomationRecord
	var payload []byte
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.CampaignID, &rec.WebhookURL, &rec.Status,
		&payload, &rec.Response, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.Payload = payload
	return &rec, nil
}

func (r *AutomationRecordRepository) ListByCampaign(tenantID, campaignID string) ([]*model.AutomationRecord, error) {
	query := `
        SELECT ` + recordColumns + ` FROM automation_records
        WHERE campaign_id=$1 AND tenant_id=$2
        ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, campaignID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.AutomationRecord{}
	for rows.Next() {
		var rec model.AutomationRecord
		var payload []byte
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.CampaignID, &rec.WebhookURL, &rec.Status,
			&payload, &rec.Response, &rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		rec.Payload = payload
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *AutomationRecordRepository) MarkSent(id string) error {
	_, err := r.DB.Exec(
		`UPDATE automation_records SET status='sent' WHERE id=$1 AND status='pending'`, id)
	return err
}

func (r *AutomationRecordRepository) MarkFailed(id, response string) error {
	_, err := r.DB.Exec(
		`UPDATE automation_records SET status='failed', response=$1, completed_at=$2
         WHERE id=$3 AND status IN ('pending','sent')`,
		response, time.Now(), id)
	return err
}

func (r *AutomationRecordRepository) Resolve(id, status, response string) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE automation_records SET status=$1, response=$2, completed_at=$3
         WHERE id=$4 AND status IN ('pending','sent')`,
		status, response, time.Now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindStale returns active records created before olderThan. The
// reconciliation pass fails them so an unacknowledged dispatch never blocks
// future submissions.
func (r *AutomationRecordRepository) FindStale(olderThan time.Time) ([]*model.AutomationRecord, error) {
	query := `
        SELECT ` + recordColumns + ` FROM automation_records
        WHERE status IN ('pending','sent') AND created_at < $1
        ORDER BY created_at
    `
	rows, err := r.DB.Query(query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.AutomationRecord{}
	for rows.Next() {
		var rec model.AutomationRecord
		var payload []byte
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.CampaignID, &rec.WebhookURL, &rec.Status,
			&payload, &rec.Response, &rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		rec.Payload = payload
		records = append(records, &rec)
	}
	return records, rows.Err()
}

var _ AutomationRecordRepositoryInterface = (*AutomationRecordRepository)(nil)
