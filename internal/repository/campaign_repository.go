package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(tenantID, id string) (*model.Campaign, error)
	List(tenantID string, offset, limit int, status, objective string) ([]*model.Campaign, int, error)
	Update(c *model.Campaign) error
	Delete(tenantID, id string) error

	// UpdateStatus is a compare-and-swap: the row moves to `to` only if it
	// currently sits in one of `from`. Returns false when no row matched,
	// which callers treat as a rejected transition.
	UpdateStatus(tenantID, id string, from []model.CampaignStatus, to model.CampaignStatus, detail string) (bool, error)

	CountReferencingResource(tenantID, resourceID string) (int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, tenant_id, name, objective, status, status_detail,
       account_id, page_id, instagram_id, whatsapp_id, lead_form_id, website_url,
       ad_sets, creatives, created_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
        INSERT INTO campaigns
        (id, tenant_id, name, objective, status, status_detail,
         account_id, page_id, instagram_id, whatsapp_id, lead_form_id, website_url,
         ad_sets, creatives, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
    `
	_, err := r.DB.Exec(query,
		c.ID, c.TenantID, c.Name, c.Objective, c.Status, c.StatusDetail,
		c.AccountID, c.PageID, c.InstagramID, c.WhatsappID, c.LeadFormID, c.WebsiteURL,
		c.AdSets, c.Creatives, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(tenantID, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1 AND tenant_id=$2`
	return r.scanOne(r.DB.QueryRow(query, id, tenantID), id)
}

func (r *CampaignRepository) scanOne(row *sql.Row, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Objective, &c.Status, &c.StatusDetail,
		&c.AccountID, &c.PageID, &c.InstagramID, &c.WhatsappID, &c.LeadFormID, &c.WebsiteURL,
		&c.AdSets, &c.Creatives, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("campaign", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(tenantID string, offset, limit int, status, objective string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE tenant_id=$1`
	args := []interface{}{tenantID}
	argPos := 2

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	if objective != "" {
		query += fmt.Sprintf(" AND objective=$%d", argPos)
		args = append(args, objective)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.Name, &c.Objective, &c.Status, &c.StatusDetail,
			&c.AccountID, &c.PageID, &c.InstagramID, &c.WhatsappID, &c.LeadFormID, &c.WebsiteURL,
			&c.AdSets, &c.Creatives, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE tenant_id=$1`
	argsCount := []interface{}{tenantID}
	argPosCount := 2
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
		argPosCount++
	}
	if objective != "" {
		countQuery += fmt.Sprintf(" AND objective=$%d", argPosCount)
		argsCount = append(argsCount, objective)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// Update rewrites the mutable campaign fields. Status is deliberately not
// touched here; it only moves through UpdateStatus.
func (r *CampaignRepository) Update(c *model.Campaign) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE campaigns
        SET name=$1, objective=$2,
            account_id=$3, page_id=$4, instagram_id=$5, whatsapp_id=$6, lead_form_id=$7,
            website_url=$8, ad_sets=$9, creatives=$10, updated_at=$11
        WHERE id=$12 AND tenant_id=$13
    `
	res, err := r.DB.Exec(query,
		c.Name, c.Objective,
		c.AccountID, c.PageID, c.InstagramID, c.WhatsappID, c.LeadFormID,
		c.WebsiteURL, c.AdSets, c.Creatives, c.UpdatedAt,
		c.ID, c.TenantID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("campaign", c.ID)
	}
	return nil
}

func (r *CampaignRepository) Delete(tenantID, id string) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("campaign", id)
	}
	return nil
}

func (r *CampaignRepository) UpdateStatus(tenantID, id string, from []model.CampaignStatus, to model.CampaignStatus, detail string) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	query := `
        UPDATE campaigns
        SET status=$1, status_detail=$2, updated_at=$3
        WHERE id=$4 AND tenant_id=$5 AND status = ANY($6)
    `
	res, err := r.DB.Exec(query, to, detail, time.Now(), id, tenantID, pq.Array(fromStrs))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountReferencingResource counts campaigns holding a reference to the given
// resource. Used to reject deletion of a resource still in use.
func (r *CampaignRepository) CountReferencingResource(tenantID, resourceID string) (int, error) {
	query := `
        SELECT COUNT(*) FROM campaigns
        WHERE tenant_id=$1
          AND (account_id=$2 OR page_id=$2 OR instagram_id=$2 OR whatsapp_id=$2 OR lead_form_id=$2)
    `
	var count int
	if err := r.DB.QueryRow(query, tenantID, resourceID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
