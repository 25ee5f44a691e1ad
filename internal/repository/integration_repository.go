package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

type IntegrationRepositoryInterface interface {
	Upsert(i *model.Integration) error
	GetByProvider(tenantID, provider string) (*model.Integration, error)
	ListByTenant(tenantID string) ([]model.Integration, error)
	UpdateStatus(tenantID, provider, status string) error
}

type IntegrationRepository struct {
	DB *sql.DB
}

// Upsert creates or replaces the tenant's integration for a provider. One
// integration per (tenant, provider).
func (r *IntegrationRepository) Upsert(i *model.Integration) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Status == "" {
		i.Status = model.IntegrationStatusPending
	}
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now

	query := `
        INSERT INTO integrations (id, tenant_id, provider, config, status, last_checked, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (tenant_id, provider)
        DO UPDATE SET config=EXCLUDED.config, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at
    `
	_, err := r.DB.Exec(query, i.ID, i.TenantID, i.Provider, i.Config, i.Status, i.LastChecked, i.CreatedAt, i.UpdatedAt)
	return err
}

func (r *IntegrationRepository) GetByProvider(tenantID, provider string) (*model.Integration, error) {
	query := `
        SELECT id, tenant_id, provider, config, status, last_checked, created_at, updated_at
        FROM integrations WHERE tenant_id=$1 AND provider=$2
    `
	var i model.Integration
	err := r.DB.QueryRow(query, tenantID, provider).Scan(
		&i.ID, &i.TenantID, &i.Provider, &i.Config, &i.Status, &i.LastChecked, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("integration", provider)
		}
		return nil, err
	}
	return &i, nil
}

func (r *IntegrationRepository) ListByTenant(tenantID string) ([]model.Integration, error) {
	query := `
        SELECT id, tenant_id, provider, config, status, last_checked, created_at, updated_at
        FROM integrations WHERE tenant_id=$1 ORDER BY provider
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	integrations := []model.Integration{}
	for rows.Next() {
		var i model.Integration
		if err := rows.Scan(&i.ID, &i.TenantID, &i.Provider, &i.Config, &i.Status, &i.LastChecked, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		integrations = append(integrations, i)
	}
	return integrations, rows.Err()
}

func (r *IntegrationRepository) UpdateStatus(tenantID, provider, status string) error {
	now := time.Now()
	res, err := r.DB.Exec(
		`UPDATE integrations SET status=$1, last_checked=$2, updated_at=$3 WHERE tenant_id=$4 AND provider=$5`,
		status, now, now, tenantID, provider,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("integration", provider)
	}
	return nil
}

var _ IntegrationRepositoryInterface = (*IntegrationRepository)(nil)
