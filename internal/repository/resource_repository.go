package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

type ResourceRepositoryInterface interface {
	Create(res *model.Resource) error
	GetByID(tenantID, id string) (*model.Resource, error)
	ListByTenant(tenantID, resourceType string) ([]model.Resource, error)
	Update(res *model.Resource) error
	Delete(tenantID, id string) error
}

type ResourceRepository struct {
	DB *sql.DB
}

func (r *ResourceRepository) Create(res *model.Resource) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	query := `
        INSERT INTO resources (id, tenant_id, type, name, value, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.Exec(query, res.ID, res.TenantID, res.Type, res.Name, res.Value, res.CreatedAt, res.UpdatedAt)
	return err
}

func (r *ResourceRepository) GetByID(tenantID, id string) (*model.Resource, error) {
	query := `
        SELECT id, tenant_id, type, name, value, created_at, updated_at
        FROM resources WHERE id=$1 AND tenant_id=$2
    `
	var res model.Resource
	err := r.DB.QueryRow(query, id, tenantID).Scan(
		&res.ID, &res.TenantID, &res.Type, &res.Name, &res.Value, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("resource", id)
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepository) ListByTenant(tenantID, resourceType string) ([]model.Resource, error) {
	query := `
        SELECT id, tenant_id, type, name, value, created_at, updated_at
        FROM resources WHERE tenant_id=$1
    `
	args := []interface{}{tenantID}
	if resourceType != "" {
		query += ` AND type=$2`
		args = append(args, resourceType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.TenantID, &res.Type, &res.Name, &res.Value, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *ResourceRepository) Update(res *model.Resource) error {
	res.UpdatedAt = time.Now()
	query := `
        UPDATE resources SET name=$1, value=$2, updated_at=$3
        WHERE id=$4 AND tenant_id=$5
    `
	result, err := r.DB.Exec(query, res.Name, res.Value, res.UpdatedAt, res.ID, res.TenantID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("resource", res.ID)
	}
	return nil
}

func (r *ResourceRepository) Delete(tenantID, id string) error {
	result, err := r.DB.Exec(`DELETE FROM resources WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("resource", id)
	}
	return nil
}

var _ ResourceRepositoryInterface = (*ResourceRepository)(nil)
