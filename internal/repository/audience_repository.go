package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

type AudienceRepositoryInterface interface {
	Create(a *model.Audience) error
	GetByID(tenantID, id string) (*model.Audience, error)
	ListByTenant(tenantID string) ([]model.Audience, error)
	Update(a *model.Audience) error
	Delete(tenantID, id string) error
}

type AudienceRepository struct {
	DB *sql.DB
}

const audienceColumns = `id, tenant_id, name, type, age_min, age_max,
       interests, behaviors, locations, custom_list_file, estimated_size,
       created_at, updated_at`

func (r *AudienceRepository) Create(a *model.Audience) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
        INSERT INTO audiences
        (id, tenant_id, name, type, age_min, age_max, interests, behaviors, locations,
         custom_list_file, estimated_size, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err := r.DB.Exec(query,
		a.ID, a.TenantID, a.Name, a.Type, a.AgeMin, a.AgeMax,
		a.Interests, a.Behaviors, a.Locations,
		a.CustomListFile, a.EstimatedSize, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AudienceRepository) GetByID(tenantID, id string) (*model.Audience, error) {
	query := `SELECT ` + audienceColumns + ` FROM audiences WHERE id=$1 AND tenant_id=$2`
	var a model.Audience
	err := r.DB.QueryRow(query, id, tenantID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Type, &a.AgeMin, &a.AgeMax,
		&a.Interests, &a.Behaviors, &a.Locations, &a.CustomListFile, &a.EstimatedSize,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("audience", id)
		}
		return nil, err
	}
	return &a, nil
}

func (r *AudienceRepository) ListByTenant(tenantID string) ([]model.Audience, error) {
	query := `SELECT ` + audienceColumns + ` FROM audiences WHERE tenant_id=$1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audiences := []model.Audience{}
	for rows.Next() {
		var a model.Audience
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.Name, &a.Type, &a.AgeMin, &a.AgeMax,
			&a.Interests, &a.Behaviors, &a.Locations, &a.CustomListFile, &a.EstimatedSize,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		audiences = append(audiences, a)
	}
	return audiences, rows.Err()
}

func (r *AudienceRepository) Update(a *model.Audience) error {
	a.UpdatedAt = time.Now()
	query := `
        UPDATE audiences
        SET name=$1, type=$2, age_min=$3, age_max=$4, interests=$5, behaviors=$6,
            locations=$7, custom_list_file=$8, estimated_size=$9, updated_at=$10
        WHERE id=$11 AND tenant_id=$12
    `
	res, err := r.DB.Exec(query,
		a.Name, a.Type, a.AgeMin, a.AgeMax, a.Interests, a.Behaviors,
		a.Locations, a.CustomListFile, a.EstimatedSize, a.UpdatedAt,
		a.ID, a.TenantID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("audience", a.ID)
	}
	return nil
}

func (r *AudienceRepository) Delete(tenantID, id string) error {
	res, err := r.DB.Exec(`DELETE FROM audiences WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("audience", id)
	}
	return nil
}

var _ AudienceRepositoryInterface = (*AudienceRepository)(nil)
