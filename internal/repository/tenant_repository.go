package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
)

// TenantRepositoryInterface defines the minimal tenant surface: tenants are
// created at signup and never deleted.
type TenantRepositoryInterface interface {
	Create(t *model.Tenant) error
	GetByID(id string) (*model.Tenant, error)
}

type TenantRepository struct {
	DB *sql.DB
}

func (r *TenantRepository) Create(t *model.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now()
	_, err := r.DB.Exec(
		`INSERT INTO tenants (id, name, created_at) VALUES ($1, $2, $3)`,
		t.ID, t.Name, t.CreatedAt,
	)
	return err
}

func (r *TenantRepository) GetByID(id string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRow(
		`SELECT id, name, created_at FROM tenants WHERE id=$1`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("tenant", id)
		}
		return nil, err
	}
	return &t, nil
}

var _ TenantRepositoryInterface = (*TenantRepository)(nil)
