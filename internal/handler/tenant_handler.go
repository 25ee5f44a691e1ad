// internal/handler/tenant_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/repository"
)

// TenantHandler covers signup. Tenants are immutable once created; there is
// no update or delete path.
type TenantHandler struct {
	Repo repository.TenantRepositoryInterface
}

func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	t := &model.Tenant{Name: body.Name}
	if err := h.Repo.Create(t); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
