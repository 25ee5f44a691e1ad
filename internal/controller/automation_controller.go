// internal/controller/automation_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/service"
)

type AutomationController struct {
	AutomationService *service.AutomationService
	Validate          *validator.Validate
	Secret            string
}

// Callback is the inbound endpoint the workflow engine posts its outcome
// to. Delivery is at-least-once, so duplicates and late callbacks answer
// 200: a non-2xx here would only trigger pointless retries upstream.
func (c *AutomationController) Callback(w http.ResponseWriter, r *http.Request) {
	if c.Secret != "" && r.Header.Get("X-Automation-Secret") != c.Secret {
		http.Error(w, "invalid automation secret", http.StatusUnauthorized)
		return
	}

	var cb service.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(cb); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := c.AutomationService.Resolve(cb)
	if err != nil {
		var stale *appErrors.StaleCallbackError
		if errors.As(err, &stale) {
			log.Println("ignoring stale callback:", err)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ignored"})
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
