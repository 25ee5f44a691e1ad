package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const tenantKey contextKey = "tenant_id"

// RequireTenant rejects requests without an X-Tenant-ID header and stores
// the tenant id in the request context. Every storage call downstream is
// scoped by this value; no handler builds its own tenant filter.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get("X-Tenant-ID")
		if tenantID == "" {
			http.Error(w, "missing X-Tenant-ID header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), tenantKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantID returns the tenant id stored by RequireTenant.
func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}
