package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"planettalk-agent-backend/internal/security"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware validates the bearer token and stores the claims on the
// request context.
func AuthMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func claimsFrom(r *http.Request) *security.UserClaims {
	claims, _ := r.Context().Value(claimsKey).(*security.UserClaims)
	return claims
}

// requireAdmin aborts the request unless the caller holds the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := claimsFrom(r)
	if claims == nil || claims.Role != security.RoleAdmin {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required"})
		return false
	}
	return true
}

// requireAgentScope aborts unless the caller is an admin or the agent whose
// resources are being accessed.
func requireAgentScope(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) bool {
	claims := claimsFrom(r)
	if claims == nil {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
		return false
	}
	if claims.Role == security.RoleAdmin || claims.AgentID == agentID {
		return true
	}
	writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	return false
}
