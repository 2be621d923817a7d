package http

import (
	"github.com/gorilla/mux"

	"planettalk-agent-backend/internal/security"
)

// RegisterRoutes wires the ledger API onto the router. All routes require a
// bearer token; per-route authorization (admin vs. agent scope) happens in
// the handlers.
func RegisterRoutes(router *mux.Router, h *Handler, tokens security.TokenManager) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))

	// Agents
	api.HandleFunc("/agents", h.CreateAgent).Methods("POST")
	api.HandleFunc("/agents/{id}", h.GetAgent).Methods("GET")
	api.HandleFunc("/agents/{id}/commission", h.UpdateCommission).Methods("PUT")
	api.HandleFunc("/agents/{id}/reconcile", h.ReconcileAgent).Methods("POST")

	// Earnings
	api.HandleFunc("/agents/{id}/earnings", h.ListEarnings).Methods("GET")
	api.HandleFunc("/agents/{id}/adjustments", h.CreateAdjustment).Methods("POST")
	api.HandleFunc("/earnings", h.CreateEarning).Methods("POST")
	api.HandleFunc("/earnings/{id}", h.GetEarning).Methods("GET")
	api.HandleFunc("/earnings/{id}/confirm", h.ConfirmEarning).Methods("POST")
	api.HandleFunc("/earnings/{id}/reject", h.RejectEarning).Methods("POST")
	api.HandleFunc("/earnings/{id}/dispute", h.DisputeEarning).Methods("POST")
	api.HandleFunc("/earnings/{id}/paid", h.MarkEarningPaid).Methods("POST")
	api.HandleFunc("/earnings/bulk-approve", h.BulkApproveEarnings).Methods("POST")
	api.HandleFunc("/earnings/bulk-reject", h.BulkRejectEarnings).Methods("POST")

	// Referral usage ingestion
	api.HandleFunc("/referrals/usage", h.RecordReferralUsage).Methods("POST")

	// Payouts
	api.HandleFunc("/agents/{id}/payouts", h.RequestPayout).Methods("POST")
	api.HandleFunc("/agents/{id}/payouts", h.ListPayouts).Methods("GET")
	api.HandleFunc("/payouts/{id}", h.GetPayout).Methods("GET")
	api.HandleFunc("/payouts/{id}/status", h.UpdatePayoutStatus).Methods("PUT")
	api.HandleFunc("/payouts/bulk", h.BulkProcessPayouts).Methods("POST")

	// Notifications
	api.HandleFunc("/agents/{id}/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/agents/{id}/notifications/{note_id}/read", h.MarkNotificationRead).Methods("POST")
}
