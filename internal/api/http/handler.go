package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/service"
)

// Handler exposes the ledger services over a thin JSON API. Validation and
// business rules live in the services; handlers only decode, authorize and
// encode.
type Handler struct {
	agents          service.AgentService
	earnings        service.EarningService
	payouts         service.PayoutService
	commissions     service.CommissionService
	reconciliations service.ReconciliationService
	notifications   service.NotificationService
}

func NewHandler(
	agents service.AgentService,
	earnings service.EarningService,
	payouts service.PayoutService,
	commissions service.CommissionService,
	reconciliations service.ReconciliationService,
	notifications service.NotificationService,
) *Handler {
	return &Handler{
		agents:          agents,
		earnings:        earnings,
		payouts:         payouts,
		commissions:     commissions,
		reconciliations: reconciliations,
		notifications:   notifications,
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

func pagination(r *http.Request) (page, pageSize int32) {
	page = 1
	pageSize = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		pageSize = int32(v)
	}
	return page, pageSize
}

// --- agents ---

type createAgentRequest struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Tier           string          `json:"tier"`
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	agent := &domain.Agent{
		Code:           req.Code,
		Name:           req.Name,
		Email:          req.Email,
		CommissionRate: req.CommissionRate,
		Tier:           domain.AgentTier(req.Tier),
	}
	if err := h.agents.CreateAgent(r.Context(), agent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	agent, err := h.agents.GetAgent(r.Context(), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type updateCommissionRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Tier           string          `json:"tier"`
}

func (h *Handler) UpdateCommission(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	agent, err := h.agents.UpdateCommission(r.Context(), agentID, req.CommissionRate, domain.AgentTier(req.Tier))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *Handler) ReconcileAgent(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.reconciliations.RecalculateBalances(r.Context(), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// --- referral usage ---

type referralUsageRequest struct {
	AgentCode    string          `json:"agent_code"`
	CustomerRef  string          `json:"customer_ref"`
	SignupAmount decimal.Decimal `json:"signup_amount"`
	Currency     string          `json:"currency"`
}

func (h *Handler) RecordReferralUsage(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req referralUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	earning, err := h.commissions.ProcessReferralUsage(r.Context(), service.ReferralUsage{
		AgentCode:    req.AgentCode,
		CustomerRef:  req.CustomerRef,
		SignupAmount: req.SignupAmount,
		Currency:     req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, earning)
}

// --- earnings ---

type createEarningRequest struct {
	AgentID     uuid.UUID       `json:"agent_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ReferenceID *string         `json:"reference_id,omitempty"`
	Description string          `json:"description"`
}

func (h *Handler) CreateEarning(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req createEarningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	earning, err := h.earnings.CreateEarning(r.Context(), service.CreateEarningInput{
		AgentID:     req.AgentID,
		Type:        domain.EarningType(req.Type),
		Amount:      req.Amount,
		Currency:    req.Currency,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, earning)
}

func (h *Handler) ConfirmEarning(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	earningID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	earning, err := h.earnings.ConfirmEarning(r.Context(), earningID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earning)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectEarning(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	earningID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	earning, err := h.earnings.RejectEarning(r.Context(), earningID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earning)
}

func (h *Handler) DisputeEarning(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	earningID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	earning, err := h.earnings.DisputeEarning(r.Context(), earningID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earning)
}

func (h *Handler) MarkEarningPaid(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	earningID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	earning, err := h.earnings.MarkEarningPaid(r.Context(), earningID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earning)
}

func (h *Handler) GetEarning(w http.ResponseWriter, r *http.Request) {
	earningID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	earning, err := h.earnings.GetEarning(r.Context(), earningID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, earning.AgentID) {
		return
	}
	writeJSON(w, http.StatusOK, earning)
}

type bulkEarningsRequest struct {
	EarningIDs []uuid.UUID `json:"earning_ids"`
	Reason     string      `json:"reason,omitempty"`
}

func (h *Handler) BulkApproveEarnings(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req bulkEarningsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	writeJSON(w, http.StatusOK, h.earnings.BulkApprove(r.Context(), req.EarningIDs))
}

func (h *Handler) BulkRejectEarnings(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req bulkEarningsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	writeJSON(w, http.StatusOK, h.earnings.BulkReject(r.Context(), req.EarningIDs, req.Reason))
}

type adjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	earning, err := h.earnings.CreateAdjustment(r.Context(), agentID, req.Amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, earning)
}

func (h *Handler) ListEarnings(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	page, pageSize := pagination(r)
	status := domain.EarningStatus(r.URL.Query().Get("status"))
	items, total, err := h.earnings.ListEarnings(r.Context(), agentID, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// --- payouts ---

type requestPayoutRequest struct {
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	Method         string                `json:"method"`
	PaymentDetails domain.PaymentDetails `json:"payment_details"`
}

func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	var req requestPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	payout, err := h.payouts.RequestPayout(r.Context(), service.RequestPayoutInput{
		AgentID:        agentID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         domain.PayoutMethod(req.Method),
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payout)
}

type payoutStatusRequest struct {
	Status string           `json:"status"`
	Fees   *decimal.Decimal `json:"fees,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (h *Handler) UpdatePayoutStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	payoutID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req payoutStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	payout, err := h.payouts.UpdatePayoutStatus(r.Context(), payoutID, domain.PayoutStatus(req.Status), service.StatusChangeInput{
		Fees:   req.Fees,
		Reason: req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

type bulkPayoutsRequest struct {
	Action    string      `json:"action"`
	PayoutIDs []uuid.UUID `json:"payout_ids"`
}

func (h *Handler) BulkProcessPayouts(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req bulkPayoutsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	result, err := h.payouts.BulkProcessPayouts(r.Context(), req.Action, req.PayoutIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetPayout(w http.ResponseWriter, r *http.Request) {
	payoutID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	payout, err := h.payouts.GetPayout(r.Context(), payoutID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, payout.AgentID) {
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	page, pageSize := pagination(r)
	status := domain.PayoutStatus(r.URL.Query().Get("status"))
	items, total, err := h.payouts.ListPayouts(r.Context(), agentID, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// --- notifications ---

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	page, pageSize := pagination(r)
	items, total, err := h.notifications.GetNotifications(r.Context(), agentID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	noteID, err := pathUUID(r, "note_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !requireAgentScope(w, r, agentID) {
		return
	}
	if err := h.notifications.MarkAsRead(r.Context(), agentID, noteID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
