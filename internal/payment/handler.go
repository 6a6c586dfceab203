package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/period"
	"github.com/fkhayef/parkwise/pkg/middleware"
	"github.com/fkhayef/parkwise/pkg/response"
)

// Handler handles HTTP requests for payment operations
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleDriver, middleware.RoleScanner)).
		Post("/", h.Process)
	r.Post("/validate", h.Validate)
	r.Get("/commission", h.PreviewCommission)
	r.Get("/{id}", h.GetByID)
	r.With(middleware.RequireRole(middleware.RoleAdmin)).Post("/{id}/refund", h.Refund)

	return r
}

// OwnerRoutes returns the router for owner-scoped payment endpoints
func (h *Handler) OwnerRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{ownerId}/payments", h.ListByOwner)
	r.Get("/{ownerId}/summary", h.OwnerSummary)

	return r
}

// Process handles POST /payments
// @Summary      Record a payment
// @Description  Validate a completed parking payment, compute the platform commission and append it to the ledger
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ProcessPaymentRequest true "Payment details"
// @Success      201 {object} response.APIResponse{data=PaymentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      503 {object} response.APIResponse
// @Router       /payments [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.ProcessPayment(r.Context(), req.ToInput())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, p.ToResponse())
}

// Validate handles POST /payments/validate
// @Summary      Validate payment data
// @Description  Run the payment precondition checks without recording anything
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ProcessPaymentRequest true "Payment details"
// @Success      200 {object} response.APIResponse
// @Failure      400 {object} response.APIResponse
// @Router       /payments/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.ValidatePaymentData(req.ToInput()); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// PreviewCommission handles GET /payments/commission
// @Summary      Preview commission
// @Description  Compute commission and net for a gross amount without persisting
// @Tags         payments
// @Produce      json
// @Param        gross_amount query string true "Gross amount" example(100.00)
// @Success      200 {object} response.APIResponse{data=CommissionPreviewResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /payments/commission [get]
func (h *Handler) PreviewCommission(w http.ResponseWriter, r *http.Request) {
	gross, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("gross_amount")))
	if err != nil {
		response.FromError(w, &apperr.ValidationError{Field: "gross_amount", Message: "must be a decimal number", Kind: apperr.ErrInvalidAmount})
		return
	}

	b, err := h.service.CalculateCommission(gross)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, &CommissionPreviewResponse{
		GrossAmount:      b.GrossAmount.StringFixed(2),
		CommissionRate:   b.CommissionRate.String(),
		CommissionAmount: b.CommissionAmount.StringFixed(2),
		NetAmount:        b.NetAmount.StringFixed(2),
	})
}

// GetByID handles GET /payments/{id}
// @Summary      Get payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} response.APIResponse{data=PaymentResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /payments/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	if !middleware.CanAccessOwner(r.Context(), p.OwnerAccountID) {
		if userID, _ := middleware.GetUserID(r.Context()); userID != p.DriverID {
			response.Forbidden(w, "You cannot view this payment")
			return
		}
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// Refund handles POST /payments/{id}/refund
// @Summary      Refund a payment
// @Description  Record a refund against a completed payment; the original record is not modified
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body RefundRequest true "Refund details"
// @Success      201 {object} response.APIResponse{data=RefundResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /payments/{id}/refund [post]
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	refund, err := h.service.RefundPayment(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, refund.ToResponse())
}

// ListByOwner handles GET /owners/{ownerId}/payments
// @Summary      List an owner's payments
// @Description  Payments received by a slot owner, newest first
// @Tags         owners
// @Produce      json
// @Param        ownerId path string true "Owner account ID"
// @Success      200 {object} response.APIResponse{data=[]PaymentResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /owners/{ownerId}/payments [get]
func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")
	if !middleware.CanAccessOwner(r.Context(), ownerID) {
		response.Forbidden(w, "You cannot view this owner's payments")
		return
	}

	payments, err := h.service.ListOwnerPayments(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	paymentResponses := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		paymentResponses[i] = p.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, paymentResponses, &response.Meta{Total: len(payments)})
}

// OwnerSummary handles GET /owners/{ownerId}/summary
// @Summary      Owner revenue summary
// @Description  Gross, net and commission totals for the owner's current daily, weekly or monthly window
// @Tags         owners
// @Produce      json
// @Param        ownerId path string true "Owner account ID"
// @Param        period query string false "daily, weekly or monthly" default(monthly)
// @Success      200 {object} response.APIResponse{data=OwnerSummaryResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /owners/{ownerId}/summary [get]
func (h *Handler) OwnerSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")
	if !middleware.CanAccessOwner(r.Context(), ownerID) {
		response.Forbidden(w, "You cannot view this owner's summary")
		return
	}

	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = string(period.Monthly)
	}
	p, err := period.Parse(raw)
	if err != nil {
		response.FromError(w, err)
		return
	}

	summary, err := h.service.GetOwnerSummary(r.Context(), ownerID, p)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary.ToResponse())
}
