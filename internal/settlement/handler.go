package settlement

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/parkwise/pkg/middleware"
	"github.com/fkhayef/parkwise/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireRole(middleware.RoleAdmin)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/outstanding/{ownerId}", h.GetOutstanding)
	r.Get("/{id}", h.GetByID)

	return r
}

// Create handles POST /settlements
// @Summary      Settle an owner's commissions
// @Description  Move every collected commission of the owner to Paid and record the remittance
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body CreateSettlementRequest true "Owner to settle"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settledBy, _ := middleware.GetUserID(r.Context())
	settlement, err := h.service.SettleOwner(r.Context(), req.OwnerAccountID, settledBy)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// List handles GET /settlements?owner_id=
// @Summary      List an owner's settlements
// @Tags         settlements
// @Produce      json
// @Param        owner_id query string true "Owner account ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		response.BadRequest(w, "owner_id is required")
		return
	}
	if !middleware.CanAccessOwner(r.Context(), ownerID) {
		response.Forbidden(w, "You cannot view this owner's settlements")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	settlements, total, err := h.service.ListByOwner(r.Context(), ownerID, page, perPage)
	if err != nil {
		response.FromError(w, err)
		return
	}

	settlementResponses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		settlementResponses[i] = s.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	response.JSONWithMeta(w, http.StatusOK, settlementResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetOutstanding handles GET /settlements/outstanding/{ownerId}
// @Summary      Unsettled commission for an owner
// @Tags         settlements
// @Produce      json
// @Param        ownerId path string true "Owner account ID"
// @Success      200 {object} response.APIResponse{data=OutstandingResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/outstanding/{ownerId} [get]
func (h *Handler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")
	if !middleware.CanAccessOwner(r.Context(), ownerID) {
		response.Forbidden(w, "You cannot view this owner's balance")
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, outstanding.ToResponse())
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	if !middleware.CanAccessOwner(r.Context(), settlement.OwnerAccountID) {
		response.Forbidden(w, "You cannot view this settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}
