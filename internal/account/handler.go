package account

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/parkwise/pkg/middleware"
	"github.com/fkhayef/parkwise/pkg/response"
)

// Handler handles HTTP requests for account operations
type Handler struct {
	service *Service
}

// NewHandler creates a new account handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for account endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(middleware.RoleAdmin))
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
	r.Get("/{id}", h.GetByID)

	return r
}

// Create handles POST /accounts
// @Summary      Register an account
// @Description  Register a driver, slot owner or admin account so reports can resolve owner names
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body CreateAccountRequest true "Account registration request"
// @Success      201 {object} response.APIResponse{data=AccountResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /accounts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	a, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, a.ToResponse())
}

// GetByID handles GET /accounts/{id}
// @Summary      Get account by ID
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} response.APIResponse{data=AccountResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /accounts/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, _ := middleware.GetRole(r.Context())
	userID, _ := middleware.GetUserID(r.Context())
	if role != middleware.RoleAdmin && userID != id {
		response.Forbidden(w, "You cannot view this account")
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, a.ToResponse())
}

// List handles GET /accounts
// @Summary      List accounts
// @Description  Get a paginated list of all accounts
// @Tags         accounts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]AccountResponse}
// @Router       /accounts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	accounts, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		response.FromError(w, err)
		return
	}

	accountResponses := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		accountResponses[i] = a.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, accountResponses, meta)
}
