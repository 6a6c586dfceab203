package report

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/parkwise/internal/period"
	"github.com/fkhayef/parkwise/pkg/middleware"
	"github.com/fkhayef/parkwise/pkg/response"
)

// Handler handles HTTP requests for commission reporting
type Handler struct {
	service *Service
}

// NewHandler creates a new report handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for commission endpoints. All of them are admin only.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireRole(middleware.RoleAdmin))

	r.Post("/reports", h.Generate)
	r.Get("/reports", h.List)
	r.Get("/reports/{id}", h.GetByID)
	r.Post("/reports/{id}/review", h.Review)
	r.Post("/reports/{id}/process", h.Process)
	r.Get("/reports/{id}/export", h.Export)

	r.Get("/summary", h.Summary)
	r.Post("/collect", h.Collect)

	return r
}

// Generate handles POST /commissions/reports
// @Summary      Generate a commission report
// @Description  Aggregate payments for the current daily, weekly or monthly window, or for explicit start/end dates
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body GenerateReportRequest true "Report window"
// @Success      201 {object} response.APIResponse{data=ReportResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Failure      503 {object} response.APIResponse
// @Router       /commissions/reports [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	loc := h.service.Location()
	start, err := period.ParseDate("start_date", req.StartDate, loc)
	if err != nil {
		response.FromError(w, err)
		return
	}
	end, err := period.ParseDate("end_date", req.EndDate, loc)
	if err != nil {
		response.FromError(w, err)
		return
	}

	report, err := h.service.GenerateCommissionReport(r.Context(), period.Period(req.Period), start, end)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, report.ToResponse())
}

// List handles GET /commissions/reports
// @Summary      List commission reports
// @Description  All generated reports, newest first
// @Tags         commissions
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]ReportResponse}
// @Router       /commissions/reports [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.GetCommissionReports(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	reportResponses := make([]*ReportResponse, len(reports))
	for i, rep := range reports {
		reportResponses[i] = rep.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, reportResponses, &response.Meta{Total: len(reports)})
}

// GetByID handles GET /commissions/reports/{id}
// @Summary      Get a commission report
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Report ID"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /commissions/reports/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, report.ToResponse())
}

// Review handles POST /commissions/reports/{id}/review
// @Summary      Mark a report reviewed
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Report ID"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /commissions/reports/{id}/review [post]
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ReviewReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, report.ToResponse())
}

// Process handles POST /commissions/reports/{id}/process
// @Summary      Mark a report processed
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Report ID"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /commissions/reports/{id}/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProcessReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, report.ToResponse())
}

// Export handles GET /commissions/reports/{id}/export
// @Summary      Export a report as CSV
// @Tags         commissions
// @Produce      text/csv
// @Param        id path string true "Report ID"
// @Success      200 {string} string "CSV document"
// @Failure      404 {object} response.APIResponse
// @Router       /commissions/reports/{id}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := h.service.ExportCommissionReport(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.CSV(w, "commission-report-"+id+".csv", []byte(body))
}

// Summary handles GET /commissions/summary
// @Summary      Commission summary
// @Description  Collected and pending commissions with month-over-month growth
// @Tags         commissions
// @Produce      json
// @Success      200 {object} response.APIResponse{data=SummaryResponse}
// @Router       /commissions/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetCommissionSummary(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary.ToResponse())
}

// Collect handles POST /commissions/collect
// @Summary      Collect commissions
// @Description  Move each payment's commission from Pending to Collected; results are reported per payment
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body CollectCommissionsRequest true "Payments to collect"
// @Success      200 {object} response.APIResponse{data=[]CollectResult}
// @Failure      400 {object} response.APIResponse
// @Router       /commissions/collect [post]
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectCommissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	results, err := h.service.CollectCommissions(r.Context(), req.PaymentIDs)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, results)
}
