package invoices

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/orders"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
	"github.com/torque-erp/torque-erp/internal/shared"
)

// Handler exposes invoicing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches invoicing routes behind the module's permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.ModuleInvoices, permissions.ActionRead))
		r.Get("/invoices", h.List)
		r.Get("/invoices/{id}", h.Show)
		r.Get("/invoices/{id}/pdf", h.PDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.ModuleInvoices, permissions.ActionWrite))
		r.Post("/invoices", h.Create)
		r.Put("/invoices/{id}/status", h.UpdateStatus)
		r.Post("/invoices/{id}/email", h.Email)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	clientID, _ := strconv.ParseInt(q.Get("client_id"), 10, 64)
	req := ListInvoicesRequest{
		ClientID: clientID,
		Status:   InvoiceStatus(q.Get("status")),
		Search:   q.Get("search"),
		Page:     page,
		PerPage:  perPage,
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	if list == nil {
		list = []InvoiceWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   list,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoice, err := h.service.CreateFromOrder(r.Context(), req, identity.ID)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoice, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, "update invoice status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pdf, number, err := h.service.RenderPDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("render invoice pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "PDF rendering unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) Email(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.QueueEmail(r.Context(), id); err != nil {
		h.fail(w, "queue invoice email", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, orders.ErrInvalidStatus) {
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}
