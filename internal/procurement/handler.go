package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pharma/meridian-erp/internal/platform/httpx"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Handler exposes the procurement API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/requirements", h.listRequirements)
	r.Put("/requirements/{id}/status", h.updateRequirementStatus)
	r.Post("/invoices", h.createInvoice)
}

func (h *Handler) listRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.OpenRequirements(r.Context())
	if err != nil {
		h.respondError(w, "list requirements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reqs)
}

type statusUpdate struct {
	Status string `json:"status"`
}

func (h *Handler) updateRequirementStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var in statusUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.service.UpdateRequirementStatus(r.Context(), id, RequirementStatus(in.Status)); err != nil {
		h.respondError(w, "update requirement status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in PurchaseInvoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrRequirementNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
