package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/platform/httpx"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Handler exposes the sales order, delivery and invoicing API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/{id}/reserve", h.reserveOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/challans", h.createChallan)
	r.Post("/challans/{id}/approve", h.approveChallan)
	r.Post("/invoices", h.createInvoice)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in OrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	order, err := h.service.CreateOrder(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.respondError(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) reserveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	order, err := h.service.ReserveOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "reserve order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelOrder(r.Context(), id); err != nil {
		h.respondError(w, "cancel order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createChallan(w http.ResponseWriter, r *http.Request) {
	var in ChallanInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	challan, err := h.service.CreateChallan(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.respondError(w, "create challan", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, challan)
}

func (h *Handler) approveChallan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	challan, err := h.service.ApproveChallan(r.Context(), id, shared.ActorID(r))
	if err != nil {
		h.respondError(w, "approve challan", err)
		return
	}
	httpx.JSON(w, http.StatusOK, challan)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in InvoiceInput
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

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrChallanNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrChallanAlreadyApproved), errors.Is(err, ErrOrderNotOpen):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Conflict", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
