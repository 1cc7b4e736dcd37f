package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pharma/meridian-erp/internal/platform/httpx"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Reader serves the read-side endpoints. *Repository satisfies it.
type Reader interface {
	GetBatch(ctx context.Context, batchID int64) (Batch, error)
	ListReservationsForOrder(ctx context.Context, orderID int64) ([]StockReservation, error)
}

// Recounter rebuilds the stock counters. *Service satisfies it.
type Recounter interface {
	RecountBatch(ctx context.Context, batchID int64) (float64, error)
	RecountProduct(ctx context.Context, productID int64) (float64, error)
}

// Handler exposes the stock API.
type Handler struct {
	logger  *slog.Logger
	reader  Reader
	recount Recounter
}

// NewHandler constructs an inventory handler.
func NewHandler(logger *slog.Logger, reader Reader, recount Recounter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, reader: reader, recount: recount}
}

// MountRoutes attaches inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/batches/{id}", h.getBatch)
	r.Post("/batches/{id}/recount", h.recountBatch)
	r.Post("/products/{id}/recount", h.recountProduct)
	r.Get("/orders/{id}/reservations", h.listReservations)
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	batch, err := h.reader.GetBatch(r.Context(), id)
	if err != nil {
		h.respondError(w, "get batch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) recountBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reserved, err := h.recount.RecountBatch(r.Context(), id)
	if err != nil {
		h.respondError(w, "recount batch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batch_id": id, "reserved_stock": reserved})
}

func (h *Handler) recountProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	stock, err := h.recount.RecountProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, "recount product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": id, "current_stock": stock})
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reservations, err := h.reader.ListReservationsForOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "list reservations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reservations)
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
	case errors.Is(err, ErrBatchNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
