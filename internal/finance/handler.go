package finance

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-pharma/meridian-erp/internal/platform/httpx"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Idempotency guards document creation against duplicate submissions.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler exposes the finance document API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	idem    Idempotency
}

// NewHandler constructs a finance handler. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewHandler(logger *slog.Logger, service *Service, idem Idempotency) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idem: idem}
}

// claimKey registers the request's Idempotency-Key. A false return means the
// response has already been written.
func (h *Handler) claimKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(shared.IdempotencyHeader)
	if key == "" || h.idem == nil {
		return "", true
	}
	if err := h.idem.CheckAndInsert(r.Context(), key, "finance"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate Request", "request with this idempotency key was already processed")
			return "", false
		}
		h.logger.Error("claim idempotency key", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
		return "", false
	}
	return key, true
}

// releaseKey frees a claimed key after a failed create so the client can retry.
func (h *Handler) releaseKey(ctx context.Context, key string) {
	if key == "" || h.idem == nil {
		return
	}
	if err := h.idem.Delete(ctx, key); err != nil {
		h.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
	}
}

// MountRoutes attaches finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/expenses", h.createExpense)
	r.Put("/expenses/{id}", h.updateExpense)
	r.Delete("/expenses/{id}", h.deleteExpense)
	r.Post("/receipt-vouchers", h.createReceiptVoucher)
	r.Post("/payment-vouchers", h.createPaymentVoucher)
	r.Post("/fund-transfers", h.createFundTransfer)
	r.Post("/petty-cash", h.createPettyCash)
	r.Get("/unposted", h.listUnposted)
	r.Get("/ppn-report", h.ppnReport)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in ExpenseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key, ok := h.claimKey(w, r)
	if !ok {
		return
	}
	e, err := h.service.CreateExpense(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.releaseKey(r.Context(), key)
		h.respondError(w, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid expense id")
		return
	}
	var in ExpenseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	e, err := h.service.UpdateExpense(r.Context(), id, in, shared.ActorID(r))
	if err != nil {
		h.respondError(w, "update expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid expense id")
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id, shared.ActorID(r)); err != nil {
		h.respondError(w, "delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createReceiptVoucher(w http.ResponseWriter, r *http.Request) {
	var in ReceiptVoucherInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key, ok := h.claimKey(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreateReceiptVoucher(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.releaseKey(r.Context(), key)
		h.respondError(w, "create receipt voucher", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) createPaymentVoucher(w http.ResponseWriter, r *http.Request) {
	var in PaymentVoucherInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key, ok := h.claimKey(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreatePaymentVoucher(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.releaseKey(r.Context(), key)
		h.respondError(w, "create payment voucher", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) createFundTransfer(w http.ResponseWriter, r *http.Request) {
	var in FundTransferInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key, ok := h.claimKey(w, r)
	if !ok {
		return
	}
	t, err := h.service.CreateFundTransfer(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.releaseKey(r.Context(), key)
		h.respondError(w, "create fund transfer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) createPettyCash(w http.ResponseWriter, r *http.Request) {
	var in PettyCashInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key, ok := h.claimKey(w, r)
	if !ok {
		return
	}
	t, err := h.service.CreatePettyCash(r.Context(), in, shared.ActorID(r))
	if err != nil {
		h.releaseKey(r.Context(), key)
		h.respondError(w, "create petty cash", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) listUnposted(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.UnpostedDocuments(r.Context())
	if err != nil {
		h.respondError(w, "list unposted", err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *Handler) ppnReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 {
		year = time.Now().Year()
	}
	report, err := h.service.PPNReport(r.Context(), year)
	if err != nil {
		h.respondError(w, "ppn report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDocumentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
