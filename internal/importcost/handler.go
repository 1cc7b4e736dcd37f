package importcost

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pharma/meridian-erp/internal/platform/httpx"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Handler exposes the landed cost API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs an import cost handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches landed cost routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/containers/{id}/costs", h.updateCosts)
	r.Post("/containers/{id}/reallocate", h.reallocate)
	r.Put("/batches/{id}/container", h.relinkBatch)
}

// CostInput carries the editable cost figures of a container.
type CostInput struct {
	DutyBM             float64 `json:"duty_bm" validate:"gte=0"`
	PPNImport          float64 `json:"ppn_import" validate:"gte=0"`
	PPhImport          float64 `json:"pph_import" validate:"gte=0"`
	FreightCharges     float64 `json:"freight_charges" validate:"gte=0"`
	ClearingForwarding float64 `json:"clearing_forwarding" validate:"gte=0"`
	PortCharges        float64 `json:"port_charges" validate:"gte=0"`
	ContainerHandling  float64 `json:"container_handling" validate:"gte=0"`
	Transportation     float64 `json:"transportation" validate:"gte=0"`
	LoadingImport      float64 `json:"loading_import" validate:"gte=0"`
	BPOMSKIFees        float64 `json:"bpom_ski_fees" validate:"gte=0"`
	OtherImportCosts   float64 `json:"other_import_costs" validate:"gte=0"`
}

func (h *Handler) updateCosts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in CostInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	err := h.service.UpdateCosts(r.Context(), Container{
		ID:                 id,
		DutyBM:             in.DutyBM,
		PPNImport:          in.PPNImport,
		PPhImport:          in.PPhImport,
		FreightCharges:     in.FreightCharges,
		ClearingForwarding: in.ClearingForwarding,
		PortCharges:        in.PortCharges,
		ContainerHandling:  in.ContainerHandling,
		Transportation:     in.Transportation,
		LoadingImport:      in.LoadingImport,
		BPOMSKIFees:        in.BPOMSKIFees,
		OtherImportCosts:   in.OtherImportCosts,
	})
	if err != nil {
		h.respondError(w, "update container costs", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reallocate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reallocate(r.Context(), id); err != nil {
		h.respondError(w, "reallocate container", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchContainerInput moves a batch between containers. A null container_id
// detaches the batch.
type BatchContainerInput struct {
	ContainerID *int64 `json:"container_id" validate:"omitempty,gt=0"`
}

func (h *Handler) relinkBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || batchID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid batch id")
		return
	}
	var in BatchContainerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if in.ContainerID != nil && *in.ContainerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid container id")
		return
	}
	if err := h.service.RelinkBatch(r.Context(), batchID, in.ContainerID); err != nil {
		h.respondError(w, "relink batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid container id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrContainerNotFound), errors.Is(err, ErrBatchNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
