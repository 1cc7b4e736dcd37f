package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-pharma/meridian-erp/internal/sales"
	"github.com/meridian-pharma/meridian-erp/web"
)

// ChallanSource loads delivery challans for printing.
type ChallanSource interface {
	GetChallan(ctx context.Context, challanID int64) (sales.DeliveryChallan, error)
}

// Handler renders printable documents through Gotenberg.
type Handler struct {
	client   *Client
	logger   *slog.Logger
	challans ChallanSource
	tmpl     *template.Template
	group    singleflight.Group
}

// NewHandler creates a report handler. Templates are parsed once at startup.
func NewHandler(client *Client, logger *slog.Logger, challans ChallanSource) (*Handler, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/report/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &Handler{client: client, logger: logger, challans: challans, tmpl: tmpl}, nil
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/challans/{id}.pdf", h.challanPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// challanPDF renders a delivery challan. Concurrent requests for the same
// challan share one render through singleflight.
func (h *Handler) challanPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	pdf, err, _ := h.group.Do("challan:"+strconv.FormatInt(id, 10), func() (any, error) {
		return h.renderChallan(r.Context(), id)
	})
	if err != nil {
		if errors.Is(err, sales.ErrChallanNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("render challan pdf", slog.Int64("challan_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=challan.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.([]byte))
}

func (h *Handler) renderChallan(ctx context.Context, id int64) ([]byte, error) {
	challan, err := h.challans.GetChallan(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "challan.html", challan); err != nil {
		return nil, fmt.Errorf("execute challan template: %w", err)
	}
	return h.client.RenderHTML(ctx, buf.String())
}
