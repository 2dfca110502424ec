package public

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/megaqc-web/internal/auth"
	"github.com/ayush/megaqc-web/internal/models"
	"github.com/ayush/megaqc-web/internal/store"
)

// ReportStore defines read access to reports and plot configs.
type ReportStore interface {
	ListReports(ctx context.Context) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	PlotSections(ctx context.Context) ([]string, error)
}

// FileStore defines read access to raw report files.
type FileStore interface {
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Handler serves the static pages and the report/plot listings.
type Handler struct {
	reports ReportStore
	files   FileStore
	pages   auth.Renderer
	log     *slog.Logger
}

func NewHandler(reports ReportStore, files FileStore, pages auth.Renderer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{reports: reports, files: files, pages: pages, log: log}
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "home", nil)
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "about", nil)
}

func (h *Handler) NewPlot(w http.ResponseWriter, r *http.Request) {
	h.renderPlotPage(w, r, "plot_choice")
}

func (h *Handler) ReportPlotSelect(w http.ResponseWriter, r *http.Request) {
	h.renderPlotPage(w, r, "report_plot_select")
}

func (h *Handler) ReportPlot(w http.ResponseWriter, r *http.Request) {
	h.renderPlotPage(w, r, "report_plot")
}

// renderPlotPage loads every report and plot section for the plot pages.
func (h *Handler) renderPlotPage(w http.ResponseWriter, r *http.Request, page string) {
	reports, err := h.reports.ListReports(r.Context())
	if err != nil {
		h.log.Error("list reports failed", "page", page, "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	sections, err := h.reports.PlotSections(r.Context())
	if err != nil {
		h.log.Error("list plot sections failed", "page", page, "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	var token string
	if user := auth.UserFromContext(r.Context()); user != nil {
		token = user.APIToken
	}
	h.pages.Render(w, r, http.StatusOK, page, map[string]any{
		"Reports":   reports,
		"PlotTypes": sections,
		"UserToken": token,
	})
}

// DownloadRaw streams the raw uploaded report file.
func (h *Handler) DownloadRaw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.reports.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && report.RawObjectKey == "") {
		http.Error(w, "report not available", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("get report failed", "report_id", id, "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	data, _, err := h.files.Download(r.Context(), report.RawObjectKey)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "report not available", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("download report failed", "report_id", id, "error", err)
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	// Raw reports are MultiQC JSON whatever type the object was stored with.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=multiqc_data.json")
	w.Write(data)
}
