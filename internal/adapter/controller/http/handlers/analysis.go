package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/Riesling1623/honeydash/internal/usecase/analysis"
	"github.com/Riesling1623/honeydash/internal/usecase/export"
	"github.com/Riesling1623/honeydash/internal/usecase/reports"
)

// AnalysisService is the aggregation layer behind the analysis endpoints
type AnalysisService interface {
	Analyze(ctx context.Context, startDate, endDate string) (*entity.Dataset, error)
	AvailableDates(ctx context.Context) ([]string, error)
	DefaultAnalysis(ctx context.Context) (json.RawMessage, error)
	FindSession(ctx context.Context, id, startDate, endDate string) (*entity.Session, error)
}

// ReportService renders summary reports
type ReportService interface {
	GenerateReport(ctx context.Context, config reports.ReportConfig) ([]byte, string, error)
}

// AnalysisHandler handles honeypot analysis HTTP requests
type AnalysisHandler struct {
	service AnalysisService
	reports ReportService
	observe func(time.Duration)
}

// NewAnalysisHandler creates a new analysis handler. observe may be nil.
func NewAnalysisHandler(service AnalysisService, reportService ReportService, observe func(time.Duration)) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		reports: reportService,
		observe: observe,
	}
}

// GetAnalysis returns the merged dataset for a date range, or the default
// document when no range is given
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	if startDate == "" || endDate == "" {
		doc, err := h.service.DefaultAnalysis(ctx)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
		return
	}

	ds, err := h.analyze(ctx, startDate, endDate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, ds)
}

// GetAvailableDates lists the days that have reports
func (h *AnalysisHandler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.service.AvailableDates(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
	})
}

// GetSession returns one session by id
func (h *AnalysisHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.service.FindSession(r.Context(), id,
		r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, session)
}

// ExportSessions streams the sessions of a range as an XLSX attachment
func (h *AnalysisHandler) ExportSessions(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate == "" || endDate == "" {
		ErrorResponse(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return
	}

	ds, err := h.analyze(r.Context(), startDate, endDate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSessions(&buf, ds.Sessions); err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(startDate, endDate)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GenerateReport renders a PDF or XML summary of a range
func (h *AnalysisHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	cfg := reports.ReportConfig{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Format:    r.URL.Query().Get("format"),
	}
	if cfg.StartDate == "" || cfg.EndDate == "" {
		ErrorResponse(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return
	}
	if cfg.Format == "" {
		cfg.Format = reports.FormatPDF
	}
	if cfg.Format != reports.FormatPDF && cfg.Format != reports.FormatXML {
		ErrorResponse(w, http.StatusBadRequest, "Invalid format. Use pdf or xml", nil)
		return
	}

	data, filename, err := h.reports.GenerateReport(r.Context(), cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}

	contentType := "application/pdf"
	if cfg.Format == reports.FormatXML {
		contentType = "application/xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *AnalysisHandler) analyze(ctx context.Context, startDate, endDate string) (*entity.Dataset, error) {
	start := time.Now()
	ds, err := h.service.Analyze(ctx, startDate, endDate)
	if err == nil && h.observe != nil {
		h.observe(time.Since(start))
	}
	return ds, err
}

func (h *AnalysisHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidDate):
		ErrorResponse(w, http.StatusBadRequest, "Invalid date format. Use YYYYMMDD", nil)
	case errors.Is(err, analysis.ErrInvalidRange):
		ErrorResponse(w, http.StatusBadRequest, "Invalid date range", err)
	case errors.Is(err, analysis.ErrNoData):
		ErrorResponse(w, http.StatusNotFound, "No data available", nil)
	case errors.Is(err, analysis.ErrSessionNotFound):
		ErrorResponse(w, http.StatusNotFound, "Session not found", nil)
	default:
		ErrorResponse(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
