package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/errors"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/exporter"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/observability"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	reports *services.Reports
	logger  *slog.Logger
}

func NewAPIHandlers(reports *services.Reports, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		reports: reports,
		logger:  logger,
	}
}

// parseRange reads the optional start/end query parameters. Missing values
// come back as zero times, which the report service resolves to the full
// dataset span.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var start, end time.Time

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return start, end, errors.BadRequest(fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", s))
		}
		start = t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.DateOnly, e)
		if err != nil {
			return start, end, errors.BadRequest(fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", e))
		}
		end = t
	}

	return start, end, nil
}

// resolve returns the summary for the request: a fresh recompute when a
// filter is present, the current snapshot otherwise.
func (h *APIHandlers) resolve(r *http.Request) (models.Summary, error) {
	start, end, err := parseRange(r)
	if err != nil {
		return models.Summary{}, err
	}
	if start.IsZero() && end.IsZero() {
		return h.reports.Summary(), nil
	}
	return h.reports.Recompute(start, end)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, summary)
}

func (h *APIHandlers) HandleDailyOrders(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.DailyOrders, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleCustomerCities(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.CityCustomers, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.CategorySales, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.RFM, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandleExport streams the four derived tables as a downloadable CSV bundle
// or XLSX workbook.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.resolve(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	stamp := time.Now().Format("20060102_150405")

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.xlsx", stamp))
		if err := exporter.WriteWorkbook(w, summary); err != nil {
			h.logger.Error("write workbook export", "error", err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.csv", stamp))
		if err := exporter.WriteCSV(w, summary); err != nil {
			h.logger.Error("write csv export", "error", err)
		}
	default:
		errors.WriteError(w, h.logger,
			errors.BadRequest(fmt.Sprintf("unsupported export format %q, want csv or xlsx", format)),
			observability.GetRequestID(r.Context()))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.reports.Stats())
}
