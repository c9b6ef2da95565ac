package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/analytics"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/dataset"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/server"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/services"
)

func newTestReports() *services.Reports {
	rows := []models.Order{
		{OrderID: "A", CustomerUniqueID: "X", CustomerCity: "sao paulo", ProductID: "p1",
			ProductCategory: "toys", Price: 100, FreightValue: 10,
			PurchasedAt: time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC)},
		{OrderID: "B", CustomerUniqueID: "Y", CustomerCity: "rio de janeiro", ProductID: "p2",
			ProductCategory: "books", Price: 200, FreightValue: 20,
			PurchasedAt: time.Date(2018, 2, 1, 9, 0, 0, 0, time.UTC)},
	}
	return services.NewReports(dataset.FromRows(rows), analytics.ReferenceInstant, slog.New(slog.DiscardHandler))
}

func TestServer_Routes(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	reports := newTestReports()
	templateHandlers := &server.TemplateHandlers{Dashboard: dashboardHandler(reports)}
	srv := server.NewServer(reports, logger, templateHandlers)

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/admin/stats", http.StatusOK},
		{"/api/summary", http.StatusOK},
		{"/api/daily-orders", http.StatusOK},
		{"/api/customer-cities", http.StatusOK},
		{"/api/category-sales", http.StatusOK},
		{"/api/rfm", http.StatusOK},
		{"/api/export?format=csv", http.StatusOK},
		{"/sse/refresh-all", http.StatusOK},
		{"/sse/daily-orders", http.StatusOK},
		{"/sse/category-sales", http.StatusOK},
		{"/sse/customer-cities", http.StatusOK},
		{"/sse/rfm", http.StatusOK},
		{"/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("GET %s status = %d, want %d", tt.path, w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestDashboardHandler(t *testing.T) {
	reports := newTestReports()
	handler := dashboardHandler(reports)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Brazilian E-Commerce Dashboard</title>",
		`min="2018-01-01"`,
		`max="2018-02-01"`,
		"refresh-all",
		"RFM Analysis",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard page missing %q", want)
		}
	}
}

func TestFilteredSummaryFlow(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	reports := newTestReports()
	templateHandlers := &server.TemplateHandlers{Dashboard: dashboardHandler(reports)}
	srv := server.NewServer(reports, logger, templateHandlers)

	req := httptest.NewRequest(http.MethodGet, "/api/summary?start=2018-01-01&end=2018-01-31", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var response struct {
		Data models.Summary `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode summary: %v", err)
	}

	if response.Data.TotalOrders != 1 {
		t.Errorf("filtered total orders = %d, want 1", response.Data.TotalOrders)
	}
	if len(response.Data.RFM) != 1 || response.Data.RFM[0].CustomerUniqueID != "X" {
		t.Errorf("filtered RFM = %+v, want customer X only", response.Data.RFM)
	}
}
