package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/analytics"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/errors"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/services"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/ui"
)

const (
	topN        = 5
	maxRFMRows  = 50
	maxCityRows = 50
)

var categoryTableTemplate = template.Must(template.New("categoryTable").Parse(`
<div id="{{.ID}}">
<table class="modern-table">
<thead><tr><th>Category</th><th>Orders</th><th>Products</th><th>Revenue</th><th>Freight</th></tr></thead>
<tbody>
{{range $i, $row := .Rows}}<tr style="border-left: 4px solid {{index $.Colors $i}}">
<td><span class="category-badge">{{.Category}}</span></td>
<td><strong>{{.TotalOrder}}</strong></td>
<td>{{.TotalProduct}}</td>
<td>{{printf "%.2f" .TotalPrice}}</td>
<td>{{printf "%.2f" .TotalFreight}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var cityTableTemplate = template.Must(template.New("cityTable").Parse(`
<div id="cities-content">
<table class="modern-table">
<thead><tr><th>City</th><th>Customers</th><th>Lat</th><th>Lng</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.City}}</td>
<td><strong>{{.TotalCustomer}}</strong></td>
<td>{{printf "%.4f" .GeoLat}}</td>
<td>{{printf "%.4f" .GeoLng}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var rfmTableTemplate = template.Must(template.New("rfmTable").Parse(`
<div id="{{.ID}}">
<table class="modern-table">
<thead><tr><th>Customer</th><th>Recency</th><th>Frequency</th><th>Monetary</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.LabelID}}</td>
<td>{{.Recency}}</td>
<td>{{.Frequency}}</td>
<td>{{printf "%.2f" .Monetary}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	reports *services.Reports
	logger  *slog.Logger
}

func NewSSEHandlers(reports *services.Reports, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		reports: reports,
		logger:  logger,
	}
}

// signalsParam is the query parameter the datastar client uses to carry
// the page signals, JSON-encoded, on GET requests.
const signalsParam = "datastar"

// filterSignals holds the date inputs bound on the dashboard page.
type filterSignals struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// resolve mirrors the API handlers: an explicit range means a recompute,
// otherwise the current snapshot is served. The dashboard sends the range
// as datastar signals, direct calls may use plain start/end parameters.
func (h *SSEHandlers) resolve(r *http.Request) (models.Summary, error) {
	start, end, err := parseRange(r)
	if err != nil {
		return models.Summary{}, err
	}
	if start.IsZero() && end.IsZero() {
		start, end, err = parseSignalRange(r)
		if err != nil {
			return models.Summary{}, err
		}
	}
	if start.IsZero() && end.IsZero() {
		return h.reports.Summary(), nil
	}
	return h.reports.Recompute(start, end)
}

// parseSignalRange reads the start/end signals datastar attaches to the
// request. Absent or empty signals come back as zero times.
func parseSignalRange(r *http.Request) (time.Time, time.Time, error) {
	var start, end time.Time

	if r.URL.Query().Get(signalsParam) == "" {
		return start, end, nil
	}

	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return start, end, errors.BadRequest("invalid filter signals: " + err.Error())
	}

	if signals.Start != "" {
		t, err := time.Parse(time.DateOnly, signals.Start)
		if err != nil {
			return start, end, errors.BadRequest("invalid start date: " + signals.Start)
		}
		start = t
	}
	if signals.End != "" {
		t, err := time.Parse(time.DateOnly, signals.End)
		if err != nil {
			return start, end, errors.BadRequest("invalid end date: " + signals.End)
		}
		end = t
	}
	return start, end, nil
}

func renderCategoryTable(id string, rows []models.CategorySales, colors []string) (string, error) {
	var buf strings.Builder
	err := categoryTableTemplate.Execute(&buf, struct {
		ID     string
		Rows   []models.CategorySales
		Colors []string
	}{ID: id, Rows: rows, Colors: colors})
	return buf.String(), err
}

func renderCityTable(rows []models.CityCustomers) (string, error) {
	if len(rows) > maxCityRows {
		rows = rows[:maxCityRows]
	}
	var buf strings.Builder
	err := cityTableTemplate.Execute(&buf, struct{ Rows []models.CityCustomers }{Rows: rows})
	return buf.String(), err
}

func renderRFMTable(id string, rows []models.CustomerRFM) (string, error) {
	if len(rows) > maxRFMRows {
		rows = rows[:maxRFMRows]
	}
	var buf strings.Builder
	err := rfmTableTemplate.Execute(&buf, struct {
		ID   string
		Rows []models.CustomerRFM
	}{ID: id, Rows: rows})
	return buf.String(), err
}

func metricsFragments(summary models.Summary) []string {
	return []string{
		fmt.Sprintf(`<div class="value" id="metric-orders">%d</div>`, summary.TotalOrders),
		fmt.Sprintf(`<div class="value" id="metric-revenue">%s</div>`, ui.FormatCurrency(summary.TotalRevenue)),
	}
}

// patchError replaces the failing section's content with the rejection
// message so the rest of the page keeps its last good state.
func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, target string, err error) {
	h.logger.Warn("sse filter rejected", "target", target, "error", err)
	sse.PatchElements(fmt.Sprintf(`<div id="%s">⚠ %s</div>`, target, template.HTMLEscapeString(err.Error())))
}

func (h *SSEHandlers) HandleDailyOrders(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.resolve(r)
	if err != nil {
		h.patchError(sse, "daily-content", err)
		return
	}

	h.patchDaily(sse, summary)
	flush(w)
}

func (h *SSEHandlers) patchDaily(sse *datastar.ServerSentEventGenerator, summary models.Summary) {
	for _, fragment := range metricsFragments(summary) {
		sse.PatchElements(fragment)
	}

	signals, err := json.Marshal(map[string]any{
		"dailyData": analytics.DenseDailyOrders(summary.DailyOrders),
	})
	if err != nil {
		h.logger.Error("marshal daily signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
}

func (h *SSEHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.resolve(r)
	if err != nil {
		h.patchError(sse, "top-categories-content", err)
		return
	}

	h.patchCategories(sse, summary)
	flush(w)
}

func (h *SSEHandlers) patchCategories(sse *datastar.ServerSentEventGenerator, summary models.Summary) {
	top := analytics.TopCategories(summary.CategorySales, topN)
	bottom := analytics.BottomCategories(summary.CategorySales, topN)

	topColors := analytics.HighlightMax(categoryOrders(top))
	bottomColors := analytics.HighlightMin(categoryOrders(bottom))

	topHTML, err := renderCategoryTable("top-categories-content", top, topColors)
	if err != nil {
		h.logger.Error("render top categories", "error", err)
		return
	}
	bottomHTML, err := renderCategoryTable("bottom-categories-content", bottom, bottomColors)
	if err != nil {
		h.logger.Error("render bottom categories", "error", err)
		return
	}

	sse.PatchElements(topHTML)
	sse.PatchElements(bottomHTML)

	signals, err := json.Marshal(map[string]any{
		"topCategories":    top,
		"topColors":        topColors,
		"bottomCategories": bottom,
		"bottomColors":     bottomColors,
	})
	if err != nil {
		h.logger.Error("marshal category signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
}

func (h *SSEHandlers) HandleCustomerCities(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.resolve(r)
	if err != nil {
		h.patchError(sse, "cities-content", err)
		return
	}

	h.patchCities(sse, summary)
	flush(w)
}

func (h *SSEHandlers) patchCities(sse *datastar.ServerSentEventGenerator, summary models.Summary) {
	topCities := analytics.TopCities(summary.CityCustomers, topN)
	cityColors := analytics.HighlightMax(cityCustomers(topCities))

	html, err := renderCityTable(summary.CityCustomers)
	if err != nil {
		h.logger.Error("render city table", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"topCities":  topCities,
		"cityColors": cityColors,
		"cityPoints": summary.CityCustomers,
	})
	if err != nil {
		h.logger.Error("marshal city signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
}

func (h *SSEHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.resolve(r)
	if err != nil {
		h.patchError(sse, "rfm-content", err)
		return
	}

	h.patchRFM(sse, summary)
	flush(w)
}

func (h *SSEHandlers) patchRFM(sse *datastar.ServerSentEventGenerator, summary models.Summary) {
	sections := []struct {
		id   string
		rows []models.CustomerRFM
	}{
		{"rfm-recency-content", analytics.TopByRecency(summary.RFM, topN)},
		{"rfm-frequency-content", analytics.TopByFrequency(summary.RFM, topN)},
		{"rfm-monetary-content", analytics.TopByMonetary(summary.RFM, topN)},
		{"rfm-content", summary.RFM},
	}

	for _, section := range sections {
		html, err := renderRFMTable(section.id, section.rows)
		if err != nil {
			h.logger.Error("render rfm table", "id", section.id, "error", err)
			return
		}
		sse.PatchElements(html)
	}
}

// HandleRefreshAll is the filter-change event: one recompute, then every
// dashboard section is patched from the same summary.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.resolve(r)
	if err != nil {
		h.patchError(sse, "daily-content", err)
		return
	}

	h.patchDaily(sse, summary)
	h.patchCategories(sse, summary)
	h.patchCities(sse, summary)
	h.patchRFM(sse, summary)
	flush(w)
}

func categoryOrders(rows []models.CategorySales) []int {
	values := make([]int, len(rows))
	for i, row := range rows {
		values[i] = row.TotalOrder
	}
	return values
}

func cityCustomers(rows []models.CityCustomers) []int {
	values := make([]int, len(rows))
	for i, row := range rows {
		values[i] = row.TotalCustomer
	}
	return values
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
