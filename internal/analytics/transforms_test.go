package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Three orders: A and B by customer X in SP (toys), C by customer Y in RJ
// (books). Used across the table tests.
func sampleRows() []models.Order {
	return []models.Order{
		{
			OrderID:          "A",
			CustomerUniqueID: "X",
			CustomerCity:     "SP",
			ProductID:        "P1",
			ProductCategory:  "toys",
			Price:            100,
			FreightValue:     10,
			GeoLat:           -23.55,
			GeoLng:           -46.63,
			HasGeo:           true,
			PurchasedAt:      time.Date(2018, 1, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			OrderID:          "B",
			CustomerUniqueID: "X",
			CustomerCity:     "SP",
			ProductID:        "P1",
			ProductCategory:  "toys",
			Price:            50,
			FreightValue:     5,
			GeoLat:           -23.57,
			GeoLng:           -46.65,
			HasGeo:           true,
			PurchasedAt:      time.Date(2018, 1, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			OrderID:          "C",
			CustomerUniqueID: "Y",
			CustomerCity:     "RJ",
			ProductID:        "P2",
			ProductCategory:  "books",
			Price:            200,
			FreightValue:     20,
			PurchasedAt:      time.Date(2018, 1, 1, 23, 59, 0, 0, time.UTC),
		},
	}
}

func TestFilterByDateRange(t *testing.T) {
	rows := sampleRows()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"full range", day(2018, 1, 1), day(2018, 1, 2), 3},
		{"first day only", day(2018, 1, 1), day(2018, 1, 1), 2},
		{"second day only", day(2018, 1, 2), day(2018, 1, 2), 1},
		{"outside range", day(2018, 2, 1), day(2018, 2, 28), 0},
		{"single day covers full timestamps", day(2018, 1, 1), day(2018, 1, 1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByDateRange(rows, tt.start, tt.end)
			if len(got) != tt.want {
				t.Errorf("FilterByDateRange() returned %d rows, want %d", len(got), tt.want)
			}
			for _, row := range got {
				d := dateOnly(row.PurchasedAt)
				if d.Before(dateOnly(tt.start)) || d.After(dateOnly(tt.end)) {
					t.Errorf("row %s purchase date %s outside [%s, %s]",
						row.OrderID, d, tt.start, tt.end)
				}
			}
		})
	}
}

func TestFilterByDateRange_DoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	FilterByDateRange(rows, day(2018, 1, 1), day(2018, 1, 1))
	if rows[0].OrderID != "A" || rows[2].OrderID != "C" {
		t.Error("input rows were mutated")
	}
}

func TestDailyOrders(t *testing.T) {
	daily := DailyOrders(sampleRows())

	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}

	if daily[0].OrderDate != "2018-01-01" || daily[0].OrderCount != 2 || daily[0].Revenue != 300 {
		t.Errorf("day 1 = %+v, want 2018-01-01 count=2 revenue=300", daily[0])
	}
	if daily[1].OrderDate != "2018-01-02" || daily[1].OrderCount != 1 || daily[1].Revenue != 50 {
		t.Errorf("day 2 = %+v, want 2018-01-02 count=1 revenue=50", daily[1])
	}
}

func TestDailyOrders_CountsDistinctOrders(t *testing.T) {
	// Two items of the same order on the same day count once.
	rows := []models.Order{
		{OrderID: "A", CustomerUniqueID: "X", Price: 30, PurchasedAt: day(2018, 3, 1)},
		{OrderID: "A", CustomerUniqueID: "X", Price: 70, PurchasedAt: day(2018, 3, 1)},
	}

	daily := DailyOrders(rows)
	if len(daily) != 1 {
		t.Fatalf("expected 1 day, got %d", len(daily))
	}
	if daily[0].OrderCount != 1 {
		t.Errorf("order count = %d, want 1 (distinct order_id)", daily[0].OrderCount)
	}
	if daily[0].Revenue != 100 {
		t.Errorf("revenue = %v, want 100", daily[0].Revenue)
	}
}

func TestDailyOrders_Empty(t *testing.T) {
	if got := DailyOrders(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestDailyOrders_TotalsMatchFilteredSet(t *testing.T) {
	rows := sampleRows()
	daily := DailyOrders(rows)

	orders := make(map[string]struct{})
	var revenue float64
	for _, row := range rows {
		orders[row.OrderID] = struct{}{}
		revenue += row.Price
	}

	gotOrders := 0
	var gotRevenue float64
	for _, d := range daily {
		gotOrders += d.OrderCount
		gotRevenue += d.Revenue
	}

	if gotOrders != len(orders) {
		t.Errorf("sum of daily order counts = %d, want %d", gotOrders, len(orders))
	}
	if math.Abs(gotRevenue-revenue) > 1e-9 {
		t.Errorf("sum of daily revenue = %v, want %v", gotRevenue, revenue)
	}
}

func TestDenseDailyOrders(t *testing.T) {
	daily := []models.DailyOrder{
		{OrderDate: "2018-01-01", OrderCount: 2, Revenue: 300},
		{OrderDate: "2018-01-04", OrderCount: 1, Revenue: 50},
	}

	dense := DenseDailyOrders(daily)
	if len(dense) != 4 {
		t.Fatalf("expected 4 days, got %d", len(dense))
	}
	if dense[1].OrderDate != "2018-01-02" || dense[1].OrderCount != 0 || dense[1].Revenue != 0 {
		t.Errorf("gap day = %+v, want zero-filled 2018-01-02", dense[1])
	}
	if dense[3].OrderDate != "2018-01-04" || dense[3].OrderCount != 1 {
		t.Errorf("last day = %+v, want 2018-01-04 count=1", dense[3])
	}
}

func TestCustomerCities(t *testing.T) {
	cities := CustomerCities(sampleRows())

	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(cities))
	}

	byCity := make(map[string]models.CityCustomers)
	for _, c := range cities {
		byCity[c.City] = c
	}

	sp := byCity["SP"]
	if sp.TotalCustomer != 1 {
		t.Errorf("SP total_customer = %d, want 1 (customer X only)", sp.TotalCustomer)
	}
	wantLat := (-23.55 + -23.57) / 2
	if math.Abs(sp.GeoLat-wantLat) > 1e-9 {
		t.Errorf("SP mean lat = %v, want %v", sp.GeoLat, wantLat)
	}

	rj := byCity["RJ"]
	if rj.TotalCustomer != 1 {
		t.Errorf("RJ total_customer = %d, want 1", rj.TotalCustomer)
	}
	// Row C has no geolocation: the customer still counts, the mean has no
	// valid value.
	if rj.GeoLat != 0 || rj.GeoLng != 0 {
		t.Errorf("RJ coordinates = (%v, %v), want zero (no valid values)", rj.GeoLat, rj.GeoLng)
	}
}

func TestCustomerCities_CustomerTotalsMatchDistinct(t *testing.T) {
	rows := sampleRows()
	cities := CustomerCities(rows)

	distinct := make(map[string]struct{})
	for _, row := range rows {
		distinct[row.CustomerUniqueID] = struct{}{}
	}

	sum := 0
	for _, c := range cities {
		sum += c.TotalCustomer
	}
	if sum != len(distinct) {
		t.Errorf("sum of city totals = %d, want %d distinct customers", sum, len(distinct))
	}
}

func TestCustomerCities_SortAndTieBreak(t *testing.T) {
	rows := []models.Order{
		{OrderID: "1", CustomerUniqueID: "a", CustomerCity: "recife", PurchasedAt: day(2018, 1, 1)},
		{OrderID: "2", CustomerUniqueID: "b", CustomerCity: "natal", PurchasedAt: day(2018, 1, 1)},
		{OrderID: "3", CustomerUniqueID: "c", CustomerCity: "salvador", PurchasedAt: day(2018, 1, 1)},
		{OrderID: "4", CustomerUniqueID: "d", CustomerCity: "salvador", PurchasedAt: day(2018, 1, 1)},
	}

	first := CustomerCities(rows)
	second := CustomerCities(rows)

	if first[0].City != "salvador" {
		t.Errorf("first city = %s, want salvador (2 customers)", first[0].City)
	}
	// recife and natal tie with one customer each; encounter order wins.
	if first[1].City != "recife" || first[2].City != "natal" {
		t.Errorf("tie order = [%s, %s], want [recife, natal]", first[1].City, first[2].City)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCategorySales(t *testing.T) {
	categories := CategorySales(sampleRows())

	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}

	// toys has 2 distinct orders, books 1: toys sorts first.
	if categories[0].Category != "toys" {
		t.Errorf("first category = %s, want toys", categories[0].Category)
	}
	toys := categories[0]
	if toys.TotalOrder != 2 || toys.TotalProduct != 1 || toys.TotalPrice != 150 || toys.TotalFreight != 15 {
		t.Errorf("toys = %+v, want orders=2 products=1 price=150 freight=15", toys)
	}

	books := categories[1]
	if books.TotalOrder != 1 || books.TotalPrice != 200 {
		t.Errorf("books = %+v, want orders=1 price=200", books)
	}
}

func TestCategorySales_Deterministic(t *testing.T) {
	rows := []models.Order{
		{OrderID: "1", ProductID: "p1", ProductCategory: "toys", PurchasedAt: day(2018, 1, 1)},
		{OrderID: "2", ProductID: "p2", ProductCategory: "books", PurchasedAt: day(2018, 1, 1)},
		{OrderID: "3", ProductID: "p3", ProductCategory: "garden", PurchasedAt: day(2018, 1, 1)},
	}

	first := CategorySales(rows)
	for run := 0; run < 10; run++ {
		again := CategorySales(rows)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d row %d differs: %+v vs %+v", run, i, first[i], again[i])
			}
		}
	}
}

func TestRFM(t *testing.T) {
	// Reference instant 2018-09-03 09:06:57; single order on 2018-08-01
	// means 33 whole days of recency.
	rows := []models.Order{
		{OrderID: "A", CustomerUniqueID: "X", Price: 120, PurchasedAt: day(2018, 8, 1)},
	}

	rfm := RFM(rows, ReferenceInstant)
	if len(rfm) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(rfm))
	}

	got := rfm[0]
	if got.Recency != 33 {
		t.Errorf("recency = %d, want 33", got.Recency)
	}
	if got.Frequency != 1 {
		t.Errorf("frequency = %d, want 1", got.Frequency)
	}
	if got.Monetary != 120 {
		t.Errorf("monetary = %v, want 120", got.Monetary)
	}
	if got.LabelID != "C0" {
		t.Errorf("label = %s, want C0", got.LabelID)
	}
}

func TestRFM_GroupsByCustomer(t *testing.T) {
	rfm := RFM(sampleRows(), ReferenceInstant)

	if len(rfm) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(rfm))
	}

	// Output is ordered by customer id, labels follow position.
	if rfm[0].CustomerUniqueID != "X" || rfm[1].CustomerUniqueID != "Y" {
		t.Fatalf("order = [%s, %s], want [X, Y]", rfm[0].CustomerUniqueID, rfm[1].CustomerUniqueID)
	}
	if rfm[0].LabelID != "C0" || rfm[1].LabelID != "C1" {
		t.Errorf("labels = [%s, %s], want [C0, C1]", rfm[0].LabelID, rfm[1].LabelID)
	}

	x := rfm[0]
	if x.Frequency != 2 {
		t.Errorf("X frequency = %d, want 2", x.Frequency)
	}
	if x.Monetary != 150 {
		t.Errorf("X monetary = %v, want 150", x.Monetary)
	}
	// X's latest purchase is 2018-01-02 08:00; recency floors to whole days.
	wantRecency := int(ReferenceInstant.Sub(time.Date(2018, 1, 2, 8, 0, 0, 0, time.UTC)).Hours() / 24)
	if x.Recency != wantRecency {
		t.Errorf("X recency = %d, want %d", x.Recency, wantRecency)
	}

	for _, c := range rfm {
		if c.Recency < 0 {
			t.Errorf("customer %s recency = %d, want non-negative", c.CustomerUniqueID, c.Recency)
		}
		if c.Frequency < 1 {
			t.Errorf("customer %s frequency = %d, want >= 1", c.CustomerUniqueID, c.Frequency)
		}
		if c.Monetary <= 0 {
			t.Errorf("customer %s monetary = %v, want > 0", c.CustomerUniqueID, c.Monetary)
		}
	}
}

func TestRFM_FutureOrderClampsToZero(t *testing.T) {
	rows := []models.Order{
		{OrderID: "A", CustomerUniqueID: "X", Price: 10, PurchasedAt: ReferenceInstant.AddDate(0, 0, 5)},
	}

	rfm := RFM(rows, ReferenceInstant)
	if rfm[0].Recency != 0 {
		t.Errorf("recency = %d, want clamped to 0", rfm[0].Recency)
	}
}

func TestRFM_Empty(t *testing.T) {
	if got := RFM(nil, ReferenceInstant); len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleRows(), ReferenceInstant)

	if summary.TotalOrders != 3 {
		t.Errorf("total orders = %d, want 3", summary.TotalOrders)
	}
	if summary.TotalRevenue != 350 {
		t.Errorf("total revenue = %v, want 350", summary.TotalRevenue)
	}
	if len(summary.DailyOrders) != 2 || len(summary.CityCustomers) != 2 ||
		len(summary.CategorySales) != 2 || len(summary.RFM) != 2 {
		t.Errorf("table sizes = %d/%d/%d/%d, want 2/2/2/2",
			len(summary.DailyOrders), len(summary.CityCustomers),
			len(summary.CategorySales), len(summary.RFM))
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, ReferenceInstant)

	if summary.TotalOrders != 0 || summary.TotalRevenue != 0 {
		t.Errorf("metrics = %d/%v, want zero", summary.TotalOrders, summary.TotalRevenue)
	}
	if len(summary.DailyOrders) != 0 || len(summary.RFM) != 0 {
		t.Error("expected empty tables for empty input")
	}
}

func TestSummarize_IgnoresNonFiniteValues(t *testing.T) {
	rows := []models.Order{
		{OrderID: "A", CustomerUniqueID: "X", ProductCategory: "toys", Price: 100, PurchasedAt: day(2018, 1, 1)},
		{OrderID: "B", CustomerUniqueID: "X", ProductCategory: "toys", Price: math.NaN(), FreightValue: math.Inf(1), PurchasedAt: day(2018, 1, 1)},
	}

	summary := Summarize(rows, ReferenceInstant)

	if summary.TotalRevenue != 100 {
		t.Errorf("total revenue = %v, want 100 (NaN excluded)", summary.TotalRevenue)
	}
	if summary.CategorySales[0].TotalFreight != 0 {
		t.Errorf("freight = %v, want 0 (Inf excluded)", summary.CategorySales[0].TotalFreight)
	}
	if summary.RFM[0].Monetary != 100 {
		t.Errorf("monetary = %v, want 100", summary.RFM[0].Monetary)
	}
}
