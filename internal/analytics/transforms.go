// Package analytics holds the pure aggregation transforms that turn row-level
// order records into the four derived report tables. Every function takes an
// immutable row slice and allocates fresh output; nothing here carries state
// between calls.
package analytics

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

// ReferenceInstant is the frozen analysis date recency is measured against:
// the dataset's last known activity instant, not wall-clock time.
var ReferenceInstant = time.Date(2018, time.September, 3, 9, 6, 57, 0, time.UTC)

// FilterByDateRange returns the rows whose purchase date falls inside the
// inclusive [start, end] range, compared at day granularity. Callers must
// validate start <= end before filtering.
func FilterByDateRange(rows []models.Order, start, end time.Time) []models.Order {
	startDay := dateOnly(start)
	endDay := dateOnly(end)

	filtered := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		day := dateOnly(row.PurchasedAt)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// DailyOrders buckets rows by calendar day of purchase and emits, per day
// present, the distinct order count and price sum, ascending by date.
func DailyOrders(rows []models.Order) []models.DailyOrder {
	type bucket struct {
		orders  map[string]struct{}
		revenue float64
	}

	buckets := make(map[string]*bucket)
	for _, row := range rows {
		day := row.PurchasedAt.Format(time.DateOnly)
		b := buckets[day]
		if b == nil {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[day] = b
		}
		b.orders[row.OrderID] = struct{}{}
		b.revenue += finiteOrZero(row.Price)
	}

	result := make([]models.DailyOrder, 0, len(buckets))
	for day, b := range buckets {
		result = append(result, models.DailyOrder{
			OrderDate:  day,
			OrderCount: len(b.orders),
			Revenue:    b.revenue,
		})
	}

	slices.SortFunc(result, func(a, b models.DailyOrder) int {
		if a.OrderDate < b.OrderDate {
			return -1
		}
		if a.OrderDate > b.OrderDate {
			return 1
		}
		return 0
	})
	return result
}

// DenseDailyOrders zero-fills the gaps between the first and last day so the
// daily series plots as a continuous line. Empty input stays empty.
func DenseDailyOrders(daily []models.DailyOrder) []models.DailyOrder {
	if len(daily) < 2 {
		return daily
	}

	first, err1 := time.Parse(time.DateOnly, daily[0].OrderDate)
	last, err2 := time.Parse(time.DateOnly, daily[len(daily)-1].OrderDate)
	if err1 != nil || err2 != nil {
		return daily
	}

	byDay := make(map[string]models.DailyOrder, len(daily))
	for _, d := range daily {
		byDay[d.OrderDate] = d
	}

	dense := make([]models.DailyOrder, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		if d, ok := byDay[key]; ok {
			dense = append(dense, d)
		} else {
			dense = append(dense, models.DailyOrder{OrderDate: key})
		}
	}
	return dense
}

// CustomerCities groups rows by customer city: mean latitude and longitude
// over rows that carry finite coordinates, plus the distinct customer count.
// A row without coordinates still counts its customer. Sorted descending by
// customer count, ties kept in first-encounter order.
func CustomerCities(rows []models.Order) []models.CityCustomers {
	type cityGroup struct {
		order     int
		latSum    float64
		lngSum    float64
		geoCount  int
		customers map[string]struct{}
	}

	groups := make(map[string]*cityGroup)
	for _, row := range rows {
		g := groups[row.CustomerCity]
		if g == nil {
			g = &cityGroup{order: len(groups), customers: make(map[string]struct{})}
			groups[row.CustomerCity] = g
		}
		g.customers[row.CustomerUniqueID] = struct{}{}
		if row.HasGeo && isFinite(row.GeoLat) && isFinite(row.GeoLng) {
			g.latSum += row.GeoLat
			g.lngSum += row.GeoLng
			g.geoCount++
		}
	}

	type entry struct {
		row   models.CityCustomers
		order int
	}

	entries := make([]entry, 0, len(groups))
	for city, g := range groups {
		row := models.CityCustomers{
			City:          city,
			TotalCustomer: len(g.customers),
		}
		if g.geoCount > 0 {
			row.GeoLat = g.latSum / float64(g.geoCount)
			row.GeoLng = g.lngSum / float64(g.geoCount)
		}
		entries = append(entries, entry{row: row, order: g.order})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if a.row.TotalCustomer != b.row.TotalCustomer {
			return b.row.TotalCustomer - a.row.TotalCustomer
		}
		return a.order - b.order
	})

	result := make([]models.CityCustomers, len(entries))
	for i, e := range entries {
		result[i] = e.row
	}
	return result
}

// CategorySales groups rows by product category: distinct products, distinct
// orders, price and freight sums. Sorted descending by distinct order count,
// ties kept in first-encounter order.
func CategorySales(rows []models.Order) []models.CategorySales {
	type categoryGroup struct {
		order    int
		products map[string]struct{}
		orders   map[string]struct{}
		price    float64
		freight  float64
	}

	groups := make(map[string]*categoryGroup)
	for _, row := range rows {
		g := groups[row.ProductCategory]
		if g == nil {
			g = &categoryGroup{
				order:    len(groups),
				products: make(map[string]struct{}),
				orders:   make(map[string]struct{}),
			}
			groups[row.ProductCategory] = g
		}
		g.products[row.ProductID] = struct{}{}
		g.orders[row.OrderID] = struct{}{}
		g.price += finiteOrZero(row.Price)
		g.freight += finiteOrZero(row.FreightValue)
	}

	type entry struct {
		row   models.CategorySales
		order int
	}

	entries := make([]entry, 0, len(groups))
	for category, g := range groups {
		entries = append(entries, entry{
			row: models.CategorySales{
				Category:     category,
				TotalProduct: len(g.products),
				TotalOrder:   len(g.orders),
				TotalPrice:   g.price,
				TotalFreight: g.freight,
			},
			order: g.order,
		})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if a.row.TotalOrder != b.row.TotalOrder {
			return b.row.TotalOrder - a.row.TotalOrder
		}
		return a.order - b.order
	})

	result := make([]models.CategorySales, len(entries))
	for i, e := range entries {
		result[i] = e.row
	}
	return result
}

// RFM scores each customer present in the rows: recency in whole days from
// the reference instant back to the latest purchase (floored), frequency as
// distinct orders, monetary as the price sum. Output is ordered ascending by
// customer id and labels C0..C(n-1) follow that order, so the same filtered
// set always produces the same table.
func RFM(rows []models.Order, reference time.Time) []models.CustomerRFM {
	type customerGroup struct {
		latest   time.Time
		orders   map[string]struct{}
		monetary float64
	}

	groups := make(map[string]*customerGroup)
	for _, row := range rows {
		g := groups[row.CustomerUniqueID]
		if g == nil {
			g = &customerGroup{orders: make(map[string]struct{})}
			groups[row.CustomerUniqueID] = g
		}
		if row.PurchasedAt.After(g.latest) {
			g.latest = row.PurchasedAt
		}
		g.orders[row.OrderID] = struct{}{}
		g.monetary += finiteOrZero(row.Price)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]models.CustomerRFM, 0, len(ids))
	for i, id := range ids {
		g := groups[id]
		recency := int(reference.Sub(g.latest).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		result = append(result, models.CustomerRFM{
			CustomerUniqueID: id,
			LabelID:          fmt.Sprintf("C%d", i),
			Recency:          recency,
			Frequency:        len(g.orders),
			Monetary:         g.monetary,
		})
	}
	return result
}

// Summarize runs the four transforms over an already filtered row set and
// derives the two scalar metrics. This is the single recompute entry point:
// stateless, callable repeatedly, fresh tables every time.
func Summarize(rows []models.Order, reference time.Time) models.Summary {
	daily := DailyOrders(rows)

	totalOrders := 0
	totalRevenue := 0.0
	for _, d := range daily {
		totalOrders += d.OrderCount
		totalRevenue += d.Revenue
	}

	return models.Summary{
		DailyOrders:   daily,
		CityCustomers: CustomerCities(rows),
		CategorySales: CategorySales(rows),
		RFM:           RFM(rows, reference),
		TotalOrders:   totalOrders,
		TotalRevenue:  totalRevenue,
		ComputedAt:    time.Now(),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Non-finite values are excluded from sums instead of poisoning the cell.
func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
