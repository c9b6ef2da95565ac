package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/errors"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	timestampLayout = "2006-01-02 15:04:05"
)

// requiredColumns must all be present in the CSV header. The loader indexes
// columns by name so the file's column order does not matter.
var requiredColumns = []string{
	"order_id",
	"customer_unique_id",
	"customer_city",
	"product_id",
	"product_category_name_english",
	"price",
	"freight_value",
	"geolocation_lat",
	"geolocation_lng",
	"order_purchase_timestamp",
	"order_approved_at",
	"order_delivered_carrier_date",
	"order_delivered_customer_date",
	"order_estimated_delivery_date",
	"shipping_limit_date",
}

// Dataset is the immutable in-memory order collection: loaded once at
// startup, read-only thereafter. Every aggregation takes it (or a filtered
// view of its rows) as input and never mutates it.
type Dataset struct {
	rows     []models.Order
	minDate  time.Time
	maxDate  time.Time
	skipped  int
	loadedAt time.Time
}

func (d *Dataset) Rows() []models.Order { return d.rows }

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) Skipped() int { return d.skipped }

func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Span returns the earliest and latest purchase timestamps in the dataset.
// Date filters must fall inside this span.
func (d *Dataset) Span() (time.Time, time.Time) { return d.minDate, d.maxDate }

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads and parses the order CSV into a Dataset. Rows with an
// unparseable purchase timestamp are skipped and counted; a missing file,
// missing required columns, or zero valid rows abort the load.
func (l *Loader) Load(ctx context.Context, filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Load(err, "open dataset file")
	}
	defer file.Close()

	start := time.Now()
	l.logger.Info("loading order dataset", "filename", filename)

	ds, err := l.parse(ctx, file)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset loaded",
		"rows", ds.Len(),
		"skipped", ds.Skipped(),
		"duration", time.Since(start))

	return ds, nil
}

func (l *Loader) parse(ctx context.Context, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Load(err, "read dataset header")
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	rows := make([]models.Order, 0, batchSize)
	skipped := 0

	batch := make([][]string, 0, batchSize)
	flush := func() error {
		parsed, bad, err := parseBatch(ctx, cols, batch)
		if err != nil {
			return err
		}
		rows = append(rows, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Load(err, "read dataset row")
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(rows) == 0 {
		return nil, errors.Load(nil, "no valid order rows in dataset")
	}

	minDate, maxDate := rows[0].PurchasedAt, rows[0].PurchasedAt
	for _, row := range rows[1:] {
		if row.PurchasedAt.Before(minDate) {
			minDate = row.PurchasedAt
		}
		if row.PurchasedAt.After(maxDate) {
			maxDate = row.PurchasedAt
		}
	}

	return &Dataset{
		rows:     rows,
		minDate:  minDate,
		maxDate:  maxDate,
		skipped:  skipped,
		loadedAt: time.Now(),
	}, nil
}

// parseBatch converts raw CSV records concurrently, writing each result to
// its original index so row order is preserved.
func parseBatch(ctx context.Context, cols map[string]int, batch [][]string) ([]models.Order, int, error) {
	parsed := make([]models.Order, len(batch))
	valid := make([]bool, len(batch))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, record := range batch {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			order, err := parseOrder(cols, record)
			if err != nil {
				return nil // skip malformed rows
			}
			parsed[i] = order
			valid[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.Order, 0, len(batch))
	bad := 0
	for i := range parsed {
		if valid[i] {
			out = append(out, parsed[i])
		} else {
			bad++
		}
	}
	return out, bad, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Load(nil, fmt.Sprintf("dataset missing required columns: %s", strings.Join(missing, ", ")))
	}

	return cols, nil
}

func parseOrder(cols map[string]int, record []string) (models.Order, error) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	purchasedAt, err := time.Parse(timestampLayout, field("order_purchase_timestamp"))
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		OrderID:          field("order_id"),
		CustomerUniqueID: field("customer_unique_id"),
		CustomerCity:     field("customer_city"),
		ProductID:        field("product_id"),
		ProductCategory:  field("product_category_name_english"),
		Price:            parseFloat(field("price")),
		FreightValue:     parseFloat(field("freight_value")),
		PurchasedAt:      purchasedAt,
		ApprovedAt:       parseOptionalTime(field("order_approved_at")),
		DeliveredCarrier: parseOptionalTime(field("order_delivered_carrier_date")),
		DeliveredAt:      parseOptionalTime(field("order_delivered_customer_date")),
		EstimatedAt:      parseOptionalTime(field("order_estimated_delivery_date")),
		ShippingLimit:    parseOptionalTime(field("shipping_limit_date")),
	}

	if order.OrderID == "" || order.CustomerUniqueID == "" {
		return models.Order{}, fmt.Errorf("missing order or customer id")
	}

	lat, latOK := parseGeo(field("geolocation_lat"))
	lng, lngOK := parseGeo(field("geolocation_lng"))
	if latOK && lngOK {
		order.GeoLat, order.GeoLng, order.HasGeo = lat, lng, true
	}

	return order, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

func parseGeo(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Lifecycle timestamps may be empty (undelivered orders). Zero time means
// absent.
func parseOptionalTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FromRows builds a Dataset directly from parsed rows. Used by tests and by
// callers that already hold typed rows.
func FromRows(rows []models.Order) *Dataset {
	ds := &Dataset{rows: rows, loadedAt: time.Now()}
	if len(rows) == 0 {
		return ds
	}
	ds.minDate, ds.maxDate = rows[0].PurchasedAt, rows[0].PurchasedAt
	for _, row := range rows[1:] {
		if row.PurchasedAt.Before(ds.minDate) {
			ds.minDate = row.PurchasedAt
		}
		if row.PurchasedAt.After(ds.maxDate) {
			ds.maxDate = row.PurchasedAt
		}
	}
	return ds
}
