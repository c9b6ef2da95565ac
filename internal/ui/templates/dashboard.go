package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the single-page report shell. All data sections start
// empty and are patched in over SSE by /sse/refresh-all, which also runs
// whenever the date filter changes.
func Dashboard(minDate, maxDate string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, filterForm, minDate, maxDate, minDate, maxDate, minDate, maxDate); err != nil {
			return err
		}
		_, err := io.WriteString(w, pageBody)
		return err
	})
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Brazilian E-Commerce Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/plotly.js-dist-min@2/plotly.min.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f6f7f9; color: #1c1e21; }
header { background: #1C325B; color: #fff; padding: 1rem 2rem; }
main { padding: 1rem 2rem; max-width: 1200px; margin: 0 auto; }
section { background: #fff; border-radius: 8px; padding: 1rem; margin-bottom: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.metrics { display: flex; gap: 1rem; }
.metric { flex: 1; text-align: center; }
.metric .value { font-size: 1.6rem; font-weight: 700; }
.columns { display: flex; gap: 1rem; flex-wrap: wrap; }
.columns > div { flex: 1; min-width: 320px; }
.modern-table { width: 100%; border-collapse: collapse; font-size: .9rem; }
.modern-table th, .modern-table td { padding: .4rem .6rem; border-bottom: 1px solid #e3e6ea; text-align: left; }
.category-badge { background: #B3C8CF; border-radius: 4px; padding: .1rem .4rem; font-size: .8rem; }
.filter { display: flex; gap: .75rem; align-items: end; }
</style>
</head>
<body data-on-load="@get('/sse/refresh-all')">
<header><h1>Dashboard Report Brazilian E-Commerce Data</h1></header>
<main>
`

const filterForm = `<section class="filter" data-signals-start="'%s'" data-signals-end="'%s'">
<label>Start <input type="date" data-bind-start min="%s" max="%s" data-on-change="@get('/sse/refresh-all')"/></label>
<label>End <input type="date" data-bind-end min="%s" max="%s" data-on-change="@get('/sse/refresh-all')"/></label>
</section>
`

const pageBody = `<section>
<h2>Daily Orders</h2>
<div class="metrics">
<div class="metric"><div>Total orders</div><div class="value" id="metric-orders">0</div></div>
<div class="metric"><div>Total revenue</div><div class="value" id="metric-revenue">R$ 0,00</div></div>
</div>
<div id="daily-chart" data-signals-dailydata="[]"></div>
<div id="daily-content"></div>
</section>
<section>
<h2>Best &amp; Worst Performing Product</h2>
<div class="columns">
<div><div id="top-categories-chart"></div><div id="top-categories-content"></div></div>
<div><div id="bottom-categories-chart"></div><div id="bottom-categories-content"></div></div>
</div>
</section>
<section>
<h2>Customer Geography</h2>
<div id="cities-chart"></div>
<div id="cities-content"></div>
</section>
<section>
<h2>RFM Analysis</h2>
<div class="columns">
<div><h3>By Recency</h3><div id="rfm-recency-content"></div></div>
<div><h3>By Frequency</h3><div id="rfm-frequency-content"></div></div>
<div><h3>By Monetary</h3><div id="rfm-monetary-content"></div></div>
</div>
<div id="rfm-content"></div>
</section>
</main>
</body>
</html>
`
