package report

// ReportTemplate is the standalone HTML screening report. Styles are inline
// so the file renders the same in a browser and in the PDF converters.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  @page { margin: 12mm 10mm; }
  :root {
    --ink: #0f172a;
    --dim: #64748b;
    --rule: #cbd5e1;
    --band: #0b3d2e;
    --band-ink: #ecfdf5;
    --tint: #f1f5f9;
    --up: #15803d;
    --down: #b91c1c;
  }
  html { font-size: 14px; }
  body {
    margin: 0;
    font-family: "Helvetica Neue", Arial, sans-serif;
    color: var(--ink);
  }
  .band {
    background: var(--band);
    color: var(--band-ink);
    padding: 18px 28px 14px;
  }
  .band h1 { margin: 0; font-size: 1.6rem; letter-spacing: 0.02em; }
  .band .meta { margin-top: 4px; font-size: 0.85rem; opacity: 0.8; }
  main { padding: 16px 28px 8px; }
  h2 {
    font-size: 1.05rem;
    text-transform: uppercase;
    letter-spacing: 0.06em;
    color: var(--band);
    margin: 22px 0 8px;
  }
  .dim { color: var(--dim); }

  .cards { display: flex; gap: 10px; flex-wrap: wrap; }
  .card {
    flex: 1 1 120px;
    border: 1px solid var(--rule);
    border-top: 4px solid var(--band);
    padding: 8px 12px;
  }
  .card .k { font-size: 0.72rem; color: var(--dim); text-transform: uppercase; }
  .card .v { font-size: 1.25rem; font-weight: bold; }

  table { width: 100%; border-collapse: collapse; font-size: 0.82rem; }
  thead th {
    border-bottom: 2px solid var(--band);
    text-align: left;
    padding: 6px 6px;
    white-space: nowrap;
  }
  tbody td { padding: 5px 6px; border-bottom: 1px solid var(--rule); vertical-align: top; }
  tbody tr:nth-child(even) { background: var(--tint); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; white-space: nowrap; }
  .positive { color: var(--up); }
  .negative { color: var(--down); }
  .muted { color: var(--dim); }
  .tag {
    display: inline-block;
    margin: 1px 2px 1px 0;
    padding: 0 6px;
    border-radius: 9px;
    background: #dcfce7;
    color: var(--band);
    font-size: 0.72rem;
    white-space: nowrap;
  }
  .tag.warn { background: #fee2e2; color: var(--down); }

  .sectors td.bar span {
    display: inline-block;
    height: 10px;
    background: var(--band);
  }
  .chart svg { max-width: 100%; height: auto; }

  footer {
    margin: 24px 28px 12px;
    padding-top: 8px;
    border-top: 1px solid var(--rule);
    font-size: 0.75rem;
    color: var(--dim);
  }
  @media print {
    tr { page-break-inside: avoid; }
    .band { -webkit-print-color-adjust: exact; print-color-adjust: exact; }
  }
</style>
</head>
<body>

<div class="band">
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Style}} style &middot; {{.GeneratedAt}} &middot; {{.Author}}</div>
</div>

<main>
<div class="cards">
  <div class="card"><div class="k">Screened</div><div class="v">{{.Screened}}</div></div>
  <div class="card"><div class="k">Passed filters</div><div class="v">{{.Passed}}</div></div>
  <div class="card"><div class="k">Ranked</div><div class="v">{{len .Rows}}</div></div>
  <div class="card"><div class="k">Avg upside</div><div class="v">{{.MeanUpside}}</div></div>
  <div class="card"><div class="k">Avg score</div><div class="v">{{.MeanScore}}</div></div>
  {{if .TopTicker}}<div class="card"><div class="k">Top pick</div><div class="v">{{.TopTicker}}</div></div>{{end}}
</div>

<h2>Ranked candidates</h2>
{{if .Rows}}
<table>
  <thead>
    <tr>
      <th>#</th><th>Ticker</th><th>Company</th><th>Price</th><th>Target</th><th>Upside %</th>
      <th>Rating</th><th>Analysts</th><th>Score</th><th>Signal</th><th>Mkt Cap</th><th>Sector</th>
    </tr>
  </thead>
  <tbody>
  {{range .Rows}}
  <tr>
    <td class="num">{{.Rank}}</td>
    <td><strong>{{.Ticker}}</strong></td>
    <td>{{.Company}}</td>
    <td class="num">{{.Price}}</td>
    <td class="num">{{.Target}}</td>
    <td class="num {{.UpsideClass}}">{{.Upside}}</td>
    <td>{{.Rating}}</td>
    <td class="num">{{.Analysts}}</td>
    <td class="num"><strong>{{.Score}}</strong></td>
    <td>{{range .Signals}}<span class="tag{{if .Warn}} warn{{end}}">{{.Label}}</span>{{else}}<span class="muted">{{$.Placeholder}}</span>{{end}}</td>
    <td class="num">{{.MarketCap}}</td>
    <td>{{.Sector}}</td>
  </tr>
  {{end}}
  </tbody>
</table>

<h2>Composite score</h2>
<div class="chart">{{.ScoreChart}}</div>

<h2>Sector mix</h2>
<table class="sectors">
  <tbody>
  {{range .Sectors}}
  <tr>
    <td>{{.Name}}</td>
    <td class="num">{{.Count}}</td>
    <td class="bar"><span style="width: {{.Width}}px"></span></td>
  </tr>
  {{end}}
  </tbody>
</table>
{{else}}
<p class="muted">No stocks matched the screening criteria.</p>
{{end}}
</main>

<footer>
  Generated by {{.Author}} on {{.GeneratedAt}}. Scores combine analyst targets, ratings and
  fundamentals reported by the data provider. For research only; not investment advice.
</footer>

</body>
</html>
`
