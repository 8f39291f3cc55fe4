package health

import (
	"bytes"
	"fmt"
	"html/template"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"uptime": func(s int64) string {
		return fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60)
	},
	"pill": func(status string) string {
		if status == "connected" {
			return "ok"
		}
		return "err"
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Ride Circles · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    :root { --primary: #2563EB; --dark: #1F2937; --muted: #6B7280; --bg: #F3F4F6; }
    body { background: var(--bg); color: var(--dark); font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; font-weight: 900; letter-spacing: -1px; margin: 0 0 8px 0; }
    h1.issue { color: #B91C1C; }
    .subtext { color: var(--muted); font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: #fff; border-radius: 16px; padding: 28px; box-shadow: 0 10px 30px -12px rgba(0,0,0,0.1); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #9CA3AF; margin-bottom: 16px; }
    .big { font-size: 32px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; border-bottom: 1px solid #F3F4F6; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; }
    .ok { background: rgba(37, 99, 235, 0.08); color: var(--primary); }
    .err { background: rgba(239, 68, 68, 0.08); color: #EF4444; }
    .footer { margin-top: 16px; font-family: monospace; font-size: 13px; color: var(--muted); }
    a { color: var(--primary); font-weight: 700; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    {{if eq .Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <p class="subtext">API performance, dependencies and background jobs. Refreshes every 30 seconds.</p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span>{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span>{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success Rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg Latency</span><span>{{.Traffic.AvgResponseTime}}ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{uptime .Runtime.UptimeSeconds}}</div>
        <div class="row"><span>Heap Used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Go</span><span>{{.Runtime.GoVersion}}</span></div>
        <div class="row"><span>Platform</span><span>{{.Runtime.Platform}}</span></div>
      </div>
      <div class="card">
        <div class="label">Connectivity</div>
        {{range $name, $dep := .Dependencies}}<div class="row"><span>{{$name}}</span><span class="pill {{pill $dep.Status}}">{{$dep.Status}}</span></div>
        {{end}}
        {{with .Scheduler}}<div class="row"><span>Ride closer</span><span>{{index . "time"}}</span></div>{{end}}
      </div>
    </div>
    <div class="footer">
      {{with .Traffic.LastRequest}}Last inbound: {{index . "method"}} {{index . "path"}} · {{end}}<a href="/health/errors">View error log</a>
    </div>
  </div>
</body>
</html>`))

// RenderDashboardHTML renders the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, health); err != nil {
		return "<h1>Ride Circles API</h1><p>status: " + template.HTMLEscapeString(health.Status) + "</p>"
	}
	return buf.String()
}
