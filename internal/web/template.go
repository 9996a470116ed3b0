package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/inverter-ctl/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"remaining": func(ms int64) string {
		if ms <= 0 {
			return "—"
		}
		s := ms / 1000
		return fmt.Sprintf("%dm %02ds", s/60, s%60)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Inverter Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.running { color: green; font-weight: bold; }
.standby { color: #888; }
.safe { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; padding: 4px 10px; margin: 0 4px 4px 0; cursor: pointer; }
button.active { background: #cfc; }
</style>
</head>
<body>
<h1>Inverter Control</h1>

<h2>State</h2>
<table>
<tr><th>State</th><td class="{{if eq .State "RUNNING"}}running{{else if eq .State "STANDBY"}}standby{{else}}safe{{end}}">{{stateOrUnknown .State}}</td></tr>
<tr><th>Mode</th><td>{{.ModeName}}</td></tr>
<tr><th>Frequency</th><td>{{if .FrequencyHz}}{{.FrequencyHz}} Hz{{else}}—{{end}}</td></tr>
<tr><th>Armed</th><td>{{if .Armed}}yes{{else}}no{{end}}</td></tr>
<tr><th>Interlock input</th><td>{{if .InputLevel}}asserted{{else}}clear{{end}}</td></tr>
<tr><th>Runtime limit</th><td>{{if .LimitEnabled}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>Remaining</th><td>{{remaining .RemainingMs}}</td></tr>
</table>

<h2>Control</h2>
<p>
<button onclick="post('/api/power/{{if eq .State "SAFE"}}on{{else}}off{{end}}')">Power {{if eq .State "SAFE"}}ON{{else}}OFF{{end}}</button>
<button onclick="post('/api/limit?enabled={{if .LimitEnabled}}false{{else}}true{{end}}')">{{if .LimitEnabled}}Disable{{else}}Enable{{end}} limit</button>
</p>
<p>
{{$active := .ModeIndex}}{{range .Modes}}<button {{if eq .Index $active}}class="active" {{end}}onclick="post('/api/mode/{{.Index}}')">{{.Name}}{{if .FrequencyHz}} ({{.FrequencyHz}} Hz){{end}}</button>{{end}}
</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Power cycles</th><td>{{.Counts.PowerCycles}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Interlock trips</th><td>{{.Counts.InterlockTrips}}</td></tr>
<tr><th>Auto shutoffs</th><td>{{.Counts.AutoShutoffs}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Profile</th><td>{{.Config.Profile}} ({{.Config.Kind}})</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Output pin</th><td>GPIO{{.Config.OutPin}}</td></tr>
<tr><th>Input pin</th><td>GPIO{{.Config.InPin}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
function post(path) {
  fetch(path, { method: "POST" }).then(function() {
    window.location.reload();
  });
}
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
