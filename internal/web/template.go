package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sht1x-node/internal/status"
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
	"healthOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"fixed": func(places int, v float64) string {
		return fmt.Sprintf("%.*f", places, v)
	},
	"deref": func(v *float64) float64 { return *v },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SHT1x Node</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.fault { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>SHT1x Node{{if .Config.ClientID}} ({{.Config.ClientID}}){{end}}</h1>

<h2>Sensor</h2>
<table>
{{$h := healthOrUnknown (printf "%s" .Health)}}<tr><th>Health</th><td id="health" class="{{if eq $h "OK"}}ok{{else if eq $h "FAULT"}}fault{{else}}unknown{{end}}">{{$h}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
{{with .Last}}{{with .Sensor}}<tr><th>Temperature</th><td id="temperature">{{fixed 2 .TemperatureC}} &deg;C</td></tr>
<tr><th>Humidity</th><td id="humidity">{{fixed 1 .HumidityPct}} %</td></tr>
<tr><th>Dew point</th><td id="dew-point">{{if .DewPointC}}{{fixed 2 (deref .DewPointC)}} &deg;C{{else}}n/a{{end}}</td></tr>{{end}}
{{if .SensorError}}<tr><th>Last error</th><td class="fault">{{.SensorError}}</td></tr>{{end}}
<tr><th>Battery</th><td>{{if .PowerError}}{{.PowerError}}{{else}}{{fixed 3 .BatteryV}} V{{end}}</td></tr>
<tr><th>Solar</th><td>{{if .PowerError}}{{.PowerError}}{{else}}{{fixed 3 .SolarV}} V{{end}}</td></tr>
<tr><th>Sampled</th><td>{{.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{else}}<tr><th>Reading</th><td class="unknown">none yet</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Buffered}}<tr><th>Buffered</th><td>{{.Buffered}}</td></tr>{{end}}
{{if .Dropped}}<tr><th>Dropped</th><td>{{.Dropped}}</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Read Counts</h2>
<table>
<tr><th>Reads</th><td>{{.Counts.Reads}}</td></tr>
<tr><th>Failures</th><td>{{.Counts.Failures}}</td></tr>
<tr><th>Timeouts</th><td>{{.Counts.Timeouts}}</td></tr>
<tr><th>Ack failures</th><td>{{.Counts.AckFailures}}</td></tr>
<tr><th>I/O errors</th><td>{{.Counts.IOErrors}}</td></tr>
<tr><th>Ack mismatches</th><td>{{.Counts.AckMismatches}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.GPIOBackend}} clock={{.Config.PinClock}} data={{.Config.PinData}}</td></tr>
<tr><th>Ack check</th><td>{{if .Config.StrictAck}}strict{{else}}lenient{{end}}</td></tr>
<tr><th>Profile</th><td>{{if .Config.Profile}}{{.Config.Profile}}{{else}}built-in{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
