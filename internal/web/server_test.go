package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/inverter-ctl/internal/logic"
	"github.com/sweeney/inverter-ctl/internal/machine"
	"github.com/sweeney/inverter-ctl/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, chan machine.Command) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Profile:     "FREQUENCY",
		Kind:        "frequency",
		PollMs:      15,
		DebounceMs:  20,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		OutPin:      18,
		InPin:       17,
	}
	tr := status.NewTracker(start, cfg)
	tr.SetModes([]status.ModeInfo{
		{Index: 0, Name: "Stand by"},
		{Index: 1, Name: "Low speed", FrequencyHz: 66, TimeoutS: 120},
	})
	commands := make(chan machine.Command, 4)
	srv := New(":0", tr, commands)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr, commands
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update("RUNNING", 1, "Low speed", 66, true, false, true, 90000, logic.EventCounts{ModeChanges: 2})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.State != "RUNNING" {
		t.Errorf("state: got %q, want RUNNING", sj.Status.State)
	}
	if sj.Status.Mode.Name != "Low speed" {
		t.Errorf("mode: got %+v", sj.Status.Mode)
	}
	if sj.Status.FrequencyHz != 66 || !sj.Status.Armed {
		t.Errorf("status = %+v", sj.Status)
	}
	if len(sj.Status.Modes) != 2 {
		t.Errorf("modes = %v", sj.Status.Modes)
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update("STANDBY", 0, "Stand by", 0, false, false, true, 0, logic.EventCounts{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	for _, want := range []string{"STANDBY", "Stand by", "Low speed", "/api/mode/1", "/index.json"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/bogus")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestCommandEndpoints(t *testing.T) {
	ts, _, commands := newTestServer(t)

	cases := []struct {
		path string
		want machine.Command
	}{
		{"/api/power/on", machine.Command{Kind: machine.CmdPowerOn}},
		{"/api/power/off", machine.Command{Kind: machine.CmdPowerOff}},
		{"/api/mode/2", machine.Command{Kind: machine.CmdApplyMode, Mode: 2}},
		{"/api/limit?enabled=false", machine.Command{Kind: machine.CmdSetLimit, Enabled: false}},
		{"/api/limit?enabled=true", machine.Command{Kind: machine.CmdSetLimit, Enabled: true}},
	}
	for _, c := range cases {
		resp, err := http.Post(ts.URL+c.path, "", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", c.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Errorf("POST %s: status %d", c.path, resp.StatusCode)
		}

		select {
		case got := <-commands:
			if got != c.want {
				t.Errorf("POST %s enqueued %+v, want %+v", c.path, got, c.want)
			}
		default:
			t.Errorf("POST %s enqueued nothing", c.path)
		}
	}
}

func TestCommandRequiresPost(t *testing.T) {
	ts, _, commands := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/power/on")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
	if len(commands) != 0 {
		t.Error("GET enqueued a command")
	}
}

func TestCommandBadInput(t *testing.T) {
	ts, _, commands := newTestServer(t)

	for _, path := range []string{"/api/mode/x", "/api/mode/-1", "/api/limit?enabled=maybe", "/api/limit"} {
		resp, err := http.Post(ts.URL+path, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s: status %d, want 400", path, resp.StatusCode)
		}
	}
	if len(commands) != 0 {
		t.Error("bad input enqueued a command")
	}
}

func TestCommandQueueFull(t *testing.T) {
	ts, _, commands := newTestServer(t)
	for i := 0; i < cap(commands); i++ {
		commands <- machine.Command{Kind: machine.CmdPowerOn}
	}

	resp, err := http.Post(ts.URL+"/api/power/on", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestFrameEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/frame?rpm=3000")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var parsed struct {
		RPM      uint16 `json:"rpm"`
		Frame    string `json:"frame"`
		Checksum string `json:"checksum"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.RPM != 3000 {
		t.Errorf("rpm = %d", parsed.RPM)
	}
	if parsed.Frame != "A5 C3 B8 0B D5" {
		t.Errorf("frame = %q", parsed.Frame)
	}
	if parsed.Checksum != "D5" {
		t.Errorf("checksum = %q", parsed.Checksum)
	}
}

func TestFrameEndpointClampsAndRejects(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/frame?rpm=9999")
	if err != nil {
		t.Fatal(err)
	}
	var parsed struct {
		RPM uint16 `json:"rpm"`
	}
	json.NewDecoder(resp.Body).Decode(&parsed)
	resp.Body.Close()
	if parsed.RPM != 4500 {
		t.Errorf("rpm = %d, want clamped 4500", parsed.RPM)
	}

	resp, err = http.Get(ts.URL + "/api/frame?rpm=loud")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
