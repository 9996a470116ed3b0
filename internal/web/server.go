// Package web provides the HTTP status and control surface for the
// inverter-ctl daemon. Command handlers never touch the pin directly;
// they enqueue commands for the control loop to execute.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sweeney/inverter-ctl/internal/cf10b"
	"github.com/sweeney/inverter-ctl/internal/machine"
	"github.com/sweeney/inverter-ctl/internal/status"
)

// Server serves the status page and control API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   chan<- machine.Command
}

// New creates a Server that reads state from the given tracker and
// enqueues control commands on the given channel.
func New(addr string, tracker *status.Tracker, commands chan<- machine.Command) *Server {
	s := &Server{tracker: tracker, commands: commands}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/api/power/on", s.handlePowerOn)
	mux.HandleFunc("/api/power/off", s.handlePowerOff)
	mux.HandleFunc("/api/mode/", s.handleMode)
	mux.HandleFunc("/api/limit", s.handleLimit)
	mux.HandleFunc("/api/frame", s.handleFrame)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handlePowerOn(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, r, machine.Command{Kind: machine.CmdPowerOn})
}

func (s *Server) handlePowerOff(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, r, machine.Command{Kind: machine.CmdPowerOff})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	idxStr := strings.TrimPrefix(r.URL.Path, "/api/mode/")
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		httpError(w, http.StatusBadRequest, "invalid mode index %q", idxStr)
		return
	}
	s.enqueue(w, r, machine.Command{Kind: machine.CmdApplyMode, Mode: idx})
}

func (s *Server) handleLimit(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "enabled must be true or false")
		return
	}
	s.enqueue(w, r, machine.Command{Kind: machine.CmdSetLimit, Enabled: enabled})
}

// handleFrame is a diagnostic endpoint: it returns the serial frame that
// would be sent for the given target RPM, without sending anything.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	rpm, err := strconv.ParseUint(r.URL.Query().Get("rpm"), 10, 16)
	if err != nil {
		httpError(w, http.StatusBadRequest, "rpm must be an unsigned integer")
		return
	}

	frame := cf10b.BuildSetSpeed(uint16(rpm))
	resp := struct {
		RPM      uint16 `json:"rpm"`
		Frame    string `json:"frame"`
		Checksum string `json:"checksum"`
	}{
		RPM:      frame.RPM(),
		Frame:    fmt.Sprintf("% X", frame[:]),
		Checksum: fmt.Sprintf("%02X", frame[cf10b.FrameLen-1]),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// enqueue hands a command to the control loop. The channel is buffered;
// if it is full the loop is wedged and we refuse rather than block.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, cmd machine.Command) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	select {
	case s.commands <- cmd:
	default:
		httpError(w, http.StatusServiceUnavailable, "command queue full")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "{\"accepted\":%q}\n", cmd.Kind)
}

func httpError(w http.ResponseWriter, code int, format string, args ...interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg, _ := json.Marshal(fmt.Sprintf(format, args...))
	fmt.Fprintf(w, "{\"error\":%s}\n", msg)
}
