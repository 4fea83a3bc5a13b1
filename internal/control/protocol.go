package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tinytelemetry/pulse/internal/metric"
)

// JSON-RPC 2.0 Method Reference
//
// The control server exposes the collecting engine over a Unix domain
// socket. This is the surface the TUI observer and operators use to watch
// and switch streams.
//
//   Method             Params                      Result
//   ────────────────   ─────────────────────────   ──────────────────────
//   ListStreams        (none)                      []engine.StreamInfo
//   GetSnapshot        {Path: string}              StreamSnapshot
//   GetAllSnapshots    (none)                      []StreamSnapshot
//   SwitchStream       {Path: string, On: bool}    bool
//   ServerInfo         (none)                      Info
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (unknown stream, switch failure)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Info describes the running agent.
type Info struct {
	Version     string        `json:"version"`
	Uptime      time.Duration `json:"uptime"`
	StreamCount int           `json:"stream_count"`
}

// StreamSnapshot carries one snapshot across the socket. State stays raw
// until the consumer decodes it by stream type.
type StreamSnapshot struct {
	Path       metric.Path       `json:"path"`
	Info       string            `json:"info"`
	StreamType metric.StreamType `json:"stream_type"`
	CapturedAt time.Time         `json:"captured_at"`
	State      json.RawMessage   `json:"state"`
}

// DecodeState resolves the raw state into the concrete aggregate for the
// snapshot's stream type.
func (s *StreamSnapshot) DecodeState() (any, error) {
	switch s.StreamType {
	case metric.CounterStreamType:
		var state metric.CounterState
		err := json.Unmarshal(s.State, &state)
		return state, err
	case metric.GaugeStreamType:
		var state metric.GaugeState
		err := json.Unmarshal(s.State, &state)
		return state, err
	case metric.HistogramStreamType:
		var state metric.HistogramState
		err := json.Unmarshal(s.State, &state)
		return state, err
	case metric.LogStreamType:
		var state metric.LogState
		err := json.Unmarshal(s.State, &state)
		return state, err
	default:
		return nil, fmt.Errorf("control: unknown stream type %q", s.StreamType)
	}
}

// DefaultSocketPath returns the default Unix socket path. It prefers
// $XDG_RUNTIME_DIR/pulse/pulse.sock, falling back to a per-user state dir.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "pulse", "pulse.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/pulse.sock"
	}
	return filepath.Join(home, ".local", "state", "pulse", "pulse.sock")
}
