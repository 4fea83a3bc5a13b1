// Package control exposes the collecting engine over a Unix domain socket
// using JSON-RPC 2.0. It is the one controller that writes activation
// flags, and the transport the TUI observer reads through.
package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (64 KB).
	scannerInitBufSize = 64 * 1024
	// scannerMaxTokenSize is the maximum request size the scanner will accept (1 MB).
	scannerMaxTokenSize = 1024 * 1024
)

// Collector is the narrow engine contract the control surface requires.
type Collector interface {
	Streams() []engine.StreamInfo
	Snapshot(path metric.Path) (engine.Snapshot, bool)
	Snapshots() []engine.Snapshot
	SwitchStream(path metric.Path, on bool) error
}

// Server exposes a Collector over a Unix domain socket.
type Server struct {
	socketPath string
	collector  Collector
	version    string
	listener   net.Listener
	wg         sync.WaitGroup
	quit       chan struct{}
	startTime  time.Time
}

// NewServer creates a new control server.
func NewServer(socketPath string, collector Collector, version string) *Server {
	return &Server{
		socketPath: socketPath,
		collector:  collector,
		version:    version,
		quit:       make(chan struct{}),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("control: mkdir: %w", err)
	}

	// Remove stale socket if it exists.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			// Socket file exists but nobody is listening — stale.
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("control: another server is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("control: listen: %w", err)
	}
	s.listener = ln
	s.startTime = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("control: listening on %s", s.socketPath)
	return nil
}

// Stop closes the listener, waits for connections to drain, and removes
// the socket file.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("control: accept error: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		select {
		case <-s.quit:
			return
		default:
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp := Response{JSONRPC: "2.0", ID: 0, Error: &RPCError{Code: -32700, Message: "parse error"}}
			encoder.Encode(resp)
			continue
		}

		resp := s.dispatch(req)
		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	marshalResult := func(v any) Response {
		data, err := json.Marshal(v)
		if err != nil {
			resp.Error = &RPCError{Code: -32603, Message: err.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}

	appError := func(err error) Response {
		resp.Error = &RPCError{Code: -32000, Message: err.Error()}
		return resp
	}

	invalidParams := func(err error) Response {
		resp.Error = &RPCError{Code: -32602, Message: fmt.Sprintf("invalid params: %v", err)}
		return resp
	}

	switch req.Method {
	case "ListStreams":
		return marshalResult(s.collector.Streams())

	case "GetSnapshot":
		var p struct{ Path string }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		snap, ok := s.collector.Snapshot(metric.Path(p.Path))
		if !ok {
			return appError(fmt.Errorf("unknown stream %q", p.Path))
		}
		return marshalResult(snap)

	case "GetAllSnapshots":
		return marshalResult(s.collector.Snapshots())

	case "SwitchStream":
		var p struct {
			Path string
			On   bool
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if err := s.collector.SwitchStream(metric.Path(p.Path), p.On); err != nil {
			return appError(err)
		}
		return marshalResult(true)

	case "ServerInfo":
		return marshalResult(Info{
			Version:     s.version,
			Uptime:      time.Since(s.startTime),
			StreamCount: len(s.collector.Streams()),
		})

	default:
		resp.Error = &RPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}
