package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/pulse/internal/engine"
)

// Client talks to a control server over a Unix domain socket.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the control server at the given socket path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("control: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("control: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(30 * time.Second))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("control: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("control: read: %w", err)
		}
		return fmt.Errorf("control: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("control: unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("control: unmarshal result: %w", err)
		}
	}
	return nil
}

// ListStreams returns every registered stream.
func (c *Client) ListStreams() ([]engine.StreamInfo, error) {
	var result []engine.StreamInfo
	err := c.call("ListStreams", nil, &result)
	return result, err
}

// GetSnapshot returns the latest snapshot of one stream.
func (c *Client) GetSnapshot(path string) (StreamSnapshot, error) {
	var result StreamSnapshot
	err := c.call("GetSnapshot", map[string]any{"Path": path}, &result)
	return result, err
}

// GetAllSnapshots returns the latest snapshot of every stream.
func (c *Client) GetAllSnapshots() ([]StreamSnapshot, error) {
	var result []StreamSnapshot
	err := c.call("GetAllSnapshots", nil, &result)
	return result, err
}

// SwitchStream flips one stream's activation gate.
func (c *Client) SwitchStream(path string, on bool) error {
	return c.call("SwitchStream", map[string]any{"Path": path, "On": on}, nil)
}

// ServerInfo returns agent version and uptime.
func (c *Client) ServerInfo() (Info, error) {
	var result Info
	err := c.call("ServerInfo", nil, &result)
	return result, err
}
