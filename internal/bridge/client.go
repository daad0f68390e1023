// Package bridge implements the line-delimited JSON command channel to the
// node-graph host: one TCP dial per request, one request line, one
// response line.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client issues commands to the host over TCP. It keeps no persistent
// connection; every command dials, sends one JSON line, and reads one
// JSON line back within the configured timeout.
type Client struct {
	addr           string
	queryTimeout   time.Duration
	commandTimeout time.Duration
	logger         *slog.Logger
}

// NewClient creates a client for the host at host:port. queryTimeout
// bounds search requests, commandTimeout bounds create/delete requests.
func NewClient(host string, port int, queryTimeout, commandTimeout time.Duration, logger *slog.Logger) *Client {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	if commandTimeout <= 0 {
		commandTimeout = 5 * time.Second
	}
	return &Client{
		addr:           net.JoinHostPort(host, strconv.Itoa(port)),
		queryTimeout:   queryTimeout,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

type request struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// do runs one request/response exchange. The deadline covers dial, write,
// and read; the connection is closed before returning.
func (c *Client) do(ctx context.Context, timeout time.Duration, cmd string, params map[string]any) (json.RawMessage, error) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := dctx.Deadline(); ok {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	payload, err := json.Marshal(request{Type: cmd, Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", cmd, err)
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("bridge: send %s: %w", cmd, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("bridge: read %s response: %w", cmd, err)
	}

	// Some host builds prefix responses with a UTF-8 byte-order mark.
	line = bytes.TrimPrefix(bytes.TrimSpace(line), utf8BOM)

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("bridge: decode %s response: %w", cmd, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("bridge: %s rejected by host: %s", cmd, resp.Error)
	}
	return resp.Data, nil
}
