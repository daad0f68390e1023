package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeHost answers every connection with one canned response line and
// records the request lines it received.
type fakeHost struct {
	t        *testing.T
	listener net.Listener
	response string
	requests chan string
}

func startFakeHost(t *testing.T, response string) *fakeHost {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeHost{t: t, listener: ln, response: response, requests: make(chan string, 8)}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				f.requests <- strings.TrimSpace(line)
				conn.Write([]byte(f.response + "\n"))
			}(conn)
		}
	}()
	return f
}

func (f *fakeHost) client(t *testing.T) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(f.listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(host, port, time.Second, time.Second, testLogger())
}

func (f *fakeHost) lastRequest(t *testing.T) request {
	t.Helper()
	select {
	case line := <-f.requests:
		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("request was not a JSON line: %v", err)
		}
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no request reached the fake host")
		return request{}
	}
}

func TestSearch(t *testing.T) {
	host := startFakeHost(t, `{"success": true, "data": {"candidates": [{"guid": "G1", "name": "Circle", "library": "Core"}]}}`)

	candidates, err := host.client(t).Search(context.Background(), "Circle")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].GUID != "G1" || candidates[0].Library != "Core" {
		t.Errorf("candidates = %+v", candidates)
	}

	req := host.lastRequest(t)
	if req.Type != "search_components" || req.Parameters["query"] != "Circle" {
		t.Errorf("request = %+v", req)
	}
}

func TestSearch_ResponseWithBOM(t *testing.T) {
	host := startFakeHost(t, string(utf8BOM)+`{"success": true, "data": {"candidates": []}}`)

	candidates, err := host.client(t).Search(context.Background(), "Circle")
	if err != nil {
		t.Fatalf("BOM-prefixed response should decode: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %+v, want none", candidates)
	}
}

func TestCreate(t *testing.T) {
	host := startFakeHost(t, `{"success": true, "data": {"id": "inst-42"}}`)

	id, err := host.client(t).Create(context.Background(), "G1", 100, 200)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "inst-42" {
		t.Errorf("id = %q, want inst-42", id)
	}

	req := host.lastRequest(t)
	if req.Type != "create_component" {
		t.Errorf("type = %q", req.Type)
	}
	if req.Parameters["guid"] != "G1" || req.Parameters["x"] != float64(100) {
		t.Errorf("parameters = %+v", req.Parameters)
	}
}

func TestCreate_EmptyIDIsError(t *testing.T) {
	host := startFakeHost(t, `{"success": true, "data": {}}`)

	if _, err := host.client(t).Create(context.Background(), "G1", 0, 0); err == nil {
		t.Fatal("expected an error when the host returns no id")
	}
}

func TestDo_HostRejection(t *testing.T) {
	host := startFakeHost(t, `{"success": false, "error": "unknown guid"}`)

	_, err := host.client(t).Create(context.Background(), "G-bad", 0, 0)
	if err == nil || !strings.Contains(err.Error(), "unknown guid") {
		t.Fatalf("err = %v, want the host's error text", err)
	}
}

func TestDelete(t *testing.T) {
	host := startFakeHost(t, `{"success": true, "data": {"deleted": true}}`)

	ok, err := host.client(t).Delete(context.Background(), "inst-42")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}
	req := host.lastRequest(t)
	if req.Type != "delete_component" || req.Parameters["id"] != "inst-42" {
		t.Errorf("request = %+v", req)
	}
}

func TestDo_DialFailure(t *testing.T) {
	// Grab a free port and close it again so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	h, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)
	c := NewClient(h, port, 500*time.Millisecond, 500*time.Millisecond, testLogger())

	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("expected a dial error")
	}
}
