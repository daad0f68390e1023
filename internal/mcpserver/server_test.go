package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/graphdoc"
	"github.com/fernwell/nodeatlas/internal/knowledge"
	"github.com/fernwell/nodeatlas/internal/manager"
	"github.com/fernwell/nodeatlas/internal/resolver"
	"github.com/fernwell/nodeatlas/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testServer(t *testing.T) (*Server, *testutil.FakeHost) {
	t.Helper()

	doc := &graphdoc.Document{
		ID: "doc-1",
		Nodes: []graphdoc.Node{
			{InstanceID: "1", GUID: "G-slider", Name: "Slider", Outputs: []graphdoc.Param{{Label: "N"}}},
			{InstanceID: "2", GUID: "G-circle", Name: "Circle", Inputs: []graphdoc.Param{{Label: "R"}}},
		},
		Edges: []graphdoc.Edge{
			{SourceInstance: "1", SourceParam: "N", TargetInstance: "2", TargetParam: "R"},
		},
	}

	kexp := knowledge.NewExtractor(testLogger()).Extract([]*graphdoc.Document{doc})
	analyzer := connection.NewAnalyzer(testLogger())
	analyzer.RecordDocument(doc)

	cat := testutil.TestCatalog(t)
	if err := cat.Rebuild(kexp, analyzer.Export()); err != nil {
		t.Fatal(err)
	}

	trust := map[string]resolver.TrustEntry{"Box": {GUID: "G-box"}}
	res := resolver.New(trust, nil, nil, "Core", time.Second, testLogger())

	host := &testutil.FakeHost{}
	mgr := manager.New(host, testLogger())

	return New(res, cat, analyzer, mgr), host
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so the tool
	// handler functions are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "resolve_component":
		result, err = srv.resolveComponent(ctx, req)
	case "search_types":
		result, err = srv.searchTypes(ctx, req)
	case "recommend_connections":
		result, err = srv.recommendConnections(ctx, req)
	case "top_patterns":
		result, err = srv.topPatterns(ctx, req)
	case "create_component":
		result, err = srv.createComponent(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestResolveComponent(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "resolve_component", map[string]interface{}{"name": "Box"})
	text := resultText(r)
	if !strings.Contains(text, "G-box") || !strings.Contains(text, `"trusted"`) {
		t.Errorf("result = %q", text)
	}

	r = callTool(t, srv, "resolve_component", map[string]interface{}{"name": "Ghost"})
	text = resultText(r)
	if r.IsError {
		t.Error("not-found resolution is a result, not a tool error")
	}
	if !strings.Contains(text, `"not_found"`) {
		t.Errorf("result = %q", text)
	}
}

func TestResolveComponent_MissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "resolve_component", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing name")
	}
}

func TestSearchTypes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_types", map[string]interface{}{"query": "slider"})
	if !strings.Contains(resultText(r), "G-slider") {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "search_types", map[string]interface{}{"query": "zzz"})
	if resultText(r) != "no matching types" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestRecommendConnections(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "recommend_connections", map[string]interface{}{"type": "Circle"})
	if !strings.Contains(resultText(r), "Slider") {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "recommend_connections", map[string]interface{}{"type": "Unknown"})
	if !strings.Contains(resultText(r), "no connection data") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestTopPatterns(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "top_patterns", map[string]interface{}{})
	if !strings.Contains(resultText(r), "G-slider.N -> G-circle.R") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestCreateComponent(t *testing.T) {
	srv, host := testServer(t)

	r := callTool(t, srv, "create_component", map[string]interface{}{
		"guid": "G-slider", "x": 100.0, "y": 200.0, "logical_key": "s1",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Errorf("result = %q", text)
	}
	if len(host.Created) != 1 || host.Created[0] != "G-slider" {
		t.Errorf("host creates = %v", host.Created)
	}
}

func TestCreateComponent_InvalidRequest(t *testing.T) {
	srv, host := testServer(t)

	r := callTool(t, srv, "create_component", map[string]interface{}{
		"guid": "", "x": 0.0, "y": 0.0,
	})
	if !r.IsError {
		t.Error("expected error for empty guid")
	}
	if len(host.Created) != 0 {
		t.Error("invalid request must not reach the host")
	}
}
