package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/graphdoc"
	"github.com/fernwell/nodeatlas/internal/knowledge"
	"github.com/fernwell/nodeatlas/internal/resolver"
	"github.com/fernwell/nodeatlas/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestServer builds a server over a one-document corpus: a Slider
// feeding a Circle. "Box" resolves through the trust list.
func newTestServer(t *testing.T, authEnabled bool, token string) *httptest.Server {
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

	h := NewHandler(res, cat, analyzer)
	srv := httptest.NewServer(NewRouter(h, authEnabled, token, nil))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/resolve?name=Box")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var res resolver.Resolved
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.GUID != "G-box" || res.Source != resolver.SourceTrusted {
		t.Errorf("resolved = %+v", res)
	}
}

func TestResolve_NotFoundIsStill200(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/resolve?name=Ghost")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a not-found resolution", resp.StatusCode)
	}
	var res resolver.Resolved
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.Source != resolver.SourceNotFound || res.Confidence != 0 {
		t.Errorf("resolved = %+v", res)
	}
}

func TestResolve_MissingName(t *testing.T) {
	srv := newTestServer(t, false, "")
	resp, _ := get(t, srv.URL+"/resolve")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchTypes(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/types?q=slider")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var out struct {
		Types []struct {
			GUID string `json:"guid"`
		} `json:"types"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Types) != 1 || out.Types[0].GUID != "G-slider" {
		t.Errorf("types = %+v", out.Types)
	}

	resp, _ = get(t, srv.URL+"/types")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", resp.StatusCode)
	}
}

func TestRecommendations(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/recommendations/Circle")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var rec connection.Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.Predecessors) != 1 || rec.Predecessors[0].Key != "Slider" {
		t.Errorf("recommendation = %+v", rec)
	}

	resp, _ = get(t, srv.URL+"/recommendations/Unknown")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unobserved type: status = %d, want 404", resp.StatusCode)
	}
}

func TestTopPatterns(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/patterns?limit=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Patterns []struct {
			Pattern   string `json:"pattern"`
			Frequency int    `json:"frequency"`
		} `json:"patterns"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Patterns) != 1 || out.Patterns[0].Pattern != "G-slider.N -> G-circle.R" {
		t.Errorf("patterns = %+v", out.Patterns)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, false, "")

	resp, body := get(t, srv.URL+"/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Types    int `json:"types"`
		Patterns int `json:"patterns"`
		Triplets int `json:"triplets"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Types != 2 || out.Patterns != 1 || out.Triplets != 1 {
		t.Errorf("stats = %+v", out)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, true, "secret")

	resp, _ := get(t, srv.URL+"/stats")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/stats", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", resp.StatusCode)
	}
}
