package graphdoc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/fernwell/nodeatlas/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDecode(t *testing.T) {
	raw := `{
		"id": "doc-1",
		"nodes": [
			{"instance_id": "1", "guid": "T1", "name": "Slider", "outputs": [{"label": "N", "full_name": "Number"}]},
			{"instance_id": "2", "guid": "T2", "name": "Circle", "inputs": [{"label": "R"}]}
		],
		"edges": [
			{"source_instance": "1", "source_param": "N", "target_instance": "2", "target_param": "R"}
		]
	}`

	doc, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.ID != "doc-1" || len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Nodes[0].Outputs[0].FullName != "Number" {
		t.Errorf("full name = %q", doc.Nodes[0].Outputs[0].FullName)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestNodeByInstance(t *testing.T) {
	doc := &Document{Nodes: []Node{
		{InstanceID: "1", Name: "A"},
		{InstanceID: "2", Name: "B"},
	}}

	if n := doc.NodeByInstance("2"); n == nil || n.Name != "B" {
		t.Errorf("NodeByInstance(2) = %+v", n)
	}
	if n := doc.NodeByInstance("99"); n != nil {
		t.Errorf("missing instance should be nil, got %+v", n)
	}
}

func TestDirSource_Load(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"corpus/good.json":   `{"id": "explicit", "nodes": [{"instance_id": "1", "guid": "T1", "name": "A"}]}`,
		"corpus/noid.json":   `{"nodes": []}`,
		"corpus/broken.json": `{not json`,
	}
	for path, body := range files {
		if err := store.Write(path, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := NewDirSource(store, "corpus", testLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2 (malformed file skipped)", len(docs))
	}

	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
	}
	if !ids["explicit"] {
		t.Error("explicit id should survive load")
	}
	if !ids["noid"] {
		t.Errorf("empty id should fall back to file name, got %v", ids)
	}
}
