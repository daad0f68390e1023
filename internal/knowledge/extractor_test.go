package knowledge

import (
	"io"
	"log/slog"
	"testing"

	"github.com/fernwell/nodeatlas/internal/graphdoc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// twoNodeDoc builds the canonical two-node document: A(T1) -Out-> B(T2) In.
func twoNodeDoc(id string) *graphdoc.Document {
	return &graphdoc.Document{
		ID: id,
		Nodes: []graphdoc.Node{
			{InstanceID: "1", GUID: "T1", Name: "A", Outputs: []graphdoc.Param{{Label: "Out", FullName: "Output"}}},
			{InstanceID: "2", GUID: "T2", Name: "B", Inputs: []graphdoc.Param{{Label: "In", FullName: "Input"}}},
		},
		Edges: []graphdoc.Edge{
			{SourceInstance: "1", SourceParam: "Out", TargetInstance: "2", TargetParam: "In"},
		},
	}
}

func TestExtract_SingleDocument(t *testing.T) {
	e := NewExtractor(testLogger())
	exp := e.Extract([]*graphdoc.Document{twoNodeDoc("doc-1")})

	t1 := e.Registry().Type("T1")
	t2 := e.Registry().Type("T2")
	if t1 == nil || t2 == nil {
		t.Fatal("both types should be registered")
	}
	if t1.UsageCount != 1 || t2.UsageCount != 1 {
		t.Errorf("usage counts = %d, %d; want 1, 1", t1.UsageCount, t2.UsageCount)
	}
	if t1.ConnectedTo["T2"] != 1 {
		t.Errorf("T1.connected_to[T2] = %d, want 1", t1.ConnectedTo["T2"])
	}
	if t2.ConnectedFrom["T1"] != 1 {
		t.Errorf("T2.connected_from[T1] = %d, want 1", t2.ConnectedFrom["T1"])
	}

	found := false
	for _, p := range exp.Patterns {
		if p.Pattern == "T1.Out -> T2.In" {
			found = true
			if p.Frequency != 1 {
				t.Errorf("pattern frequency = %d, want 1", p.Frequency)
			}
		}
	}
	if !found {
		t.Error(`pattern table should contain "T1.Out -> T2.In"`)
	}
	if exp.Stats.TypeCount != 2 || exp.Stats.PatternCount != 1 {
		t.Errorf("stats = %+v, want 2 types, 1 pattern", exp.Stats)
	}
}

func TestExtract_IsAdditiveNotIdempotent(t *testing.T) {
	once := NewExtractor(testLogger())
	once.Extract([]*graphdoc.Document{twoNodeDoc("doc-1")})

	twice := NewExtractor(testLogger())
	twice.Extract([]*graphdoc.Document{twoNodeDoc("doc-1"), twoNodeDoc("doc-1")})

	for _, guid := range []string{"T1", "T2"} {
		a := once.Registry().Type(guid).UsageCount
		b := twice.Registry().Type(guid).UsageCount
		if b != 2*a {
			t.Errorf("%s usage after double extraction = %d, want %d", guid, b, 2*a)
		}
	}
	if got := twice.Registry().Type("T1").ConnectedTo["T2"]; got != 2 {
		t.Errorf("connection count after double extraction = %d, want 2", got)
	}
}

func TestExtract_SkipsUnresolvableEdges(t *testing.T) {
	doc := twoNodeDoc("doc-1")
	doc.Edges = append(doc.Edges, graphdoc.Edge{
		SourceInstance: "1", SourceParam: "Out",
		TargetInstance: "99", TargetParam: "In", // no such instance
	})

	e := NewExtractor(testLogger())
	exp := e.Extract([]*graphdoc.Document{doc})

	if exp.Stats.PatternCount != 1 {
		t.Errorf("pattern count = %d, want 1 (bad edge skipped)", exp.Stats.PatternCount)
	}
	if got := e.Registry().Type("T1").ConnectedTo["T2"]; got != 1 {
		t.Errorf("T1 connected_to[T2] = %d, want 1", got)
	}
}

func TestExtract_NameIndexIsCaseInsensitive(t *testing.T) {
	e := NewExtractor(testLogger())
	exp := e.Extract([]*graphdoc.Document{twoNodeDoc("doc-1")})

	for _, q := range []string{"a", "A"} {
		guid, ok := exp.Lookup(q)
		if !ok || guid != "T1" {
			t.Errorf("Lookup(%q) = %q, %v; want T1, true", q, guid, ok)
		}
	}
	if _, ok := exp.Lookup("missing"); ok {
		t.Error("Lookup of unknown name should report not found")
	}
}

func TestExtract_UnionsParamNames(t *testing.T) {
	doc1 := twoNodeDoc("doc-1")
	doc2 := twoNodeDoc("doc-2")
	doc2.Nodes[1].Inputs = []graphdoc.Param{{Label: "In", FullName: "Primary Input"}}

	e := NewExtractor(testLogger())
	e.Extract([]*graphdoc.Document{doc1, doc2})

	names := e.Registry().Type("T2").Inputs["In"]
	if !names.Has("Input") || !names.Has("Primary Input") {
		t.Errorf("input name variants = %v, want both observed full names", names.Sorted())
	}
}

func TestFreqMapTop_DeterministicOrder(t *testing.T) {
	m := FreqMap{"b": 3, "a": 3, "c": 5}
	top := m.Top(2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].Key != "c" || top[1].Key != "a" {
		t.Errorf("order = %s, %s; want c, a (ties break by key)", top[0].Key, top[1].Key)
	}
}

func TestExportTruncatesConnectionView(t *testing.T) {
	e := NewExtractor(testLogger())

	// One hub node wired to 15 distinct target types.
	doc := &graphdoc.Document{ID: "hub"}
	doc.Nodes = append(doc.Nodes, graphdoc.Node{InstanceID: "0", GUID: "HUB", Name: "Hub"})
	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		doc.Nodes = append(doc.Nodes, graphdoc.Node{InstanceID: id, GUID: "T-" + id, Name: "N" + id})
		doc.Edges = append(doc.Edges, graphdoc.Edge{
			SourceInstance: "0", SourceParam: "Out",
			TargetInstance: id, TargetParam: "In",
		})
	}

	exp := e.Extract([]*graphdoc.Document{doc})
	if got := len(exp.Types["HUB"].ConnectedTo); got != 10 {
		t.Errorf("exported connected_to size = %d, want 10", got)
	}
	if got := len(e.Registry().Type("HUB").ConnectedTo); got != 15 {
		t.Errorf("registry keeps full set, got %d, want 15", got)
	}
}
