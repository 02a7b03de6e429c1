package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndex_SearchFindsDeclaredID(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	uri := "file:///project/order.bpmn"
	doc := &Document{
		URI:   uri,
		Type:  "bpmn",
		Title: "order.bpmn",
		IDs:   []string{"OrderProcess"},
		Links: []string{"ApproveForm"},
	}
	if err := idx.Index(ctx, uri, doc); err != nil {
		t.Fatalf("Index: %v", err)
	}

	// Standard analyzer lowercases, so the lookup is case-insensitive.
	results, err := idx.Search(ctx, "orderprocess", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URI != uri {
		t.Fatalf("results = %+v, want single hit %q", results, uri)
	}

	results, err = idx.Search(ctx, "ApproveForm", 10, nil)
	if err != nil {
		t.Fatalf("Search link: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected link target to be searchable, got %d hits", len(results))
	}
}

func TestBleveIndex_SearchFiltersByType(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	docs := []*Document{
		{URI: "file:///p/a.bpmn", Type: "bpmn", Title: "a.bpmn", IDs: []string{"invoice"}},
		{URI: "file:///p/a.form", Type: "form", Title: "a.form", IDs: []string{"invoice"}},
	}
	for _, d := range docs {
		if err := idx.Index(ctx, d.URI, d); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}

	all, err := idx.Search(ctx, "invoice", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered hits = %d, want 2", len(all))
	}

	forms, err := idx.Search(ctx, "invoice", 10, &SearchOptions{Type: "form"})
	if err != nil {
		t.Fatalf("Search form: %v", err)
	}
	if len(forms) != 1 || forms[0].URI != "file:///p/a.form" {
		t.Fatalf("form hits = %+v, want only a.form", forms)
	}
}

func TestBleveIndex_FuzzySearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	uri := "file:///p/shipping.rpa"
	if err := idx.Index(ctx, uri, &Document{URI: uri, Type: "rpa", Names: []string{"shipment"}}); err != nil {
		t.Fatalf("Index: %v", err)
	}

	exact, err := idx.Search(ctx, "shipmnet", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(exact) != 0 {
		t.Fatalf("exact search for misspelling should miss, got %d hits", len(exact))
	}

	fuzzy, err := idx.Search(ctx, "shipmnet", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatalf("fuzzy Search: %v", err)
	}
	if len(fuzzy) != 1 || fuzzy[0].URI != uri {
		t.Fatalf("fuzzy hits = %+v, want %q", fuzzy, uri)
	}
}

func TestBleveIndex_DeleteAndDocCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	for _, uri := range []string{"file:///p/1.form", "file:///p/2.form"} {
		if err := idx.Index(ctx, uri, &Document{URI: uri, Type: "form", IDs: []string{"shared"}}); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("DocCount = %d, want 2", n)
	}

	if err := idx.Delete(ctx, "file:///p/1.form"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, err := idx.Search(ctx, "shared", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URI != "file:///p/2.form" {
		t.Fatalf("results after delete = %+v", results)
	}
}

func TestBleveIndex_ReopensExistingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx.Index(ctx, "file:///p/x.dmn", &Document{URI: "file:///p/x.dmn", Type: "dmn", IDs: []string{"discount"}}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	n, err := reopened.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("DocCount after reopen = %d, want 1", n)
	}
}

func TestTokenizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  Order  Process ", []string{"order", "process"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		got := tokenizeQuery(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("tokenizeQuery(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenizeQuery(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
