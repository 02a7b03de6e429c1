package ranking

import (
	"testing"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Order_Process", "order process"},
		{"order-process", "order process"},
		{"  Order  Process ", "order process"},
		{"Decision_1.v2", "decision 1 v2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTerms(t *testing.T) {
	got := Terms(`"Order", review-form! `)
	want := []string{"order", "review-form"}
	if len(got) != len(want) {
		t.Fatalf("Terms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Terms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRanker_MatchID(t *testing.T) {
	r := NewRanker(nil)
	tests := []struct {
		name  string
		query string
		id    string
		match MatchType
	}{
		{"identical", "Order_Process", "Order_Process", MatchTypeExact},
		{"separators differ", "order process", "Order_Process", MatchTypeExact},
		{"no separators", "orderprocess", "Order_Process", MatchTypeExact},
		{"whole word", "order", "Order_Process", MatchTypeAllWords},
		{"prefix", "proc", "Order_Process", MatchTypePrefix},
		{"substring", "rder", "Order_Process", MatchTypePartial},
		{"none", "invoice", "Order_Process", MatchTypeNone},
		{"empty id", "order", "", MatchTypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, match := r.MatchID(tt.query, tt.id)
			if match != tt.match {
				t.Errorf("MatchID(%q, %q) match = %s, want %s", tt.query, tt.id, match, tt.match)
			}
			if (match == MatchTypeNone) != (score == 0) {
				t.Errorf("MatchID(%q, %q) score = %f inconsistent with %s", tt.query, tt.id, score, match)
			}
		})
	}
}

func TestRanker_MatchIDTierOrder(t *testing.T) {
	r := NewRanker(nil)
	exact, _ := r.MatchID("Order_Process", "Order_Process")
	normalized, _ := r.MatchID("order process", "Order_Process")
	allWords, _ := r.MatchID("order", "Order_Process")
	prefix, _ := r.MatchID("proc", "Order_Process")
	partial, _ := r.MatchID("rder", "Order_Process")
	if !(exact > normalized && normalized > allWords && allWords > prefix && prefix > partial && partial > 0) {
		t.Errorf("tiers out of order: exact=%f normalized=%f all=%f prefix=%f partial=%f",
			exact, normalized, allWords, prefix, partial)
	}
}

func TestRanker_Rerank_declaringFileFirst(t *testing.T) {
	r := NewRanker(nil)
	candidates := []Candidate{
		// Mentions the id in a link, so keyword search ranks it higher.
		{URI: "file:///p/caller.bpmn", IDs: []string{"Caller"}, KeywordScore: 2.0},
		{URI: "file:///p/order.bpmn", IDs: []string{"Order_Process"}, KeywordScore: 1.0},
	}
	got := r.Rerank("Order_Process", candidates)
	if len(got) != 2 {
		t.Fatalf("Rerank() returned %d results", len(got))
	}
	if got[0].URI != "file:///p/order.bpmn" || got[0].Match != MatchTypeExact {
		t.Errorf("first = %s (%s), want declaring file with exact match", got[0].URI, got[0].Match)
	}
	if got[1].Match != MatchTypeNone {
		t.Errorf("second match = %s, want none", got[1].Match)
	}
}

func TestRanker_Rerank_namesWeighLessThanIDs(t *testing.T) {
	r := NewRanker(nil)
	candidates := []Candidate{
		{URI: "file:///p/a.rpa", Names: []string{"invoice"}, KeywordScore: 1.0},
		{URI: "file:///p/b.form", IDs: []string{"invoice"}, KeywordScore: 1.0},
	}
	got := r.Rerank("invoice", candidates)
	if got[0].URI != "file:///p/b.form" {
		t.Errorf("first = %s, want the file declaring the id", got[0].URI)
	}
}

func TestRanker_Rerank_keepsKeywordOrderOnTies(t *testing.T) {
	r := NewRanker(nil)
	candidates := []Candidate{
		{URI: "a", KeywordScore: 1.0},
		{URI: "b", KeywordScore: 1.0},
		{URI: "c", KeywordScore: 1.0},
	}
	got := r.Rerank("zzz", candidates)
	for i, want := range []string{"a", "b", "c"} {
		if got[i].URI != want {
			t.Errorf("got[%d] = %s, want %s", i, got[i].URI, want)
		}
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	c := &Config{IDWeight: 3}
	c.ApplyDefaults()
	if c.IDWeight != 3 {
		t.Errorf("IDWeight = %f, want explicit 3", c.IDWeight)
	}
	if c.ExactIDScore != 100 || c.KeywordWeight != 1.0 {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestMatchType_String(t *testing.T) {
	if MatchTypeExact.String() != "exact" || MatchType(99).String() != "unknown" {
		t.Error("unexpected MatchType strings")
	}
}
