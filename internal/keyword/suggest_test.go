package keyword

import (
	"reflect"
	"testing"
)

func TestSuggest(t *testing.T) {
	dict := []string{"Payment", "Order", "Orders", "review-form", "Payment"}
	tests := []struct {
		name  string
		query string
		opts  []SuggestOption
		want  []Suggestion
	}{
		{"swapped letters", "paymnet", nil, []Suggestion{{Term: "Payment", Distance: 2}}},
		{"closest first", "ordr", nil, []Suggestion{{Term: "Order", Distance: 1}, {Term: "Orders", Distance: 2}}},
		{"exact match excluded", "order", nil, []Suggestion{{Term: "Orders", Distance: 1}}},
		{"max suggestions", "ordr", []SuggestOption{WithMaxSuggestions(1)}, []Suggestion{{Term: "Order", Distance: 1}}},
		{"max distance", "ordr", []SuggestOption{WithMaxDistance(1)}, []Suggestion{{Term: "Order", Distance: 1}}},
		{"multi-byte runes", "revíew-form", nil, []Suggestion{{Term: "review-form", Distance: 1}}},
		{"nothing close", "invoice", nil, nil},
		{"blank", "  ", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.query, dict, tt.opts...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}
