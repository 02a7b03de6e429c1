package search

import (
	"errors"
	"testing"

	"github.com/hyperjump/modelindex/internal/models"
)

func TestProcessQuery(t *testing.T) {
	tests := []struct {
		name      string
		in        models.SearchQuery
		wantQuery string
		wantType  string
		wantLimit int
		wantErr   error
	}{
		{"collapses whitespace", models.SearchQuery{Query: "  order \t process "}, "order process", "", 10, nil},
		{"lower-cases type", models.SearchQuery{Query: "Order", Type: " BPMN "}, "Order", "bpmn", 10, nil},
		{"keeps limit", models.SearchQuery{Query: "x", Limit: 3}, "x", "", 3, nil},
		{"caps limit", models.SearchQuery{Query: "x", Limit: 500}, "x", "", 100, nil},
		{"blank", models.SearchQuery{Query: " \n "}, "", "", 0, models.ErrEmptyQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.in
			err := ProcessQuery(&q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if q.Query != tt.wantQuery || q.Type != tt.wantType || q.Limit != tt.wantLimit {
				t.Errorf("got %+v", q)
			}
		})
	}
}
