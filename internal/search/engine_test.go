package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/fileid"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/processor"
)

const orderBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"
    xmlns:zeebe="http://camunda.org/schema/zeebe/1.0" id="Defs">
  <bpmn:process id="Order">
    <bpmn:callActivity id="Pay">
      <bpmn:extensionElements>
        <zeebe:calledElement processId="Payment" />
      </bpmn:extensionElements>
    </bpmn:callActivity>
  </bpmn:process>
</bpmn:definitions>`

const paymentBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="Defs">
  <bpmn:process id="Payment" />
</bpmn:definitions>`

func item(name, contents string) *models.IndexItem {
	path := filepath.Join("/project", name)
	return models.NewIndexItem(&models.File{
		Contents: contents,
		Dir:      filepath.Dir(path),
		Ext:      filepath.Ext(path),
		Name:     name,
		Path:     path,
		URI:      fileid.URI(path),
	})
}

type fixture struct {
	engine *Engine
	store  *indexer.Store
	kw     *keyword.BleveIndex
}

func newFixture(t *testing.T, cfg *config.SearchConfig) *fixture {
	t.Helper()
	kw, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kw.Close() })
	reg, err := processor.NewRegistry(processor.Default()...)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := indexer.New(reg, indexer.WithKeywordIndex(kw), indexer.WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	store, err := idx.Index(context.Background(), []*models.IndexItem{
		item("order.bpmn", orderBPMN),
		item("payment.bpmn", paymentBPMN),
		item("review.form", `{"id": "review-form"}`),
		item("invoice.rpa", `{"id": "invoice-bot", "name": "Invoice Bot"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{engine: NewEngine(kw, cfg), store: store, kw: kw}
}

func TestEngine_Search_declaringFileFirst(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Payment"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("got %d results (total %d), want 2", len(resp.Results), resp.Total)
	}
	first := resp.Results[0]
	if first.URI != fileid.URI("/project/payment.bpmn") {
		t.Errorf("first = %s, want the file declaring Payment", first.URI)
	}
	if first.Match != "exact" || first.Type != processor.TypeBPMN || first.Rank != 1 {
		t.Errorf("first = %+v", first)
	}
	if resp.Results[1].URI != fileid.URI("/project/order.bpmn") || resp.Results[1].Match != "none" {
		t.Errorf("second = %+v, want the referencing file", resp.Results[1])
	}
	if resp.AutoFuzzy {
		t.Error("exact hits must not be flagged as auto fuzzy")
	}
}

func TestEngine_Search_limit(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Payment", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Total != 2 {
		t.Errorf("got %d results (total %d), want 1 of 2", len(resp.Results), resp.Total)
	}
}

func TestEngine_Search_typeFilter(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Payment", Type: processor.TypeForm})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("form filter returned %+v", resp.Results)
	}
	resp, err = f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "review", Type: processor.TypeForm})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].IDs[0] != "review-form" {
		t.Errorf("form search = %+v", resp.Results)
	}
}

func TestEngine_Search_autoFuzzy(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "paymnet"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.AutoFuzzy || len(resp.Results) == 0 {
		t.Fatalf("expected auto fuzzy hits, got %+v", resp)
	}

	off := false
	cfg := config.Default(t.TempDir()).Search
	cfg.AutoFuzzy = &off
	f = newFixture(t, &cfg)
	resp, err = f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "paymnet"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AutoFuzzy || len(resp.Results) != 0 {
		t.Errorf("auto fuzzy disabled, got %+v", resp)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "Payment" {
		t.Errorf("suggestions = %v, want [Payment]", resp.Suggestions)
	}
}

func TestEngine_Search_noSuggestionsWhenMatched(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Order"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 || resp.Suggestions != nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestEngine_Search_dropsFilesNotInStore(t *testing.T) {
	f := newFixture(t, nil)
	ghost := fileid.URI("/project/ghost.bpmn")
	if err := f.kw.Index(context.Background(), ghost, &keyword.Document{URI: ghost, Type: "bpmn", IDs: []string{"Payment"}}); err != nil {
		t.Fatal(err)
	}
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Payment"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range resp.Results {
		if r.URI == ghost {
			t.Errorf("stale keyword document %s returned", ghost)
		}
	}
}

func TestEngine_Search_scriptNames(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "Invoice Bot"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 || resp.Results[0].URI != fileid.URI("/project/invoice.rpa") {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Match == "none" {
		t.Error("script name match should be reported")
	}
}

func TestEngine_Search_emptyQuery(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Search(context.Background(), f.store, &models.SearchQuery{Query: "  "})
	if !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}
