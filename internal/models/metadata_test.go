package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMetadata_DeclaredIDs(t *testing.T) {
	tests := []struct {
		name string
		meta *Metadata
		want []string
	}{
		{"nil", nil, nil},
		{"ids only", &Metadata{Type: "form", IDs: []string{"a", "b"}}, []string{"a", "b"}},
		{"scripts only", &Metadata{Type: "rpa", Scripts: []Script{{ID: "s1", Name: "One"}}}, []string{"s1"}},
		{"dedup across fields", &Metadata{IDs: []string{"x", "x"}, Scripts: []Script{{ID: "x"}, {ID: "y"}}}, []string{"x", "y"}},
		{"empty ids dropped", &Metadata{IDs: []string{""}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.meta.DeclaredIDs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeclaredIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_CloneIsIndependent(t *testing.T) {
	m := &Metadata{
		Type:      "bpmn",
		IDs:       []string{"p1"},
		LinkedIDs: []LinkedID{{ID: "f1", ElementID: "t1", Type: "formId"}},
		Extra:     map[string]any{"executionPlatform": "Camunda Cloud"},
	}
	c := m.Clone()
	if !reflect.DeepEqual(m, c) {
		t.Fatalf("clone differs: %+v vs %+v", m, c)
	}
	c.IDs[0] = "changed"
	c.LinkedIDs[0].ID = "changed"
	c.Extra["executionPlatform"] = "changed"
	if m.IDs[0] != "p1" || m.LinkedIDs[0].ID != "f1" || m.Extra["executionPlatform"] != "Camunda Cloud" {
		t.Errorf("original mutated through clone: %+v", m)
	}
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{
		OutcomeSkipped:   "skipped",
		OutcomeIndexed:   "indexed",
		OutcomeRecovered: "recovered",
		OutcomeFailed:    "failed",
	} {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", o, got, want)
		}
	}
}

func TestMetadata_JSONShape(t *testing.T) {
	tests := []struct {
		name string
		meta *Metadata
		want string
	}{
		{
			"unparseable form keeps empty ids",
			&Metadata{Type: "form", Error: "unexpected end of JSON input", IDs: []string{}},
			`{"type":"form","error":"unexpected end of JSON input","ids":[]}`,
		},
		{
			"empty rpa keeps scripts and linked ids",
			&Metadata{Type: "rpa", Scripts: []Script{}, LinkedIDs: []LinkedID{}},
			`{"type":"rpa","scripts":[],"linkedIds":[]}`,
		},
		{
			"rpa script",
			&Metadata{Type: "rpa", Scripts: []Script{{ID: "s1", Name: "Script One"}}, LinkedIDs: []LinkedID{}},
			`{"type":"rpa","scripts":[{"id":"s1","name":"Script One"}],"linkedIds":[]}`,
		},
		{
			"nil slices are left out",
			&Metadata{Type: "dmn", IDs: []string{"d1"}},
			`{"type":"dmn","ids":["d1"]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.meta)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("json = %s, want %s", data, tt.want)
			}
			var back Metadata
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(&back, tt.meta) {
				t.Errorf("round trip = %+v, want %+v", back, *tt.meta)
			}
		})
	}
}
