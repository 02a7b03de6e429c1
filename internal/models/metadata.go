package models

import "encoding/json"

// Metadata is what a processor extracts from one file.
// Type names the processor that produced it. Error is only set when the
// processor recovered from a malformed file; such metadata declares no ids.
type Metadata struct {
	Type      string         `json:"type"`
	Error     string         `json:"error,omitempty"`
	IDs       []string       `json:"ids"`
	Scripts   []Script       `json:"scripts"`
	LinkedIDs []LinkedID     `json:"linkedIds"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes ids, scripts and linkedIds whenever they are non-nil, empty
// or not, and leaves out the nil ones. An unparseable form stays
// {"type":"form","error":...,"ids":[]} and an empty RPA script stays
// {"type":"rpa","scripts":[],"linkedIds":[]} after a JSON round trip.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type      string         `json:"type"`
		Error     string         `json:"error,omitempty"`
		IDs       *[]string      `json:"ids,omitempty"`
		Scripts   *[]Script      `json:"scripts,omitempty"`
		LinkedIDs *[]LinkedID    `json:"linkedIds,omitempty"`
		Extra     map[string]any `json:"extra,omitempty"`
	}
	w := wire{Type: m.Type, Error: m.Error, Extra: m.Extra}
	if m.IDs != nil {
		w.IDs = &m.IDs
	}
	if m.Scripts != nil {
		w.Scripts = &m.Scripts
	}
	if m.LinkedIDs != nil {
		w.LinkedIDs = &m.LinkedIDs
	}
	return json.Marshal(w)
}

// Script is an RPA script declared by a file.
type Script struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LinkedID is a reference from an element of one file to an id declared by another.
type LinkedID struct {
	ID        string `json:"id"`
	ElementID string `json:"elementId,omitempty"`
	Type      string `json:"type"`
}

// DeclaredIDs returns every id the metadata declares: IDs followed by script ids,
// without duplicates and in first-seen order.
func (m *Metadata) DeclaredIDs() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(m.IDs)+len(m.Scripts))
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range m.IDs {
		add(id)
	}
	for _, s := range m.Scripts {
		add(s.ID)
	}
	return out
}

// Clone returns a deep copy so store readers cannot alter published metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := &Metadata{Type: m.Type, Error: m.Error}
	if m.IDs != nil {
		c.IDs = append([]string{}, m.IDs...)
	}
	if m.Scripts != nil {
		c.Scripts = append([]Script{}, m.Scripts...)
	}
	if m.LinkedIDs != nil {
		c.LinkedIDs = append([]LinkedID{}, m.LinkedIDs...)
	}
	if m.Extra != nil {
		c.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Failure records a file that could not be indexed, or (as a warning) one whose
// metadata carries a recoverable error.
type Failure struct {
	URI   string `json:"uri"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Outcome tags how processing one item ended.
type Outcome int

const (
	// OutcomeSkipped means no processor is registered for the item's extension.
	OutcomeSkipped Outcome = iota
	// OutcomeIndexed means the processor returned metadata without an error.
	OutcomeIndexed
	// OutcomeRecovered means the processor embedded a parse error in the metadata.
	OutcomeRecovered
	// OutcomeFailed means the processor returned an error (or panicked) and the item was aborted.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIndexed:
		return "indexed"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}
