package models

import "time"

// Entry is one indexed file in a Snapshot.
type Entry struct {
	URI       string    `json:"uri"`
	Path      string    `json:"path,omitempty"`
	Processor string    `json:"processor"`
	Metadata  *Metadata `json:"metadata"`
}

// Snapshot is the serializable form of an index store.
// Entries and Failures are sorted by URI.
type Snapshot struct {
	PassID     string    `json:"pass_id"`
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"built_at"`
	Entries    []Entry   `json:"entries"`
	Failures   []Failure `json:"failures"`
}
