// Package processor turns the raw contents of project files into index metadata.
//
// Each Processor handles one file family and claims the extensions it
// recognizes. Processors are registered once, at startup, into a Registry that
// the indexer consults per file.
//
// Failure conventions differ between processors and this is inherited, not
// designed: form, bpmn and dmn processors report malformed files inside the
// returned metadata (Metadata.Error, nil error), while the rpa processor returns
// an error, which aborts that one item. The indexer tags the two cases as
// models.OutcomeRecovered and models.OutcomeFailed.
package processor

import (
	"context"
	"errors"

	"github.com/hyperjump/modelindex/internal/models"
)

// Processor extracts metadata from files with the extensions it declares.
type Processor interface {
	// ID names the processor; it is also the Type of the metadata it produces.
	ID() string
	// Extensions lists the claimed extensions, each with its leading dot (e.g. ".form").
	Extensions() []string
	// Process reads item.File.Contents and returns its metadata. A returned error
	// aborts indexing of this item only.
	Process(ctx context.Context, item *models.IndexItem) (*models.Metadata, error)
}

// Processor ids, also used as metadata types.
const (
	TypeForm = "form"
	TypeRPA  = "rpa"
	TypeBPMN = "bpmn"
	TypeDMN  = "dmn"
)

// ErrMissingScriptID is returned by the rpa processor for a script without an id.
var ErrMissingScriptID = errors.New("script id is required")

// Default returns the built-in processors.
func Default() []Processor {
	return []Processor{
		NewFormProcessor(),
		NewRPAProcessor(),
		NewBPMNProcessor(),
		NewDMNProcessor(),
	}
}
