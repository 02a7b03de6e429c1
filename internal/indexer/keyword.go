package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/models"
)

// syncKeyword brings k in line with next: URIs missing from next are deleted
// and entries whose metadata changed since prev are (re)indexed.
func syncKeyword(ctx context.Context, k keyword.Index, prev, next *Store) error {
	var errs []error
	if prev != nil {
		for uri := range prev.entries {
			if _, ok := next.entries[uri]; ok {
				continue
			}
			if err := k.Delete(ctx, uri); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", uri, err))
			}
		}
	}
	for _, uri := range next.URIs() {
		e := next.entries[uri]
		if prev != nil {
			if old, ok := prev.entries[uri]; ok && old.Metadata == e.Metadata {
				continue
			}
		}
		if err := k.Index(ctx, uri, keywordDocument(e)); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", uri, err))
		}
	}
	return errors.Join(errs...)
}

func keywordDocument(e models.Entry) *keyword.Document {
	doc := &keyword.Document{
		URI:   e.URI,
		Type:  e.Metadata.Type,
		Title: filepath.Base(e.Path),
		IDs:   e.Metadata.DeclaredIDs(),
	}
	for _, s := range e.Metadata.Scripts {
		if s.Name != "" {
			doc.Names = append(doc.Names, s.Name)
		}
	}
	for _, l := range e.Metadata.LinkedIDs {
		doc.Links = append(doc.Links, l.ID)
	}
	return doc
}
