// Package models defines the data shapes shared by processors, the indexer and its store.
package models

import "time"

// File is a project artifact whose contents have already been loaded as text.
// The indexing core never mutates it.
type File struct {
	Contents     string     `json:"-"`
	Dir          string     `json:"dir"`
	Ext          string     `json:"ext"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	URI          string     `json:"uri"`
}

// IndexItem pairs a File with the record of processing it during one pass.
type IndexItem struct {
	File *File `json:"file"`
	// URI mirrors File.URI and is the key of the item in the index.
	URI string `json:"uri"`
	// Processor is the id of the processor the item was dispatched to.
	Processor string `json:"processor,omitempty"`
	// Metadata is set once the item has been processed successfully.
	Metadata *Metadata `json:"metadata,omitempty"`
	// LocalValue is a processor-derived scalar, e.g. the parsed form or script id.
	LocalValue string `json:"local_value,omitempty"`
}

// NewIndexItem returns an unprocessed item for f.
func NewIndexItem(f *File) *IndexItem {
	return &IndexItem{File: f, URI: f.URI}
}
