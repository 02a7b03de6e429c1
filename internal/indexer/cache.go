package indexer

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperjump/modelindex/internal/fileid"
	"github.com/hyperjump/modelindex/internal/models"
)

type cachedResult struct {
	meta       *models.Metadata
	localValue string
}

// resultCache memoizes processed metadata for unchanged files.
// Only successful and recovered results are cached; hard failures are retried
// on every pass.
type resultCache struct {
	lru *lru.Cache[string, cachedResult]
}

func newResultCache(size int) (*resultCache, error) {
	c, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, err
	}
	return &resultCache{lru: c}, nil
}

// get returns a private copy of the cached metadata.
func (c *resultCache) get(key string) (cachedResult, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return cachedResult{}, false
	}
	return cachedResult{meta: v.meta.Clone(), localValue: v.localValue}, true
}

func (c *resultCache) add(key string, meta *models.Metadata, localValue string) {
	c.lru.Add(key, cachedResult{meta: meta.Clone(), localValue: localValue})
}

func cacheKey(processorID string, item *models.IndexItem) string {
	return processorID + "\x00" + item.URI + "\x00" + fileid.ContentHash(item.File.Contents)
}
