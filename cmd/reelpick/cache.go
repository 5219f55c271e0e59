package main

import (
	"context"
	"sync"

	"github.com/Clark-Hu/reelpick/internal/catalog"
)

// detailsCache remembers successful Details lookups for one command run, so
// pick can resolve ids and then read runtimes without a second round trip.
type detailsCache struct {
	catalog.Client

	mu      sync.Mutex
	details map[int]*catalog.Details
}

func newDetailsCache(client catalog.Client) *detailsCache {
	return &detailsCache{Client: client, details: make(map[int]*catalog.Details)}
}

func (c *detailsCache) Details(ctx context.Context, id int) (*catalog.Details, error) {
	c.mu.Lock()
	d, ok := c.details[id]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := c.Client.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.details[id] = d
	c.mu.Unlock()
	return d, nil
}
