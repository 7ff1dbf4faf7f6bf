// Package ingest holds adapter shims for harvest ingest ports
package ingest

import (
	"context"

	"almgetl/internal/adapters/ingest/almg"
	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
	"almgetl/internal/services/harvest/domain"
)

// pageFetcher is the subset of *almg.Client the shim needs
type pageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]almg.Item, error)
}

// fetcher implements domain.Fetcher over the ALMG client
type fetcher struct {
	c pageFetcher
}

// NewFetcher constructs a domain.Fetcher over a fresh ALMG client.
// Config reading stays in the module so service and repos never see platform deps
func NewFetcher(o almg.Options) domain.Fetcher {
	return &fetcher{c: almg.NewClient(o)}
}

// Fetch returns the items of page. After retries are exhausted the failure is
// logged and returned alongside an empty result
func (f *fetcher) Fetch(ctx context.Context, page int) ([]domain.RawProposition, error) {
	items, err := f.c.FetchPage(ctx, page)
	if err != nil {
		if ctx.Err() == nil {
			logger.C(ctx).Error().
				Err(err).
				Int("page", page).
				Str("code", perr.CodeOf(err).String()).
				Msg("page fetch failed; treating as empty")
		}
		return nil, err
	}
	return items, nil
}
