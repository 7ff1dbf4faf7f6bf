package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
	"almgetl/internal/services/harvest/domain"
)

// ErrAlreadyRunning is returned by Run while another run is in progress
var ErrAlreadyRunning = perr.Unavailablef("harvest run already in progress")

type pageResult struct {
	page  int
	items []domain.RawProposition
	err   error
}

// Run implements domain.RunnerPort. It harvests windows of Workers pages until
// a whole window yields no records. Page level failures are logged and counted;
// the only error returned is ctx's once it is done, or ErrAlreadyRunning
func (s *Service) Run(ctx context.Context) (domain.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.RunSummary{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	sum := domain.RunSummary{RunID: s.newID(), StartedAt: s.now().UTC()}
	ctx = logger.WithRun(ctx, sum.RunID)
	log := logger.C(ctx)
	log.Info().Int("workers", s.Cfg.Workers).Msg("harvest run started")
	s.Metrics.start()

	w := s.Cfg.Workers
	for cursor := 0; ; cursor += w {
		if ctx.Err() != nil {
			break
		}
		if !s.runWindow(ctx, cursor, w, &sum) {
			log.Debug().Int("cursor", cursor).Msg("window yielded no records; pagination exhausted")
			break
		}
	}

	sum.FinishedAt = s.now().UTC()
	sum.Cancelled = ctx.Err() != nil
	s.record(sum)
	s.Metrics.finish(sum)

	log.Info().
		Int("pages", sum.Pages).
		Int("empty_pages", sum.EmptyPages).
		Int("fetch_failed", sum.FetchFailed).
		Int("records", sum.Records).
		Int("dropped", sum.Dropped).
		Int("inserted", sum.Inserted).
		Int("updated", sum.Updated).
		Int("processings_added", sum.ProcessingsAdded).
		Int("failed_pages", sum.FailedPages).
		Bool("cancelled", sum.Cancelled).
		Dur("elapsed", sum.Elapsed()).
		Msg("harvest run finished")

	if sum.Cancelled {
		return sum, ctx.Err()
	}
	return sum, nil
}

// runWindow fetches pages [cursor, cursor+w) concurrently and processes each
// result in completion order. The pool is joined before it returns; the result
// reports whether any page yielded records
func (s *Service) runWindow(ctx context.Context, cursor, w int, sum *domain.RunSummary) bool {
	results := make(chan pageResult, w)

	var g errgroup.Group
	g.SetLimit(w)
	for i := 0; i < w; i++ {
		page := cursor + i
		g.Go(func() error {
			items, err := s.fetchPage(ctx, page)
			results <- pageResult{page: page, items: items, err: err}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	yielded := false
	for r := range results {
		sum.Pages++
		if r.err != nil {
			sum.FetchFailed++
			s.Metrics.page("failed")
		}
		if len(r.items) == 0 {
			sum.EmptyPages++
			if r.err == nil {
				s.Metrics.page("empty")
			}
			continue
		}
		s.Metrics.page("records")
		yielded = true
		s.processPage(ctx, r.page, r.items, sum)
	}
	return yielded
}

// fetchPage calls the fetcher, turning a panic into a failed page
func (s *Service) fetchPage(ctx context.Context, page int) (items []domain.RawProposition, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items, err = nil, perr.PanicErrf("fetch page %d panicked: %v", page, rec)
			logger.C(ctx).Error().Err(err).Int("page", page).Msg("fetch panicked")
		}
	}()
	return s.Fetch.Fetch(ctx, page)
}

// processPage runs transform and load for one page. Every failure, panics
// included, is contained here and counted against the page
func (s *Service) processPage(ctx context.Context, page int, items []domain.RawProposition, sum *domain.RunSummary) {
	ctx = logger.WithPage(ctx, page)
	log := logger.C(ctx)
	start := s.now()

	defer func() {
		if rec := recover(); rec != nil {
			sum.FailedPages++
			err := perr.PanicErrf("%v", rec)
			s.Metrics.batchFailed(perr.ErrorCodePanic.String())
			log.Error().Err(err).Msg("page stage panicked; skipped")
		}
	}()

	props, dropped := s.Xform.Transform(ctx, items)
	transformed := s.now()
	tookTransform := transformed.Sub(start)
	sum.Records += len(items)
	sum.Dropped += dropped
	s.Metrics.transformed(len(items), dropped, tookTransform)

	if len(props) == 0 {
		log.Warn().
			Int("records", len(items)).
			Int("dropped", dropped).
			Dur("transform", tookTransform).
			Msg("page had no valid records")
		return
	}

	res, err := s.Upsert(ctx, props)
	tookLoad := s.now().Sub(transformed)
	if err != nil {
		sum.FailedPages++
		code := perr.CodeOf(err)
		s.Metrics.batchFailed(code.String())
		log.Error().
			Err(err).
			Str("code", code.String()).
			Str("field", perr.FieldOf(err)).
			Bool("retryable", perr.Retryable(err)).
			Bool("duplicate", perr.IsDuplicateKey(err)).
			Int("propositions", len(props)).
			Dur("transform", tookTransform).
			Dur("load", tookLoad).
			Msg("batch load failed; abandoned")
		return
	}

	sum.Add(res)
	s.Metrics.loaded(res, tookLoad)
	log.Info().
		Int("records", len(items)).
		Int("dropped", dropped).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("processings_added", res.ProcessingsAdded).
		Dur("transform", tookTransform).
		Dur("load", tookLoad).
		Msg("page loaded")
}
