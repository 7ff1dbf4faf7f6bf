package service

import (
	"context"

	"almgetl/internal/modkit/repokit"
	"almgetl/internal/services/harvest/domain"
	"almgetl/internal/services/harvest/guardrails"
)

// Upsert implements domain.Loader. The whole batch runs in one transaction:
// any error rolls every proposition of the batch back and is returned as is
func (s *Service) Upsert(ctx context.Context, props []domain.Proposition) (domain.UpsertResult, error) {
	if len(props) == 0 {
		return domain.UpsertResult{}, nil
	}

	bctx, cancel := guardrails.ForBatch(ctx, s.Cfg.Timeouts)
	defer cancel()

	var out domain.UpsertResult
	err := repokit.Bound(bctx, s.tx(), s.Binder, func(r domain.StorageRepo) error {
		var acc domain.UpsertResult
		for _, p := range props {
			res, err := upsertOne(bctx, r, p)
			if err != nil {
				return err
			}
			acc.Add(res)
		}
		out = acc
		return nil
	})
	if err != nil {
		return domain.UpsertResult{}, err
	}
	return out, nil
}

// tx returns the runner batches execute on, with the lock timeout hook when configured
func (s *Service) tx() repokit.TxRunner {
	if h := guardrails.LockTimeoutHook(s.Cfg.Timeouts); h != nil {
		return repokit.WithBeginHooks(s.DB, h)
	}
	return s.DB
}

// upsertOne resolves p by natural key, overwrites or inserts it, then appends
// the entries not already attached
func upsertOne(ctx context.Context, r domain.StorageRepo, p domain.Proposition) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	k := p.Key()

	if err := r.LockKey(ctx, k); err != nil {
		return res, err
	}
	id, found, err := r.FindByKey(ctx, k)
	if err != nil {
		return res, err
	}

	var existing []domain.ProcessingEntry
	if found {
		if err := r.Update(ctx, id, p); err != nil {
			return res, err
		}
		res.Updated = 1
		if existing, err = r.ListEntries(ctx, id); err != nil {
			return res, err
		}
	} else {
		if id, err = r.Insert(ctx, p); err != nil {
			return res, err
		}
		res.Inserted = 1
	}

	for _, e := range p.Processings {
		if containsEntry(existing, e) {
			continue
		}
		if err := r.AppendEntry(ctx, id, e); err != nil {
			return res, err
		}
		existing = append(existing, e)
		res.ProcessingsAdded++
	}
	return res, nil
}

func containsEntry(es []domain.ProcessingEntry, e domain.ProcessingEntry) bool {
	for _, x := range es {
		if x.Equal(e) {
			return true
		}
	}
	return false
}
