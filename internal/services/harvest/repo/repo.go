// Package repo provides postgres access for harvest writes
package repo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"almgetl/internal/modkit/repokit"
	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/store"
	"almgetl/internal/services/harvest/domain"
)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

// LockString renders k as the text hashed for the advisory lock
func LockString(k domain.NaturalKey) string {
	year := ""
	if k.Year != nil {
		year = strconv.Itoa(*k.Year)
	}
	return strings.Join([]string{
		k.Author,
		k.PresentationDate.UTC().Format("2006-01-02T15:04:05"),
		k.Ementa,
		k.PropositionType,
		k.Number,
		year,
	}, "\x1f")
}

// LockKey takes a transaction scoped advisory lock on the natural key hash
func (r *queries) LockKey(ctx context.Context, k domain.NaturalKey) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, LockString(k))
	return perr.FromPostgresf(err, "lock proposition key")
}

// FindByKey returns the id of the first proposition matching the full natural key
func (r *queries) FindByKey(ctx context.Context, k domain.NaturalKey) (int64, bool, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		SELECT id FROM proposicao
		WHERE author = $1
		  AND presentation_date = $2
		  AND ementa = $3
		  AND proposition_type = $4
		  AND number = $5
		  AND year IS NOT DISTINCT FROM $6::int
		ORDER BY id
		LIMIT 1
	`, k.Author, k.PresentationDate.UTC(), k.Ementa, k.PropositionType, k.Number, k.Year)
	if errors.Is(err, perr.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, perr.FromPostgresf(err, "find proposition")
	}
	return id, true, nil
}

// Insert stores p and returns its id
func (r *queries) Insert(ctx context.Context, p domain.Proposition) (int64, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO proposicao (
			author, presentation_date, ementa, regime, situation,
			proposition_type, number, year, city, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		p.Author, p.PresentationDate.UTC(), p.Ementa, p.Regime, p.Situation,
		p.PropositionType, p.Number, p.Year, p.City, p.State,
	)
	if err != nil {
		return 0, perr.FromPostgresf(err, "insert proposition")
	}
	return id, nil
}

// Update overwrites every column of row id with p
func (r *queries) Update(ctx context.Context, id int64, p domain.Proposition) error {
	err := store.ExecOne(ctx, r.q, `
		UPDATE proposicao SET
			author = $2,
			presentation_date = $3,
			ementa = $4,
			regime = $5,
			situation = $6,
			proposition_type = $7,
			number = $8,
			year = $9,
			city = $10,
			state = $11,
			updated_at = now()
		WHERE id = $1
	`,
		id, p.Author, p.PresentationDate.UTC(), p.Ementa, p.Regime, p.Situation,
		p.PropositionType, p.Number, p.Year, p.City, p.State,
	)
	return perr.FromPostgresf(err, "update proposition %d", id)
}

// ListEntries returns the entries of proposition id in insertion order
func (r *queries) ListEntries(ctx context.Context, id int64) ([]domain.ProcessingEntry, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.ProcessingEntry, error) {
		var e domain.ProcessingEntry
		if err := row.Scan(&e.CreatedAt, &e.Description, &e.Local); err != nil {
			return e, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		return e, nil
	}, `
		SELECT created_at, description, local
		FROM tramitacao
		WHERE proposicao_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list processings of %d", id)
	}
	return out, nil
}

// AppendEntry attaches e to proposition id
func (r *queries) AppendEntry(ctx context.Context, id int64, e domain.ProcessingEntry) error {
	err := store.ExecOne(ctx, r.q, `
		INSERT INTO tramitacao (proposicao_id, created_at, description, local)
		VALUES ($1, $2, $3, $4)
	`, id, e.CreatedAt.UTC(), e.Description, e.Local)
	return perr.FromPostgresf(err, "append processing to %d", id)
}
