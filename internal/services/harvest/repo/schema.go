package repo

import (
	"context"

	"almgetl/internal/modkit/repokit"
	perr "almgetl/internal/platform/errors"
)

// Schema is the idempotent DDL for the harvest tables
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS proposicao (
		id                bigserial PRIMARY KEY,
		author            text NOT NULL DEFAULT '',
		presentation_date timestamptz NOT NULL,
		ementa            text NOT NULL DEFAULT '',
		regime            text NOT NULL DEFAULT '',
		situation         text NOT NULL DEFAULT '',
		proposition_type  text NOT NULL DEFAULT '',
		number            text NOT NULL DEFAULT '',
		year              integer,
		city              text NOT NULL DEFAULT 'Belo Horizonte',
		state             text NOT NULL DEFAULT 'Minas Gerais',
		created_at        timestamptz NOT NULL DEFAULT now(),
		updated_at        timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS proposicao_natural_key_idx
		ON proposicao (proposition_type, number, year, presentation_date)`,
	`CREATE TABLE IF NOT EXISTS tramitacao (
		id            bigserial PRIMARY KEY,
		proposicao_id bigint NOT NULL REFERENCES proposicao (id),
		created_at    timestamptz NOT NULL,
		description   text NOT NULL DEFAULT '',
		local         text NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS tramitacao_proposicao_idx ON tramitacao (proposicao_id)`,
}

// EnsureSchema applies Schema in one transaction. A concurrent bootstrap is
// serialized on a fixed advisory lock
func EnsureSchema(ctx context.Context, db repokit.TxRunner) error {
	return db.Tx(ctx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('almgetl.schema'))`); err != nil {
			return perr.FromPostgres(err, "schema lock")
		}
		for _, stmt := range Schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return perr.FromPostgres(err, "ensure schema")
			}
		}
		return nil
	})
}
