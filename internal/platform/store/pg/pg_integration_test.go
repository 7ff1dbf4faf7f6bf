//go:build integration_pg
// +build integration_pg

package pg

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"almgetl/internal/platform/testkit/pgtest"
)

func TestOpen_PingAndTempTable_Integration(t *testing.T) {
	dsn := pgtest.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, MaxConns: 2, AppName: "almgetl-pg-integration"}, nil, func(pc *pgxpool.Config) {
		pc.MinConns = 1
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if err := p.Pool.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `create temporary table t (numero text, ano int)`); err != nil {
		t.Fatalf("create temp table: %v", err)
	}
	batch := &pgx.Batch{}
	batch.Queue(`insert into t (numero, ano) values ($1,$2)`, "42", 2023)
	br := conn.SendBatch(ctx, batch)
	if _, err := br.Exec(); err != nil {
		_ = br.Close()
		t.Fatalf("insert: %v", err)
	}
	if err := br.Close(); err != nil {
		t.Fatalf("batch close: %v", err)
	}

	var numero string
	if err := conn.QueryRow(ctx, `select numero from t where ano = $1`, 2023).Scan(&numero); err != nil {
		t.Fatalf("select: %v", err)
	}
	if numero != "42" {
		t.Fatalf("numero = %q", numero)
	}

	var app string
	if err := conn.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil {
		t.Fatalf("app name: %v", err)
	}
	if app != "almgetl-pg-integration" {
		t.Fatalf("application_name = %q", app)
	}
}
