// Package repotest provides in-memory repositories and a transaction-less
// db.DB for service tests.
package repotest

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var errNoSQL = errors.New("repotest: SQL is not supported by the in-memory DB")

var _ db.DB = (*DB)(nil)

// DB runs transaction functions directly against itself. The in-memory
// repositories ignore the handle they are given.
type DB struct {
	mu  sync.Mutex
	txs int
}

func NewDB() *DB {
	return &DB{}
}

// Transactions reports how many WithTx calls were made.
func (d *DB) Transactions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txs
}

func (d *DB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	d.mu.Lock()
	d.txs++
	d.mu.Unlock()
	return txFunc(d)
}

func (d *DB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoSQL
}

func (d *DB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errNoSQL
}

func (d *DB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (d *DB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errNoSQL
}

func (d *DB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return errBatchResults{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return errNoSQL }

type errBatchResults struct{}

func (errBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, errNoSQL }
func (errBatchResults) Query() (pgx.Rows, error)         { return nil, errNoSQL }
func (errBatchResults) QueryRow() pgx.Row                { return errRow{} }
func (errBatchResults) Close() error                     { return nil }
