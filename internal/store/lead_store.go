// Package store provides Postgres-backed persistence for review leads.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/metrics"
)

// Config controls the Postgres connection pool used for lead rows.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the slice of pgxpool.Pool the store depends on. pgxmock
// satisfies it in tests.
type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// LeadStore writes and reads lead rows in Postgres.
type LeadStore struct {
	pool pgxPool
	log  *zap.Logger
}

// New creates a Postgres-backed LeadStore using the provided config.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*LeadStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadStore{pool: pool, log: log}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, log *zap.Logger) (*LeadStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadStore{pool: pool, log: log}, nil
}

// Close releases the underlying pool resources.
func (s *LeadStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS leads (
	id            BIGSERIAL PRIMARY KEY,
	company_name  TEXT NOT NULL DEFAULT 'Unknown',
	reviewer_name TEXT NOT NULL DEFAULT 'Unknown',
	review_title  TEXT NOT NULL DEFAULT '',
	review_text   TEXT NOT NULL,
	rating        DOUBLE PRECISION,
	pain_tags     TEXT NOT NULL DEFAULT '',
	source_url    TEXT NOT NULL,
	captured_at   TIMESTAMPTZ NOT NULL,
	lead_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'new',
	notes         TEXT NOT NULL DEFAULT '',
	contacted_at  TIMESTAMPTZ,
	converted_at  TIMESTAMPTZ,
	identity_hash TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS leads_score_idx ON leads (lead_score DESC);
CREATE INDEX IF NOT EXISTS leads_status_idx ON leads (status);
CREATE INDEX IF NOT EXISTS leads_company_idx ON leads (company_name);
`

// EnsureSchema creates the leads table and its indexes if missing.
func (s *LeadStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create leads schema: %w", err)
	}
	return nil
}

const insertSQL = `
INSERT INTO leads (
	company_name, reviewer_name, review_title, review_text, rating,
	pain_tags, source_url, captured_at, lead_score, status, notes, identity_hash
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (identity_hash) DO NOTHING`

// Save inserts the reviews, counting how many were new and how many
// collided with an existing identity hash. Individual insert failures
// are logged and skipped so one bad row never sinks a batch.
func (s *LeadStore) Save(ctx context.Context, reviews []lead.Review) (saved, duplicates int, err error) {
	for _, r := range reviews {
		tag, execErr := s.pool.Exec(ctx, insertSQL,
			r.CompanyName,
			r.ReviewerName,
			r.Title,
			r.Body,
			r.Rating,
			strings.Join(r.PainTags, ","),
			r.SourceURL,
			r.CapturedAt,
			r.Score,
			string(statusOrNew(r.Status)),
			r.Notes,
			r.IdentityHash,
		)
		if execErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(execErr, &pgErr) && pgErr.Code == "23505" {
				duplicates++
				continue
			}
			if ctx.Err() != nil {
				return saved, duplicates, ctx.Err()
			}
			s.log.Warn("lead insert failed, skipping",
				zap.String("identity_hash", r.IdentityHash),
				zap.Error(execErr))
			continue
		}
		if tag.RowsAffected() == 0 {
			duplicates++
			continue
		}
		saved++
	}
	metrics.LeadsSavedTotal.Add(float64(saved))
	metrics.DuplicatesTotal.Add(float64(duplicates))
	return saved, duplicates, nil
}

func statusOrNew(st lead.Status) lead.Status {
	if st == "" {
		return lead.StatusNew
	}
	return st
}

// Filter narrows and orders a lead query. Zero values mean "no filter".
type Filter struct {
	Pain     string
	Status   lead.Status
	MinScore float64
	SortBy   string
	Limit    int
}

// sortClauses maps the public sort keys onto ORDER BY clauses. Unknown
// keys fall back to score.
var sortClauses = map[string]string{
	"score":   "lead_score DESC",
	"rating":  "rating ASC",
	"date":    "captured_at DESC",
	"company": "company_name ASC",
}

const selectColumns = `id, company_name, reviewer_name, review_title, review_text,
	rating, pain_tags, source_url, captured_at, lead_score, status, notes,
	contacted_at, converted_at, identity_hash`

// Query returns leads matching every set filter, ordered per SortBy.
func (s *LeadStore) Query(ctx context.Context, f Filter) ([]lead.Review, error) {
	var (
		conds []string
		args  []any
	)
	if f.Pain != "" {
		args = append(args, "%"+f.Pain+"%")
		conds = append(conds, fmt.Sprintf("pain_tags LIKE $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.MinScore > 0 {
		args = append(args, f.MinScore)
		conds = append(conds, fmt.Sprintf("lead_score >= $%d", len(args)))
	}

	query := "SELECT " + selectColumns + " FROM leads"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	order, ok := sortClauses[f.SortBy]
	if !ok {
		order = sortClauses["score"]
	}
	query += " ORDER BY " + order
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []lead.Review
	for rows.Next() {
		r, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return out, nil
}

func scanLead(rows pgx.Rows) (lead.Review, error) {
	var (
		r        lead.Review
		painTags string
		status   string
	)
	err := rows.Scan(
		&r.ID,
		&r.CompanyName,
		&r.ReviewerName,
		&r.Title,
		&r.Body,
		&r.Rating,
		&painTags,
		&r.SourceURL,
		&r.CapturedAt,
		&r.Score,
		&status,
		&r.Notes,
		&r.ContactedAt,
		&r.ConvertedAt,
		&r.IdentityHash,
	)
	if err != nil {
		return lead.Review{}, err
	}
	if painTags != "" {
		r.PainTags = strings.Split(painTags, ",")
	}
	r.Status = lead.Status(status)
	return r, nil
}

const updateStatusSQL = `
UPDATE leads SET
	status = $1,
	notes = COALESCE(NULLIF($2, ''), notes),
	contacted_at = CASE WHEN $1 = 'contacted' THEN COALESCE(contacted_at, NOW()) ELSE contacted_at END,
	converted_at = CASE WHEN $1 = 'converted' THEN COALESCE(converted_at, NOW()) ELSE converted_at END
WHERE id = $3`

// UpdateStatus moves a lead through the pipeline. The first transition
// into contacted or converted stamps the matching timestamp; repeats
// keep the original stamp.
func (s *LeadStore) UpdateStatus(ctx context.Context, id int64, status lead.Status, notes string) error {
	tag, err := s.pool.Exec(ctx, updateStatusSQL, string(status), notes, id)
	if err != nil {
		return fmt.Errorf("update lead %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead %d not found", id)
	}
	return nil
}
