package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

const createBacktestRunsTable = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    id          BIGSERIAL   PRIMARY KEY,
    profile     TEXT        NOT NULL,
    symbol      TEXT        NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    summary     JSONB       NOT NULL,
    trades      JSONB       NOT NULL,
    equity      JSONB       NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_profile_created
    ON backtest_runs (profile, created_at DESC);
`

// BacktestRun is a persisted run with its database identity.
type BacktestRun struct {
	ID        int64                 `json:"id"`
	Profile   string                `json:"profile"`
	Symbol    string                `json:"symbol"`
	CreatedAt time.Time             `json:"created_at"`
	Result    domain.BacktestResult `json:"result"`
}

type BacktestRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBacktestRepository(pool PgxPool, tracer trace.Tracer) *BacktestRepository {
	return &BacktestRepository{pool: pool, tracer: tracer}
}

func (r *BacktestRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "backtest-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBacktestRunsTable)
	return err
}

// SaveRun persists a completed backtest and returns its assigned id. JSONB
// columns carry the InfFloat sentinel untouched.
func (r *BacktestRepository) SaveRun(ctx context.Context, result *domain.BacktestResult) (int64, error) {
	_, span := r.tracer.Start(ctx, "backtest-repo.save-run")
	defer span.End()

	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return 0, err
	}
	trades, err := json.Marshal(result.Trades)
	if err != nil {
		return 0, err
	}
	equity, err := json.Marshal(result.EquityCurve)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO backtest_runs (profile, symbol, summary, trades, equity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		result.Summary.Profile, result.Summary.Symbol, summary, trades, equity,
	).Scan(&id)
	return id, err
}

// GetRun loads a single run by id.
func (r *BacktestRepository) GetRun(ctx context.Context, id int64) (*BacktestRun, error) {
	_, span := r.tracer.Start(ctx, "backtest-repo.get-run")
	defer span.End()

	var run BacktestRun
	var summary, trades, equity []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, profile, symbol, created_at, summary, trades, equity
		 FROM backtest_runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.Profile, &run.Symbol, &run.CreatedAt, &summary, &trades, &equity)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(summary, &run.Result.Summary); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(trades, &run.Result.Trades); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(equity, &run.Result.EquityCurve); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns recent run summaries, newest first, without the bulky
// trade and equity payloads.
func (r *BacktestRepository) ListRuns(ctx context.Context, limit int) ([]BacktestRun, error) {
	_, span := r.tracer.Start(ctx, "backtest-repo.list-runs")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, profile, symbol, created_at, summary
		 FROM backtest_runs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BacktestRun
	for rows.Next() {
		var run BacktestRun
		var summary []byte
		if err := rows.Scan(&run.ID, &run.Profile, &run.Symbol, &run.CreatedAt, &summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &run.Result.Summary); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
