// Package runlog 把每轮决策流水线的结果和阶段明细落到 SQLite，
// 方便后续排查与复盘。
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"quorum/internal/decision"
	"quorum/internal/state"
)

// Store 管理运行日志数据库。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// RunRecord 是 runs 表的一行：一轮流水线的最终结论。
type RunRecord struct {
	RunID      string
	Symbol     string
	Trend      string
	Action     string
	EntryPrice string
	StopLoss   string
	TakeProfit string
	Confidence float64
	RiskLevel  string
	Position   float64
	StartedAt  int64
	FinishedAt int64
}

// StageRecord 是 run_log 表的一行：一次阶段执行（含失败）。
type StageRecord struct {
	RunID      string
	Stage      string
	Persona    string
	DurationMS int64
	OK         bool
	Error      string
	At         int64
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("run log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			trend TEXT NOT NULL,
			action TEXT NOT NULL,
			entry_price TEXT NOT NULL,
			stop_loss TEXT NOT NULL,
			take_profit TEXT NOT NULL,
			confidence REAL NOT NULL,
			risk_level TEXT NOT NULL,
			position_size REAL NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			persona TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			ok INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_log_run ON run_log(run_id)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("初始化 run log 表失败: %w", err)
		}
	}
	return nil
}

// SaveRun 落一轮流水线的最终结论，并把每次阶段调用（含被隔离的失败）
// 逐条写入 run_log。价格字段以字符串存储，不可用时写 "NA"。
func (s *Store) SaveRun(ctx context.Context, st *state.State, trend string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := recordFromState(st, trend)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, symbol, trend, action, entry_price, stop_loss, take_profit,
			confidence, risk_level, position_size, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Symbol, rec.Trend, rec.Action,
		rec.EntryPrice, rec.StopLoss, rec.TakeProfit,
		rec.Confidence, rec.RiskLevel, rec.Position,
		rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("写入 runs 失败: %w", err)
	}

	for _, c := range st.Calls {
		ok := 0
		if c.OK {
			ok = 1
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO run_log (run_id, stage, persona, duration_ms, ok, error, at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.RunID, c.Stage, c.Persona, c.DurationMS, ok, c.Reason, c.At.UnixMilli()); err != nil {
			return fmt.Errorf("写入 run_log 失败: %w", err)
		}
	}
	return nil
}

// Calls 返回某一轮的全部阶段调用明细，按时间顺序。
func (s *Store) Calls(ctx context.Context, runID string) ([]StageRecord, error) {
	return s.queryStages(ctx,
		`SELECT run_id, stage, persona, duration_ms, ok, error, at
		 FROM run_log WHERE run_id = ? ORDER BY at, id`, runID)
}

// LatestRuns 返回最近 limit 轮的结论，按完成时间倒序。
func (s *Store) LatestRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, symbol, trend, action, entry_price, stop_loss, take_profit,
			confidence, risk_level, position_size, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.Symbol, &r.Trend, &r.Action,
			&r.EntryPrice, &r.StopLoss, &r.TakeProfit,
			&r.Confidence, &r.RiskLevel, &r.Position,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Failures 返回某一轮被隔离的阶段失败明细。
func (s *Store) Failures(ctx context.Context, runID string) ([]StageRecord, error) {
	return s.queryStages(ctx,
		`SELECT run_id, stage, persona, duration_ms, ok, error, at
		 FROM run_log WHERE run_id = ? AND ok = 0 ORDER BY at, id`, runID)
}

func (s *Store) queryStages(ctx context.Context, query, runID string) ([]StageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StageRecord
	for rows.Next() {
		var r StageRecord
		if err := rows.Scan(&r.RunID, &r.Stage, &r.Persona, &r.DurationMS,
			&r.OK, &r.Error, &r.At); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func recordFromState(st *state.State, trend string) RunRecord {
	rec := RunRecord{
		RunID:      st.RunID,
		Symbol:     st.Symbol,
		Trend:      trend,
		Action:     string(decision.ActionHold),
		EntryPrice: "NA",
		StopLoss:   "NA",
		TakeProfit: "NA",
		Confidence: 0.5,
		RiskLevel:  "medium",
		Position:   0.2,
		StartedAt:  st.StartedAt.UnixMilli(),
		FinishedAt: time.Now().UnixMilli(),
	}
	if d := st.TradingDecision; d != nil {
		rec.Action = string(d.Action)
		rec.Confidence = d.Confidence
		rec.EntryPrice = priceText(d.EntryPrice.Valid, d.EntryPrice.Decimal.String())
		rec.StopLoss = priceText(d.StopLoss.Valid, d.StopLoss.Decimal.String())
		rec.TakeProfit = priceText(d.TakeProfit.Valid, d.TakeProfit.Decimal.String())
	}
	if r := st.FinalRiskDecision; r != nil {
		rec.RiskLevel = r.RiskLevel
		rec.Position = r.PositionSize
	}
	return rec
}

func priceText(valid bool, s string) string {
	if !valid {
		return "NA"
	}
	return s
}
