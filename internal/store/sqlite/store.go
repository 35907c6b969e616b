// Package sqlite persists the trade ledger and equity history using
// Gorm + SQLite. Persistence is write-behind: the in-memory book stays the
// source of truth and a failed write only costs history, never correctness.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	storemodel "tidemark/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tradeModel = storemodel.TradeModel
type equityModel = storemodel.EquityModel

// TradeRow is the read-side shape of a persisted trade.
type TradeRow struct {
	TradeID     string
	Pair        string
	Side        string
	Price       float64
	Quantity    float64
	RealizedPnL *float64
	Origin      string
	ExecutedAt  time.Time
}

// EquityRow is the read-side shape of a persisted equity sample.
type EquityRow struct {
	TotalEquity float64
	PeakEquity  float64
	SampledAt   time.Time
}

// Store wraps a single SQLite file.
type Store struct {
	db *gorm.DB
}

// New opens (creating if needed) the database at path. ":memory:" is accepted
// for tests.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tradeModel{}, &equityModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertTrade appends one trade row. contextData, if non-nil, is stored as
// JSON alongside the row.
func (s *Store) InsertTrade(ctx context.Context, row TradeRow, contextData map[string]any) error {
	if s == nil || s.db == nil {
		return nil
	}
	now := time.Now().Unix()
	m := tradeModel{
		TradeID:       row.TradeID,
		Pair:          row.Pair,
		Side:          row.Side,
		Price:         row.Price,
		Quantity:      row.Quantity,
		RealizedPnL:   row.RealizedPnL,
		Origin:        row.Origin,
		ExecutedAtUTC: row.ExecutedAt.UTC().Unix(),
		CreatedAtUnix: now,
	}
	if contextData != nil {
		raw, err := json.Marshal(contextData)
		if err != nil {
			return fmt.Errorf("sqlite store: encode trade context: %w", err)
		}
		m.ContextJSON = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// RecentTrades returns up to limit trades, newest first.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]TradeRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var models []tradeModel
	err := s.db.WithContext(ctx).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]TradeRow, 0, len(models))
	for _, m := range models {
		out = append(out, TradeRow{
			TradeID:     m.TradeID,
			Pair:        m.Pair,
			Side:        m.Side,
			Price:       m.Price,
			Quantity:    m.Quantity,
			RealizedPnL: m.RealizedPnL,
			Origin:      m.Origin,
			ExecutedAt:  time.Unix(m.ExecutedAtUTC, 0).UTC(),
		})
	}
	return out, nil
}

// InsertEquity appends one equity sample.
func (s *Store) InsertEquity(ctx context.Context, row EquityRow) error {
	if s == nil || s.db == nil {
		return nil
	}
	m := equityModel{
		TotalEquity:   row.TotalEquity,
		PeakEquity:    row.PeakEquity,
		SampledAtUTC:  row.SampledAt.UTC().Unix(),
		CreatedAtUnix: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// RecentEquity returns up to limit samples, newest first.
func (s *Store) RecentEquity(ctx context.Context, limit int) ([]EquityRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 288
	}
	var models []equityModel
	err := s.db.WithContext(ctx).
		Order("sampled_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]EquityRow, 0, len(models))
	for _, m := range models {
		out = append(out, EquityRow{
			TotalEquity: m.TotalEquity,
			PeakEquity:  m.PeakEquity,
			SampledAt:   time.Unix(m.SampledAtUTC, 0).UTC(),
		})
	}
	return out, nil
}

func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
