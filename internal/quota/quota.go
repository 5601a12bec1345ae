// Package quota meters feature usage per user and day. The ledger backs
// both sides of the reading pipeline: the pre-flight check and the
// post-success usage log.
package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hexcast/internal/reading"
)

// DefaultDailyLimit applies to users with no row in user_quotas.
const DefaultDailyLimit = 10

// Ledger is the SQLite-backed quota store.
type Ledger struct {
	db           *sql.DB
	defaultLimit int
	now          func() time.Time
}

// New prepares the quota schema and returns a ledger. defaultLimit <= 0
// falls back to DefaultDailyLimit.
func New(db *sql.DB, defaultLimit int) (*Ledger, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultDailyLimit
	}
	l := &Ledger{db: db, defaultLimit: defaultLimit, now: time.Now}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_quotas (
		user_id TEXT PRIMARY KEY,
		daily_limit INTEGER NOT NULL,
		unlimited INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS usage_log (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		feature TEXT NOT NULL,
		used_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_user_feature ON usage_log(user_id, feature, used_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create quota schema: %w", err)
	}
	return nil
}

// Check implements reading.QuotaChecker. Days roll over at midnight UTC.
func (l *Ledger) Check(ctx context.Context, userID, feature string) (reading.Decision, error) {
	limit, unlimited, err := l.limitFor(ctx, userID)
	if err != nil {
		return reading.Decision{}, err
	}
	if unlimited {
		return reading.Decision{Allowed: true}, nil
	}

	used, err := l.usedSince(ctx, userID, feature, startOfDayUTC(l.now()))
	if err != nil {
		return reading.Decision{}, err
	}

	if used >= limit {
		return reading.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("daily limit reached (%d/%d)", used, limit),
		}, nil
	}
	return reading.Decision{Allowed: true}, nil
}

// Log implements reading.UsageLogger.
func (l *Ledger) Log(ctx context.Context, userID, feature string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO usage_log (id, user_id, feature, used_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), userID, feature, l.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// SetLimit pins a per-user daily limit, or marks the user unlimited.
func (l *Ledger) SetLimit(ctx context.Context, userID string, dailyLimit int, unlimited bool) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO user_quotas (user_id, daily_limit, unlimited, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET daily_limit = excluded.daily_limit,
		   unlimited = excluded.unlimited, updated_at = excluded.updated_at`,
		userID, dailyLimit, boolToInt(unlimited), l.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set user quota: %w", err)
	}
	return nil
}

// UsedToday reports today's consumption for a user and feature.
func (l *Ledger) UsedToday(ctx context.Context, userID, feature string) (int, error) {
	return l.usedSince(ctx, userID, feature, startOfDayUTC(l.now()))
}

func (l *Ledger) limitFor(ctx context.Context, userID string) (limit int, unlimited bool, err error) {
	var flag int
	row := l.db.QueryRowContext(ctx,
		`SELECT daily_limit, unlimited FROM user_quotas WHERE user_id = ?`, userID)
	err = row.Scan(&limit, &flag)
	if err == sql.ErrNoRows {
		return l.defaultLimit, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query user quota: %w", err)
	}
	return limit, flag != 0, nil
}

func (l *Ledger) usedSince(ctx context.Context, userID, feature string, since time.Time) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_log WHERE user_id = ? AND feature = ? AND used_at >= ?`,
		userID, feature, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}
	return n, nil
}

func startOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
