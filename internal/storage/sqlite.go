package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"efrsbmon/internal/notice"
	logx "efrsbmon/pkg/logx"
)

//go:embed schema.sql
var sqliteSchema string

var (
	sqliteFetchUnsent = fmt.Sprintf(
		`SELECT %s, %q, %q FROM %s WHERE %s = 0 AND %q IN (%s) AND %s > ? ORDER BY %s LIMIT ?`,
		colID, colLink, colType, tableName, colSentFlag, colType,
		strings.TrimSuffix(strings.Repeat("?, ", len(notice.Types())), ", "), colID, colID,
	)
	sqliteMarkSent = fmt.Sprintf(`UPDATE %s SET %s = 1 WHERE %s = ?`, tableName, colSentFlag, colID)
)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// SQLite prefers a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Debug("sqlite store ready", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) FetchUnsent(ctx context.Context, afterID int64, limit int) ([]notice.Notice, error) {
	if limit <= 0 {
		limit = 100
	}
	args := make([]any, 0, len(notice.Types())+2)
	for _, t := range typeNames() {
		args = append(args, t)
	}
	args = append(args, afterID, limit)

	rows, err := s.db.QueryContext(ctx, sqliteFetchUnsent, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []notice.Notice
	for rows.Next() {
		var (
			n   notice.Notice
			typ string
		)
		if err := rows.Scan(&n.ID, &n.Link, &typ); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQuery, err)
		}
		n.Type = notice.Type(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return out, nil
}

func (s *sqliteStore) MarkSent(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, sqliteMarkSent, id); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
