package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"efrsbmon/internal/notice"
	logx "efrsbmon/pkg/logx"
)

type postgresStore struct {
	pool  *pgxpool.Pool
	log   logx.Logger
	types []string
}

var (
	pgFetchUnsent = fmt.Sprintf(
		`SELECT %s, %q, %q::text FROM %s WHERE %s = FALSE AND %q::text = ANY($1) AND %s > $2 ORDER BY %s LIMIT $3`,
		colID, colLink, colType, tableName, colSentFlag, colType, colID, colID,
	)
	pgMarkSent = fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1`, tableName, colSentFlag, colID)
)

// postgresDSN builds a connection URL from discrete parameters when no DSN is set.
func postgresDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.Name) == "" {
		return "", errors.New("postgres requires dsn or host and name")
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(strings.TrimSpace(cfg.Host), port),
		Path:   "/" + strings.TrimSpace(cfg.Name),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	return u.String(), nil
}

func openPostgres(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	// Connections are taken per page and released; nothing is held between cycles.
	pcfg.MinConns = 0
	pcfg.MaxConnIdleTime = 2 * time.Minute
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	} else {
		pcfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		// The pool reconnects lazily; an unreachable database at startup is
		// reported but does not stop the process.
		log.Warn("postgres ping failed", logx.Err(err))
	}
	return &postgresStore{pool: pool, log: log, types: typeNames()}, nil
}

func (s *postgresStore) FetchUnsent(ctx context.Context, afterID int64, limit int) ([]notice.Notice, error) {
	if limit <= 0 {
		limit = 100
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, pgFetchUnsent, s.types, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	out := make([]notice.Notice, 0, limit)
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

func (s *postgresStore) MarkSent(ctx context.Context, id int64) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, pgMarkSent, id); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
