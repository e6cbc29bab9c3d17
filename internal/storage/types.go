package storage

import (
	"context"
	"errors"
	"time"

	"efrsbmon/internal/notice"
)

var (
	// ErrUnavailable means no connection to the store could be obtained.
	ErrUnavailable = errors.New("store unavailable")
	// ErrQuery means a query or update failed after a connection was obtained.
	ErrQuery = errors.New("store query failed")
)

// Store is the persistence API used by the pipeline.
type Store interface {
	// FetchUnsent returns up to limit unsent notices of the recognized types
	// with id greater than afterID, ordered by id.
	FetchUnsent(ctx context.Context, afterID int64, limit int) ([]notice.Notice, error)
	// MarkSent sets the sent flag for id. Marking an already sent or missing
	// id is not an error.
	MarkSent(ctx context.Context, id int64) error
	Close() error
}

// Config configures storage.
//
// Driver values:
//   - "postgres" (default): DSN, or Host/Port/Name/User/Password
//   - "sqlite": Path to the database file, ":memory:" for an in-process database
type Config struct {
	Driver string

	DSN      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32

	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

const (
	tableName   = "messages"
	colID       = "id"
	colLink     = "сообщение_ссылка"
	colType     = "тип_сообщения"
	colSentFlag = "send_to_channel"
)

func typeNames() []string {
	types := notice.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
