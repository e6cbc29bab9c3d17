package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"efrsbmon/internal/notice"
)

const defaultMaxDocumentBytes = 8 << 20

// EngineConfig controls how documents are fetched.
type EngineConfig struct {
	Method    string // default POST, matching how the registry serves message pages
	UserAgent string
	Timeout   time.Duration
	// MaxBytes caps the document size; larger documents are a FetchError
	// rather than being parsed truncated. Default 8 MiB.
	MaxBytes int64
}

// Engine fetches a notice document and parses it into lots.
type Engine struct {
	cfg    EngineConfig
	client *http.Client
	parser *Parser
}

// NewEngine returns an Engine. client may be nil; a client with cfg.Timeout
// is created then.
func NewEngine(cfg EngineConfig, parser *Parser, client *http.Client) *Engine {
	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxDocumentBytes
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = "efrsbmon/1.0"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Engine{cfg: cfg, client: client, parser: parser}
}

// Extract fetches link and returns its lots in table order.
//
// Errors: *FetchError when the document is unreachable or not HTTP 200;
// ErrParse when the body is unreadable; a join of *MalformedLotError when
// some rows were skipped (lots are still returned).
func (e *Engine) Extract(ctx context.Context, link string) ([]notice.Lot, error) {
	body, err := e.fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	return e.parser.Parse(strings.NewReader(body), link)
}

func (e *Engine) fetch(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, e.cfg.Method, link, nil)
	if err != nil {
		return "", &FetchError{Link: link, Err: err}
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &FetchError{Link: link, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &FetchError{Link: link, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBytes+1))
	if err != nil {
		return "", &FetchError{Link: link, Err: err}
	}
	if int64(len(b)) > e.cfg.MaxBytes {
		return "", &FetchError{Link: link, Err: fmt.Errorf("document exceeds %d bytes", e.cfg.MaxBytes)}
	}
	return string(b), nil
}
