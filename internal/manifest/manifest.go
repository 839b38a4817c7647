package manifest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed migrations/001_init_manifest.sql
var initMigration string

var ErrNotFound = errors.New("not found")

// Виды артефактов.
const (
	KindSVG   = "svg"
	KindFacts = "facts"
	KindPNG   = "png"
)

// Статусы прогона.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ============================================================
// Models
// ============================================================

type Run struct {
	ID         string `json:"id"`
	ItemID     string `json:"item_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type Artifact struct {
	RunID     string `json:"run_id"`
	ItemID    string `json:"item_id"`
	VariantID string `json:"variant_id,omitempty"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	SHA256    string `json:"sha256"`
	CreatedAt string `json:"created_at,omitempty"`
}

// NewRunID возвращает новый id прогона.
func NewRunID() string {
	return uuid.NewString()
}

// Checksum: hex sha256 содержимого артефакта.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ============================================================
// SQLite Repository
// ============================================================

// Repository: журнал артефактов. Запись идёт через одно соединение.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open открывает sqlite по указанному пути и применяет миграцию.
func Open(ctx context.Context, dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := New(db)
	if err := r.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Init применяет встроенную миграцию (идемпотентно).
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, initMigration); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (r *Repository) BeginRun(ctx context.Context, runID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO runs (id, item_id, status)
        VALUES (?, ?, ?)
    `, runID, itemID, StatusRunning)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun закрывает прогон; runErr == nil означает успех.
func (r *Repository) FinishRun(ctx context.Context, runID string, runErr error) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE runs
        SET status = ?, error = ?, finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
        WHERE id = ?
    `, status, msg, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, a Artifact) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO artifacts (run_id, item_id, variant_id, kind, path, sha256)
        VALUES (?, ?, ?, ?, ?, ?)
    `, a.RunID, a.ItemID, a.VariantID, a.Kind, a.Path, a.SHA256)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", a.Path, err)
	}
	return nil
}

// ListByItem возвращает артефакты item в порядке записи.
func (r *Repository) ListByItem(ctx context.Context, itemID string) ([]Artifact, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT run_id, item_id, variant_id, kind, path, sha256, created_at
        FROM artifacts
        WHERE item_id = ?
        ORDER BY id
    `, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Artifact{}
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.RunID, &a.ItemID, &a.VariantID, &a.Kind, &a.Path, &a.SHA256, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestRun возвращает последний начатый прогон item.
func (r *Repository) LatestRun(ctx context.Context, itemID string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, item_id, status, error, started_at, finished_at
        FROM runs
        WHERE item_id = ?
        ORDER BY started_at DESC, rowid DESC
        LIMIT 1
    `, itemID)

	var run Run
	if err := row.Scan(&run.ID, &run.ItemID, &run.Status, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run for %s: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}
