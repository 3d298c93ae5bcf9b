package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MimeLyc/subtitle-batch-translator/internal/jobs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is a jobs.Store backed by a single SQLite file. Each Put
// replaces the job row and its unit checkpoints in one transaction.
type SQLiteStore struct {
	db *sql.DB
}

var _ jobs.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		// embed.FS paths always use forward slashes
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

const jobColumns = `id, name, fingerprint, status, analysis_context, revised, total_units, tokens_used, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*jobs.Job, error) {
	var job jobs.Job
	var status string
	var analysis sql.NullString
	var revised int
	if err := row.Scan(
		&job.ID,
		&job.Name,
		&job.Fingerprint,
		&status,
		&analysis,
		&revised,
		&job.TotalUnits,
		&job.TokensUsed,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = jobs.Status(status)
	job.Revised = revised == 1
	if analysis.Valid {
		job.AnalysisContext = &analysis.String
	}
	job.CompletedIDs = make(map[string]bool)
	job.TranslationMap = make(map[string]string)
	return &job, nil
}

// Get returns the job stored under name, or nil when none exists.
func (s *SQLiteStore) Get(ctx context.Context, name string) (*jobs.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE name = ?`, name)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load job %s: %w", name, err)
	}
	if err := s.loadUnits(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// List returns every stored job ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]*jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, job := range ret {
		if err := s.loadUnits(ctx, job); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (s *SQLiteStore) loadUnits(ctx context.Context, job *jobs.Job) error {
	rows, err := s.db.QueryContext(ctx, `SELECT unit_id, text, completed FROM job_units WHERE job_name = ?`, job.Name)
	if err != nil {
		return fmt.Errorf("load units of %s: %w", job.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, text string
		var completed int
		if err := rows.Scan(&id, &text, &completed); err != nil {
			return err
		}
		job.TranslationMap[id] = text
		if completed == 1 {
			job.CompletedIDs[id] = true
		}
	}
	return rows.Err()
}

// Put writes job and all of its unit translations as one checkpoint.
func (s *SQLiteStore) Put(ctx context.Context, job *jobs.Job) (err error) {
	if job == nil {
		return fmt.Errorf("job is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var analysis sql.NullString
	if job.AnalysisContext != nil {
		analysis = sql.NullString{String: *job.AnalysisContext, Valid: true}
	}
	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id=excluded.id,
			fingerprint=excluded.fingerprint,
			status=excluded.status,
			analysis_context=excluded.analysis_context,
			revised=excluded.revised,
			total_units=excluded.total_units,
			tokens_used=excluded.tokens_used,
			error=excluded.error,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at`,
		job.ID,
		job.Name,
		job.Fingerprint,
		string(job.Status),
		analysis,
		boolToInt(job.Revised),
		job.TotalUnits,
		job.TokensUsed,
		job.Error,
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("upsert job %s: %w", job.Name, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM job_units WHERE job_name = ?`, job.Name); err != nil {
		return fmt.Errorf("clear units of %s: %w", job.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO job_units (job_name, unit_id, text, completed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, text := range job.TranslationMap {
		if _, err = stmt.ExecContext(ctx, job.Name, id, text, boolToInt(job.CompletedIDs[id])); err != nil {
			return fmt.Errorf("write unit %s of %s: %w", id, job.Name, err)
		}
	}

	return tx.Commit()
}

// Delete removes the job and its unit checkpoints.
func (s *SQLiteStore) Delete(ctx context.Context, name string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM job_units WHERE job_name = ?`, name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
