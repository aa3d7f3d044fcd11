package notes

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const noteSchema = `
	CREATE TABLE IF NOT EXISTS note (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_note_updated_at ON note (updated_at DESC);`

const selectNoteColumns = `SELECT id, title, content, created_at, updated_at FROM note`

// SqliteRepo implements Repo against a local SQLite database. Every operation
// is scheduled onto a single run loop goroutine, so concurrent calls against
// one instance serialize and never interleave partial writes on the store.
type SqliteRepo struct {
	db        *sql.DB
	jobs      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewSqliteRepo(path string) (*SqliteRepo, error) {
	return newSqliteRepo(fmt.Sprintf("file:%s?_foreign_keys=on", path))
}

// NewInMemorySqliteRepo returns a repo backed by a volatile, isolated store
// with a behavioral contract identical to the on-disk one. Used so that tests
// never touch durable state.
func NewInMemorySqliteRepo() (*SqliteRepo, error) {
	// unique name per instance, otherwise two in-memory repos would share state
	return newSqliteRepo(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

func newSqliteRepo(dsn string) (*SqliteRepo, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// one connection backs the single execution context
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(noteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create note schema: %w", err)
	}

	repo := &SqliteRepo{
		db:   db,
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	go repo.run()

	return repo, nil
}

func (r *SqliteRepo) run() {
	for {
		select {
		case job := <-r.jobs:
			job()
		case <-r.done:
			if err := r.db.Close(); err != nil {
				log.Errorf("close sqlite notes db: %s", err)
			}
			return
		}
	}
}

// Close tears the repo down. Operations not yet scheduled, and callers still
// waiting on a scheduled one, resolve with ErrContextUnavailable.
func (r *SqliteRepo) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// execute schedules job onto the store's execution context and waits for it.
// The error channel is buffered so an abandoned job never blocks the run loop.
func (r *SqliteRepo) execute(ctx context.Context, job func() error) error {
	errCh := make(chan error, 1)
	select {
	case r.jobs <- func() { errCh <- job() }:
	case <-r.done:
		return ErrContextUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-r.done:
		return ErrContextUnavailable
	}
}

func (r *SqliteRepo) FetchAll(ctx context.Context) ([]Note, error) {
	var fetched []Note
	err := r.execute(ctx, func() error {
		notes, err := r.queryNotes(ctx, selectNoteColumns+` ORDER BY updated_at DESC`)
		if err != nil {
			return fetchFailed(err)
		}
		fetched = notes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fetched, nil
}

// Create stores the given note verbatim, timestamps included. Refreshing
// updated_at on the way in is deliberately left to the caller here; Update is
// the operation that stamps store time.
func (r *SqliteRepo) Create(ctx context.Context, note Note) (Note, error) {
	err := r.execute(ctx, func() error {
		_, err := r.db.ExecContext(
			ctx,
			`INSERT INTO note (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			note.ID, note.Title, note.Content, note.CreatedAt.UnixNano(), note.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return saveFailed(err)
		}
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (r *SqliteRepo) Update(ctx context.Context, note Note) (Note, error) {
	var updated Note
	err := r.execute(ctx, func() error {
		existing, err := r.getByID(ctx, note.ID)
		if err != nil {
			return saveFailed(err)
		}
		if existing == nil {
			return ErrNoteNotFound
		}

		updatedAt := time.Now().UTC()
		if _, err := r.db.ExecContext(
			ctx,
			`UPDATE note SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
			note.Title, note.Content, updatedAt.UnixNano(), note.ID,
		); err != nil {
			return saveFailed(err)
		}

		updated = Note{
			ID:        existing.ID,
			Title:     note.Title,
			Content:   note.Content,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: updatedAt,
		}
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return updated, nil
}

func (r *SqliteRepo) Delete(ctx context.Context, note Note) error {
	return r.execute(ctx, func() error {
		existing, err := r.getByID(ctx, note.ID)
		if err != nil {
			return deleteFailed(err)
		}
		if existing == nil {
			return ErrNoteNotFound
		}

		if _, err := r.db.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, note.ID); err != nil {
			return deleteFailed(err)
		}
		return nil
	})
}

func (r *SqliteRepo) Search(ctx context.Context, query string) ([]Note, error) {
	var found []Note
	err := r.execute(ctx, func() error {
		notes, err := r.queryNotes(
			ctx,
			selectNoteColumns+` WHERE instr(lower(title), lower(?)) > 0 OR instr(lower(content), lower(?)) > 0 ORDER BY updated_at DESC`,
			query, query,
		)
		if err != nil {
			return searchFailed(err)
		}
		found = notes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *SqliteRepo) GetByID(ctx context.Context, id string) (*Note, error) {
	var note *Note
	err := r.execute(ctx, func() error {
		found, err := r.getByID(ctx, id)
		if err != nil {
			return fetchFailed(err)
		}
		note = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Wipe removes every persisted note: it fetches all stored ids and batch
// deletes them within one transaction. Destructive - used only by test and
// launch-argument gated paths, never in the production flow.
func (r *SqliteRepo) Wipe(ctx context.Context) (int, error) {
	var wiped int
	err := r.execute(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return deleteFailed(err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		rows, err := tx.QueryContext(ctx, `SELECT id FROM note`)
		if err != nil {
			return deleteFailed(err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return deleteFailed(err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return deleteFailed(err)
		}

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, id); err != nil {
				return deleteFailed(err)
			}
		}

		if err := tx.Commit(); err != nil {
			return deleteFailed(err)
		}
		wiped = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return wiped, nil
}

// getByID is the point lookup by domain id, run from within the execution
// context. Absence is (nil, nil), distinct from a store level error.
func (r *SqliteRepo) getByID(ctx context.Context, id string) (*Note, error) {
	rows, err := r.db.QueryContext(ctx, selectNoteColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	note, err := scanNote(rows)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *SqliteRepo) queryNotes(ctx context.Context, query string, args ...interface{}) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func scanNote(rows *sql.Rows) (Note, error) {
	var note Note
	var createdAt, updatedAt int64
	if err := rows.Scan(&note.ID, &note.Title, &note.Content, &createdAt, &updatedAt); err != nil {
		return Note{}, fmt.Errorf("scan note row: %w", err)
	}
	note.CreatedAt = time.Unix(0, createdAt).UTC()
	note.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return note, nil
}
