package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VietDinh95/Notes/internal/surreal"

	log "github.com/sirupsen/logrus"
)

// remote record field names; the store's own record identifier lives in "id",
// the domain id travels as a plain string field next to it
const (
	fieldNoteID    = "note_id"
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// AccountStatus describes the availability of the account backing the remote
// store, so the integration layer can decide whether to offer remote sync.
type AccountStatus int

const (
	AccountStatusIndeterminate AccountStatus = iota
	AccountStatusAvailable
	AccountStatusNoAccount
	AccountStatusRestricted
	AccountStatusTemporarilyUnavailable
)

func (s AccountStatus) String() string {
	switch s {
	case AccountStatusAvailable:
		return "available"
	case AccountStatusNoAccount:
		return "no-account"
	case AccountStatusRestricted:
		return "restricted"
	case AccountStatusTemporarilyUnavailable:
		return "temporarily-unavailable"
	default:
		return "indeterminate"
	}
}

// SurrealRepo implements Repo against a remote, eventually consistent record
// database. A successful write is not guaranteed to be visible to an
// immediately following read. No retry happens at this layer - retry policy
// belongs to the caller.
type SurrealRepo struct {
	client    surreal.Client
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSurrealRepo(client surreal.Client) *SurrealRepo {
	return &SurrealRepo{
		client: client,
		closed: make(chan struct{}),
	}
}

// Close tears the repo down; in-flight operations resolve with
// ErrContextUnavailable instead of leaking their callbacks.
func (r *SurrealRepo) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.client.Close()
	})
}

// call runs fn on its own goroutine and waits for it. If the repo is torn
// down or the context expires while the store call is still in flight, the
// caller is released; the buffered channel keeps the goroutine from leaking.
func (r *SurrealRepo) call(ctx context.Context, fn func() error) error {
	select {
	case <-r.closed:
		return ErrContextUnavailable
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-r.closed:
		return ErrContextUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Setup creates the dedicated note table within the account's private
// partition. Must run once per account before other operations are assumed
// reliable; safe to repeat.
func (r *SurrealRepo) Setup(ctx context.Context) error {
	return r.call(ctx, func() error {
		if err := r.client.EnsureTable(); err != nil {
			return fmt.Errorf("setup note table: %w", err)
		}
		return nil
	})
}

// AccountStatus reads the availability of the backing account. It never
// returns an error - everything unexpected collapses into indeterminate.
func (r *SurrealRepo) AccountStatus(ctx context.Context) AccountStatus {
	var infoErr error
	err := r.call(ctx, func() error {
		_, infoErr = r.client.Info()
		return infoErr
	})

	switch {
	case errors.Is(err, ErrContextUnavailable), errors.Is(err, surreal.ErrNotConnected):
		return AccountStatusTemporarilyUnavailable
	case errors.Is(err, surreal.ErrNoSession):
		return AccountStatusNoAccount
	case errors.Is(err, surreal.ErrRestricted):
		return AccountStatusRestricted
	case err != nil:
		log.Tracef("surreal account status check: %s", err)
		return AccountStatusIndeterminate
	}
	return AccountStatusAvailable
}

func (r *SurrealRepo) FetchAll(ctx context.Context) ([]Note, error) {
	var fetched []Note
	err := r.call(ctx, func() error {
		records, err := r.client.ScanAll(fieldUpdatedAt)
		if err != nil {
			return fetchFailed(err)
		}
		notes, err := notesFromRecords(records)
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

func (r *SurrealRepo) Create(ctx context.Context, note Note) (Note, error) {
	var created Note
	err := r.call(ctx, func() error {
		stored, err := r.client.Put(recordFromNote(note))
		if err != nil {
			return saveFailed(err)
		}
		decoded, err := noteFromRecord(stored)
		if err != nil {
			return saveFailed(err)
		}
		created = decoded
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return created, nil
}

func (r *SurrealRepo) Update(ctx context.Context, note Note) (Note, error) {
	var updated Note
	err := r.call(ctx, func() error {
		recordID, existing, err := r.lookup(note.ID)
		if err != nil {
			return saveFailed(err)
		}
		if existing == nil {
			return ErrNoteNotFound
		}

		updatedAt := time.Now().UTC()
		if err := r.client.Merge(recordID, surreal.Record{
			fieldTitle:     note.Title,
			fieldContent:   note.Content,
			fieldUpdatedAt: updatedAt.UnixMilli(),
		}); err != nil {
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

func (r *SurrealRepo) Delete(ctx context.Context, note Note) error {
	return r.call(ctx, func() error {
		recordID, existing, err := r.lookup(note.ID)
		if err != nil {
			return deleteFailed(err)
		}
		if existing == nil {
			return ErrNoteNotFound
		}

		// deletion happens by the store's native record identifier
		if err := r.client.Delete(recordID); err != nil {
			return deleteFailed(err)
		}
		return nil
	})
}

func (r *SurrealRepo) Search(ctx context.Context, query string) ([]Note, error) {
	var found []Note
	err := r.call(ctx, func() error {
		records, err := r.client.QueryContains(
			[]string{fieldTitle, fieldContent},
			query,
			fieldUpdatedAt,
		)
		if err != nil {
			return searchFailed(err)
		}
		notes, err := notesFromRecords(records)
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

func (r *SurrealRepo) GetByID(ctx context.Context, id string) (*Note, error) {
	var note *Note
	err := r.call(ctx, func() error {
		_, existing, err := r.lookup(id)
		if err != nil {
			return fetchFailed(err)
		}
		note = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// lookup finds the record carrying the given domain id and returns its native
// record identifier alongside the decoded note. Absence is (_, nil, nil).
func (r *SurrealRepo) lookup(id string) (string, *Note, error) {
	records, err := r.client.QueryByField(fieldNoteID, id)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, nil
	}

	recordID, ok := records[0]["id"].(string)
	if !ok {
		return "", nil, fmt.Errorf("record for note %s carries no record id", id)
	}
	note, err := noteFromRecord(records[0])
	if err != nil {
		return "", nil, err
	}
	return recordID, &note, nil
}

// timestamps travel as unix milliseconds - they survive the JSON number
// round trip, unlike nanoseconds
func recordFromNote(note Note) surreal.Record {
	return surreal.Record{
		fieldNoteID:    note.ID,
		fieldTitle:     note.Title,
		fieldContent:   note.Content,
		fieldCreatedAt: note.CreatedAt.UnixMilli(),
		fieldUpdatedAt: note.UpdatedAt.UnixMilli(),
	}
}

func noteFromRecord(record surreal.Record) (Note, error) {
	id, ok := record[fieldNoteID].(string)
	if !ok || id == "" {
		return Note{}, fmt.Errorf("record %v carries no note id", record["id"])
	}

	title, _ := record[fieldTitle].(string)
	content, _ := record[fieldContent].(string)

	createdAt, err := timestampField(record, fieldCreatedAt)
	if err != nil {
		return Note{}, err
	}
	updatedAt, err := timestampField(record, fieldUpdatedAt)
	if err != nil {
		return Note{}, err
	}

	return Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func timestampField(record surreal.Record, field string) (time.Time, error) {
	switch v := record[field].(type) {
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("record field %s is not a timestamp: %v", field, v)
	}
}

func notesFromRecords(records []surreal.Record) ([]Note, error) {
	var notes []Note
	for _, record := range records {
		note, err := noteFromRecord(record)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}
