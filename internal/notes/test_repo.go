package notes

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TestRepo is a map backed Repo used in service, switchboard and handler
// tests. The Err* fields inject failures; Calls records the operations made.
type TestRepo struct {
	notes map[string]Note
	mutex sync.Mutex

	Calls []string

	ErrFetchAll error
	ErrCreate   error
	ErrUpdate   error
	ErrDelete   error
	ErrSearch   error
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		notes: make(map[string]Note),
	}
}

func (r *TestRepo) FetchAll(_ context.Context) ([]Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "fetchAll")
	if r.ErrFetchAll != nil {
		return nil, r.ErrFetchAll
	}

	var notes []Note
	for _, note := range r.notes {
		notes = append(notes, note)
	}
	return notes, nil
}

func (r *TestRepo) Create(_ context.Context, note Note) (Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "create")
	if r.ErrCreate != nil {
		return Note{}, r.ErrCreate
	}

	r.notes[note.ID] = note
	return note, nil
}

func (r *TestRepo) Update(_ context.Context, note Note) (Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "update")
	if r.ErrUpdate != nil {
		return Note{}, r.ErrUpdate
	}

	existing, ok := r.notes[note.ID]
	if !ok {
		return Note{}, ErrNoteNotFound
	}

	updated := Note{
		ID:        existing.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	r.notes[note.ID] = updated
	return updated, nil
}

func (r *TestRepo) Delete(_ context.Context, note Note) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "delete")
	if r.ErrDelete != nil {
		return r.ErrDelete
	}

	if _, ok := r.notes[note.ID]; !ok {
		return ErrNoteNotFound
	}
	delete(r.notes, note.ID)
	return nil
}

func (r *TestRepo) Search(_ context.Context, query string) ([]Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "search")
	if r.ErrSearch != nil {
		return nil, r.ErrSearch
	}

	needle := strings.ToLower(query)
	var notes []Note
	for _, note := range r.notes {
		if strings.Contains(strings.ToLower(note.Title), needle) ||
			strings.Contains(strings.ToLower(note.Content), needle) {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func (r *TestRepo) GetByID(_ context.Context, id string) (*Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Calls = append(r.Calls, "getById")
	note, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	return &note, nil
}
