package notes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Statistics is derived from the full note set by the service layer.
type Statistics struct {
	TotalNotes           int     `json:"total_notes"`
	NotesWithContent     int     `json:"notes_with_content"`
	NotesWithoutContent  int     `json:"notes_without_content"`
	AverageTitleLength   float64 `json:"average_title_length"`
	AverageContentLength float64 `json:"average_content_length"`
}

// Service adds business rules on top of whichever Repo is active: input
// trimming and validation, the authoritative sort order, and statistics.
// It is constructable from any Repo implementation.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

// GetAll returns all notes sorted by updated-at descending. The re-sort
// happens client side even though both shipped adapters sort store side -
// this is the ordering guarantee exposed to callers, not the adapters'.
func (s *Service) GetAll(ctx context.Context) ([]Note, error) {
	fetched, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].UpdatedAt.After(fetched[j].UpdatedAt)
	})
	return fetched, nil
}

func (s *Service) Create(ctx context.Context, title, content string) (Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return Note{}, fmt.Errorf("%w: title empty after trimming", ErrInvalidNoteData)
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update produces a new note value from the old one plus the new fields and
// hands it to the repo; the entity itself stays immutable.
func (s *Service) Update(ctx context.Context, note Note, title, content string) (Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return Note{}, fmt.Errorf("%w: title empty after trimming", ErrInvalidNoteData)
	}

	return s.repo.Update(ctx, Note{
		ID:        note.ID,
		Title:     title,
		Content:   content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *Service) Delete(ctx context.Context, note Note) error {
	return s.repo.Delete(ctx, note)
}

// Search routes an empty (after trimming) query to GetAll - empty-query
// semantics of the adapters' contains predicates are store defined, and
// "show everything" is what callers actually want there.
func (s *Service) Search(ctx context.Context, query string) ([]Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.GetAll(ctx)
	}
	return s.repo.Search(ctx, query)
}

func (s *Service) Get(ctx context.Context, id string) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	fetched, err := s.repo.FetchAll(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalNotes: len(fetched),
	}
	if len(fetched) == 0 {
		return stats, nil
	}

	var titleChars, contentChars int
	for _, note := range fetched {
		titleChars += utf8.RuneCountInString(note.Title)
		contentChars += utf8.RuneCountInString(note.Content)
		if note.Content == "" {
			stats.NotesWithoutContent++
		} else {
			stats.NotesWithContent++
		}
	}
	stats.AverageTitleLength = float64(titleChars) / float64(len(fetched))
	stats.AverageContentLength = float64(contentChars) / float64(len(fetched))

	return stats, nil
}
