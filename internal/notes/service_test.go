package notes

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateValidation(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n "} {
		_, err := service.Create(ctx, title, "some content")
		assert.ErrorIs(t, err, ErrInvalidNoteData, "title %q", title)
	}
	// nothing reached the store
	assert.Empty(t, repo.Calls)

	created, err := service.Create(ctx, " Hi ", "  padded content  ")
	require.NoError(t, err)
	assert.Equal(t, "Hi", created.Title)
	assert.Equal(t, "padded content", created.Content)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.UpdatedAt.Equal(created.CreatedAt))
}

func TestService_CreateAssignsUniqueIDs(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		created, err := service.Create(ctx, gofakeit.Sentence(3), gofakeit.Paragraph(1, 2, 5, " "))
		require.NoError(t, err)
		assert.False(t, seen[created.ID])
		seen[created.ID] = true
	}

	all, err := service.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestService_UpdateValidation(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "title", "content")
	require.NoError(t, err)

	_, err = service.Update(ctx, created, "   ", "new content")
	assert.ErrorIs(t, err, ErrInvalidNoteData)

	updated, err := service.Update(ctx, created, "  new title  ", " new content ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "new content", updated.Content)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestService_UpdateNotFound(t *testing.T) {
	service := NewService(NewTestRepo())

	_, err := service.Update(context.Background(), Note{ID: "no-such-note"}, "title", "content")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestService_GetAllSorted(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	// map backed repo returns notes in random order, the service re-sorts
	base := time.Now().UTC()
	for i := 0; i < 6; i++ {
		_, err := repo.Create(ctx, Note{
			ID:        gofakeit.UUID(),
			Title:     gofakeit.Sentence(2),
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := service.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].UpdatedAt.After(all[i].UpdatedAt))
	}
}

func TestService_SearchEmptyQueryFallsBackToGetAll(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	_, err := service.Create(ctx, "title", "content")
	require.NoError(t, err)
	repo.Calls = nil

	for _, query := range []string{"", "   ", "\n"} {
		found, err := service.Search(ctx, query)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	}

	// the contains predicate was never consulted
	assert.Equal(t, []string{"fetchAll", "fetchAll", "fetchAll"}, repo.Calls)

	repo.Calls = nil
	_, err = service.Search(ctx, " title ")
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, repo.Calls)
}

func TestService_Statistics(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	stats, err := service.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{}, stats)

	_, err = service.Create(ctx, "abcde", gofakeit.LetterN(4)) // 5 / 4
	require.NoError(t, err)
	_, err = service.Create(ctx, "abcdefg", "abcd") // 7 / 4
	require.NoError(t, err)
	_, err = service.Create(ctx, "abcdef", "") // 6 / 0
	require.NoError(t, err)

	stats, err = service.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNotes)
	assert.Equal(t, 2, stats.NotesWithContent)
	assert.Equal(t, 1, stats.NotesWithoutContent)
	assert.InDelta(t, 6.0, stats.AverageTitleLength, 0.001)
	assert.InDelta(t, 8.0/3.0, stats.AverageContentLength, 0.001)
}

func TestService_StatisticsCountsRunesNotBytes(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	_, err := service.Create(ctx, "ćevapi", "šumadija čaj")
	require.NoError(t, err)

	stats, err := service.Statistics(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, stats.AverageTitleLength, 0.001)
	assert.InDelta(t, 12.0, stats.AverageContentLength, 0.001)
}

func TestService_ErrorsPassThrough(t *testing.T) {
	repo := NewTestRepo()
	service := NewService(repo)
	ctx := context.Background()

	repo.ErrFetchAll = ErrFetchFailed
	_, err := service.GetAll(ctx)
	assert.ErrorIs(t, err, ErrFetchFailed)
	_, err = service.Statistics(ctx)
	assert.ErrorIs(t, err, ErrFetchFailed)
	repo.ErrFetchAll = nil

	repo.ErrSearch = ErrSearchFailed
	_, err = service.Search(ctx, "query")
	assert.ErrorIs(t, err, ErrSearchFailed)

	repo.ErrCreate = ErrSaveFailed
	_, err = service.Create(ctx, "title", "content")
	assert.ErrorIs(t, err, ErrSaveFailed)

	repo.ErrDelete = ErrDeleteFailed
	assert.ErrorIs(t, service.Delete(ctx, Note{ID: "id"}), ErrDeleteFailed)
}
