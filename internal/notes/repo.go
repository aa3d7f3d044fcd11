package notes

import "context"

// compile time checks - ensure all adapters implement the Repo contract
var (
	_ Repo = (*SqliteRepo)(nil)
	_ Repo = (*SurrealRepo)(nil)
	_ Repo = (*TestRepo)(nil)
)

// Repo is the persistence contract for notes. FetchAll gives no ordering
// guarantee of its own - the service layer owns the ordering exposed to
// callers. GetByID returns (nil, nil) when no note matches the given id;
// Update and Delete return ErrNoteNotFound instead.
type Repo interface {
	FetchAll(ctx context.Context) ([]Note, error)
	Create(ctx context.Context, note Note) (Note, error)
	Update(ctx context.Context, note Note) (Note, error)
	Delete(ctx context.Context, note Note) error
	Search(ctx context.Context, query string) ([]Note, error)
	GetByID(ctx context.Context, id string) (*Note, error)
}
