package surreal

// Record is one remote note record as a loose field map - the shape the
// record store client trafficks in. The store's native record id lives in the
// "id" field and is distinct from any domain identifier stored alongside it.
type Record map[string]interface{}

// Client is the record store surface the notes repo needs. Implemented by
// NotesSurrealClient against a live SurrealDB instance, and by TestClient in
// unit tests.
type Client interface {
	Put(record Record) (Record, error)
	Merge(recordID string, fields Record) error
	Delete(recordID string) error
	ScanAll(orderField string) ([]Record, error)
	QueryByField(field string, value interface{}) ([]Record, error)
	QueryContains(fields []string, query, orderField string) ([]Record, error)

	EnsureTable() error
	Signin(user, pass string) error
	Info() (interface{}, error)

	IsConnected() bool
	Close()
}
