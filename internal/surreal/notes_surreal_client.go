package surreal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/marshal"
	log "github.com/sirupsen/logrus"
)

// compile time check - ensure that NotesSurrealClient implements Client
var _ Client = (*NotesSurrealClient)(nil)

var (
	ErrClientNil      = errors.New("surreal client is nil")
	ErrEmptyNamespace = errors.New("namespace cannot be empty")
	ErrNotConnected   = errors.New("surreal client is not connected")

	// ErrNoSession means the backing connection carries no authenticated
	// account at all; ErrRestricted means there is one but it may not touch
	// the notes table.
	ErrNoSession  = errors.New("no authenticated session")
	ErrRestricted = errors.New("account access restricted")
)

// surrealdb data model (namespace, database, table, record, ...) infos:
// https://surrealdb.com/docs/surrealdb/introduction/concepts
type NotesSurrealClient struct {
	namespace string
	database  string
	table     string
	db        *surrealdb.DB
	connected bool
}

// NewNotesSurrealClient binds the given connection to one namespace/database
// pair - the partition holding this account's note records.
func NewNotesSurrealClient(db *surrealdb.DB, namespace, database, table string) (*NotesSurrealClient, error) {
	if db == nil {
		return nil, ErrClientNil
	}
	if namespace == "" || database == "" {
		return nil, ErrEmptyNamespace
	}

	if _, err := db.Use(namespace, database); err != nil {
		return nil, fmt.Errorf("use %s/%s: %w", namespace, database, err)
	}

	return &NotesSurrealClient{
		namespace: namespace,
		database:  database,
		table:     table,
		db:        db,
		connected: true,
	}, nil
}

func (c *NotesSurrealClient) Put(record Record) (Record, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}

	data, err := c.db.Create(c.table, map[string]interface{}(record))
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	var stored []Record
	if err := marshal.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode created record: %w", err)
	}
	if len(stored) == 0 {
		return nil, errors.New("create returned no record")
	}

	log.Tracef("surreal record stored: %v", stored[0]["id"])

	return stored[0], nil
}

func (c *NotesSurrealClient) Merge(recordID string, fields Record) error {
	if !c.connected {
		return ErrNotConnected
	}

	if _, err := c.db.Change(recordID, map[string]interface{}(fields)); err != nil {
		return fmt.Errorf("merge record %s: %w", recordID, err)
	}
	return nil
}

func (c *NotesSurrealClient) Delete(recordID string) error {
	if !c.connected {
		return ErrNotConnected
	}

	if _, err := c.db.Delete(recordID); err != nil {
		return fmt.Errorf("delete record %s: %w", recordID, err)
	}
	return nil
}

func (c *NotesSurrealClient) ScanAll(orderField string) ([]Record, error) {
	return c.query(
		fmt.Sprintf(`SELECT * FROM %s ORDER BY %s DESC`, c.table, orderField),
		nil,
	)
}

func (c *NotesSurrealClient) QueryByField(field string, value interface{}) ([]Record, error) {
	return c.query(
		fmt.Sprintf(`SELECT * FROM %s WHERE %s = $value`, c.table, field),
		map[string]interface{}{"value": value},
	)
}

func (c *NotesSurrealClient) QueryContains(fields []string, query, orderField string) ([]Record, error) {
	conditions := make([]string, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, fmt.Sprintf(`string::lowercase(%s) CONTAINS $query`, field))
	}

	return c.query(
		fmt.Sprintf(
			`SELECT * FROM %s WHERE %s ORDER BY %s DESC`,
			c.table, strings.Join(conditions, " OR "), orderField,
		),
		map[string]interface{}{"query": strings.ToLower(query)},
	)
}

// EnsureTable defines the note table within the bound namespace/database.
// Idempotent; meant to run once per account before other operations are
// assumed reliable.
func (c *NotesSurrealClient) EnsureTable() error {
	if !c.connected {
		return ErrNotConnected
	}

	data, err := c.db.Query(fmt.Sprintf(`DEFINE TABLE %s SCHEMALESS`, c.table), nil)
	if err != nil {
		return fmt.Errorf("define table %s: %w", c.table, err)
	}

	var res []marshal.RawQuery[interface{}]
	if err := marshal.UnmarshalRaw(data, &res); err != nil {
		return fmt.Errorf("define table %s: %w", c.table, err)
	}
	return nil
}

func (c *NotesSurrealClient) Signin(user, pass string) error {
	if !c.connected {
		return ErrNotConnected
	}

	if _, err := c.db.Signin(map[string]interface{}{
		"user": user,
		"pass": pass,
	}); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	return nil
}

func (c *NotesSurrealClient) Info() (interface{}, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}

	info, err := c.db.Info()
	if err != nil {
		var permErr surrealdb.PermissionError
		if errors.As(err, &permErr) {
			return nil, fmt.Errorf("%w: %w", ErrRestricted, err)
		}
		return nil, err
	}
	if info == nil {
		return nil, ErrNoSession
	}
	return info, nil
}

func (c *NotesSurrealClient) IsConnected() bool {
	return c.connected
}

func (c *NotesSurrealClient) Close() {
	if !c.connected {
		return
	}
	c.connected = false
	c.db.Close()
}

func (c *NotesSurrealClient) query(sql string, vars map[string]interface{}) ([]Record, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}

	data, err := c.db.Query(sql, vars)
	if err != nil {
		return nil, fmt.Errorf("query notes table: %w", err)
	}

	var res []marshal.RawQuery[[]Record]
	if err := marshal.UnmarshalRaw(data, &res); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res[0].Result, nil
}
