package surreal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// compile time check - ensure that TestClient implements Client
var _ Client = (*TestClient)(nil)

// TestClient is an in-memory record store with the same contract as the live
// client. The Err* fields inject failures for error path tests.
type TestClient struct {
	records map[string]Record
	nextID  int
	mutex   sync.Mutex

	connected bool
	tableOK   bool

	ErrPut    error
	ErrMerge  error
	ErrDelete error
	ErrQuery  error
	ErrTable  error
	ErrInfo   error
}

func NewTestClient() *TestClient {
	return &TestClient{
		records:   make(map[string]Record),
		connected: true,
	}
}

func (tc *TestClient) Put(record Record) (Record, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrPut != nil {
		return nil, tc.ErrPut
	}

	tc.nextID++
	recordID := fmt.Sprintf("note:%d", tc.nextID)

	stored := make(Record, len(record)+1)
	for k, v := range record {
		stored[k] = v
	}
	stored["id"] = recordID
	tc.records[recordID] = stored

	return copyRecord(stored), nil
}

func (tc *TestClient) Merge(recordID string, fields Record) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrMerge != nil {
		return tc.ErrMerge
	}

	record, ok := tc.records[recordID]
	if !ok {
		return fmt.Errorf("record %s does not exist", recordID)
	}
	for k, v := range fields {
		record[k] = v
	}
	return nil
}

func (tc *TestClient) Delete(recordID string) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrDelete != nil {
		return tc.ErrDelete
	}

	delete(tc.records, recordID)
	return nil
}

func (tc *TestClient) ScanAll(orderField string) ([]Record, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrQuery != nil {
		return nil, tc.ErrQuery
	}
	return tc.sorted(tc.all(), orderField), nil
}

func (tc *TestClient) QueryByField(field string, value interface{}) ([]Record, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrQuery != nil {
		return nil, tc.ErrQuery
	}

	var matched []Record
	for _, record := range tc.all() {
		if record[field] == value {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (tc *TestClient) QueryContains(fields []string, query, orderField string) ([]Record, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrQuery != nil {
		return nil, tc.ErrQuery
	}

	needle := strings.ToLower(query)
	var matched []Record
	for _, record := range tc.all() {
		for _, field := range fields {
			if text, ok := record[field].(string); ok && strings.Contains(strings.ToLower(text), needle) {
				matched = append(matched, record)
				break
			}
		}
	}
	return tc.sorted(matched, orderField), nil
}

func (tc *TestClient) EnsureTable() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.ErrTable != nil {
		return tc.ErrTable
	}
	tc.tableOK = true
	return nil
}

// TableEnsured reports whether EnsureTable ran successfully.
func (tc *TestClient) TableEnsured() bool {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return tc.tableOK
}

func (tc *TestClient) Signin(_, _ string) error {
	return nil
}

func (tc *TestClient) Info() (interface{}, error) {
	if tc.ErrInfo != nil {
		return nil, tc.ErrInfo
	}
	return map[string]interface{}{"user": "test"}, nil
}

func (tc *TestClient) IsConnected() bool {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return tc.connected
}

func (tc *TestClient) Close() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.connected = false
}

func (tc *TestClient) all() []Record {
	records := make([]Record, 0, len(tc.records))
	for _, record := range tc.records {
		records = append(records, copyRecord(record))
	}
	return records
}

func (tc *TestClient) sorted(records []Record, orderField string) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		return numericField(records[i], orderField) > numericField(records[j], orderField)
	})
	return records
}

func numericField(record Record, field string) int64 {
	switch v := record[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func copyRecord(record Record) Record {
	cp := make(Record, len(record))
	for k, v := range record {
		cp[k] = v
	}
	return cp
}
