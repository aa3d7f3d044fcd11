//go:build integration_test || all_tests

package integration_testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/VietDinh95/Notes/internal/notes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *Suite

func TestMain(m *testing.M) {
	suite = newSuite()

	code := m.Run()

	suite.cleanup()
	os.Exit(code)
}

type notesListResponse struct {
	Notes []notes.Note `json:"notes"`
	Total int          `json:"total"`
}

func httpDo(t *testing.T, method, path string, form url.Values) (int, []byte) {
	t.Helper()

	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequest(method, serverEndpoint+path, strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, err = http.NewRequest(method, serverEndpoint+path, nil)
		require.NoError(t, err)
	}
	req.Header.Set("User-Agent", "test-agent")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func createNote(t *testing.T, title, content string) notes.Note {
	t.Helper()

	status, body := httpDo(t, "POST", "/notes", url.Values{
		"title":   {title},
		"content": {content},
	})
	require.Equal(t, http.StatusCreated, status, "body: %s", body)

	var note notes.Note
	require.NoError(t, json.Unmarshal(body, &note))
	return note
}

func listNotes(t *testing.T) notesListResponse {
	t.Helper()

	status, body := httpDo(t, "GET", "/notes", nil)
	require.Equal(t, http.StatusOK, status)

	var resp notesListResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func switchStore(t *testing.T, mode string) {
	t.Helper()

	status, body := httpDo(t, "POST", "/notes/store/switch/"+mode, nil)
	require.Equal(t, http.StatusOK, status, "body: %s", body)
}

func TestServer_NotesLifecycleLocal(t *testing.T) {
	switchStore(t, "local")
	require.Zero(t, listNotes(t).Total)

	created := createNote(t, "first e2e note", "created through the full stack")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "first e2e note", created.Title)

	all := listNotes(t)
	require.Equal(t, 1, all.Total)
	assert.Equal(t, created.ID, all.Notes[0].ID)

	status, body := httpDo(t, "PUT", "/notes/"+created.ID, url.Values{
		"title":   {"renamed e2e note"},
		"content": {"rewritten"},
	})
	require.Equal(t, http.StatusOK, status, "body: %s", body)

	var updated notes.Note
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "renamed e2e note", updated.Title)

	status, _ = httpDo(t, "DELETE", "/notes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, listNotes(t).Total)
}

func TestServer_NotesLifecycleRemote(t *testing.T) {
	switchStore(t, "remote")
	defer switchStore(t, "local")

	status, body := httpDo(t, "GET", "/notes/store/status", nil)
	require.Equal(t, http.StatusOK, status)
	var storeStatus map[string]string
	require.NoError(t, json.Unmarshal(body, &storeStatus))
	assert.Equal(t, "remote", storeStatus["active"])
	assert.Equal(t, "available", storeStatus["remote_account"])

	created := createNote(t, "remote e2e note", "stored in surrealdb")

	all := listNotes(t)
	require.Equal(t, 1, all.Total)
	assert.Equal(t, created.ID, all.Notes[0].ID)

	status, body = httpDo(t, "GET", "/notes/search?q=surrealdb", nil)
	require.Equal(t, http.StatusOK, status)
	var found notesListResponse
	require.NoError(t, json.Unmarshal(body, &found))
	assert.Equal(t, 1, found.Total)

	status, _ = httpDo(t, "DELETE", "/notes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestServer_StoresAreIndependent(t *testing.T) {
	switchStore(t, "local")
	localNote := createNote(t, "stays local", "local only content")

	switchStore(t, "remote")
	assert.Zero(t, listNotes(t).Total)

	switchStore(t, "local")
	all := listNotes(t)
	require.Equal(t, 1, all.Total)
	assert.Equal(t, localNote.ID, all.Notes[0].ID)

	status, _ := httpDo(t, "DELETE", "/notes/"+localNote.ID, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestServer_Statistics(t *testing.T) {
	switchStore(t, "local")
	for i := 0; i < 3; i++ {
		createNote(t, fmt.Sprintf("stats note %d", i), "content")
	}

	status, body := httpDo(t, "GET", "/notes/stats", nil)
	require.Equal(t, http.StatusOK, status)

	var stats notes.Statistics
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 3, stats.TotalNotes)
	assert.Equal(t, 3, stats.NotesWithContent)

	// leave no notes behind for the other tests
	all := listNotes(t)
	for _, note := range all.Notes {
		status, _ = httpDo(t, "DELETE", "/notes/"+note.ID, nil)
		require.Equal(t, http.StatusOK, status)
	}
}

func TestServer_Metrics(t *testing.T) {
	status, body := httpDo(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "notes_service_life_signal")
}
