package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeES answers the handful of Elasticsearch endpoints the indexer uses.
type fakeES struct {
	mu       sync.Mutex
	exists   bool
	created  string
	calls    []string
	bulk     []string
	deleteQ  string
	searchQ  string
	response string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/tasks":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/tasks":
		f.created = string(body)
		f.exists = true
		io.WriteString(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"tasks"}`)
	case r.URL.Path == "/tasks/_delete_by_query":
		f.deleteQ = string(body)
		io.WriteString(w, `{"took":1,"deleted":0,"total":0,"failures":[]}`)
	case r.URL.Path == "/tasks/_bulk":
		sc := bufio.NewScanner(strings.NewReader(string(body)))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				f.bulk = append(f.bulk, line)
			}
		}
		io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
	case r.URL.Path == "/tasks/_search":
		f.searchQ = string(body)
		io.WriteString(w, f.response)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"not_found","reason":"no route"},"status":404}`)
	}
}

func newTestIndexer(t *testing.T, es *fakeES) *Indexer {
	t.Helper()
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)
	ix, err := NewIndexer(srv.URL, "tasks")
	require.NoError(t, err)
	return ix
}

func TestEnsureIndex(t *testing.T) {
	es := &fakeES{}
	ix := newTestIndexer(t, es)
	ctx := context.Background()

	require.NoError(t, ix.EnsureIndex(ctx))
	require.NoError(t, ix.EnsureIndex(ctx))

	assert.Equal(t, []string{"HEAD /tasks", "PUT /tasks", "HEAD /tasks"}, es.calls)
	assert.Contains(t, es.created, `"list_id":     {"type": "keyword"}`)
}

func TestIndexTaskList(t *testing.T) {
	es := &fakeES{exists: true}
	ix := newTestIndexer(t, es)
	due := time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC)

	l := domain.TaskList{
		ID:    "1",
		Title: "Work Projects",
		Tasks: []domain.Task{
			{ID: "1", Title: "Complete API documentation", DueDate: due, Status: domain.StatusOpen, Priority: domain.PriorityHigh},
			{ID: "2", Title: "Review code changes", Status: domain.StatusClosed, Priority: domain.PriorityMedium},
		},
	}
	require.NoError(t, ix.IndexTaskList(context.Background(), l))

	assert.Contains(t, es.deleteQ, `"list_id":"1"`)
	require.Len(t, es.bulk, 4)
	assert.Contains(t, es.bulk[0], `"_id":"1:1"`)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(es.bulk[1]), &doc))
	assert.Equal(t, "Work Projects", doc.ListTitle)
	assert.Equal(t, "Complete API documentation", doc.Title)
	assert.Equal(t, "HIGH", doc.Priority)
	assert.True(t, due.Equal(doc.DueDate))
}

func TestIndexEmptyListOnlyDeletes(t *testing.T) {
	es := &fakeES{exists: true}
	ix := newTestIndexer(t, es)

	require.NoError(t, ix.IndexTaskList(context.Background(), domain.TaskList{ID: "7"}))
	assert.Equal(t, []string{"POST /tasks/_delete_by_query"}, es.calls)
	assert.Empty(t, es.bulk)
}

func TestSearch(t *testing.T) {
	es := &fakeES{exists: true, response: `{
		"took": 2,
		"hits": {
			"total": {"value": 1, "relation": "eq"},
			"max_score": 1.5,
			"hits": [{
				"_index": "tasks",
				"_id": "1:1",
				"_score": 1.5,
				"_source": {"list_id": "1", "list_title": "Work Projects", "task_id": "1",
					"title": "Complete API documentation", "status": "OPEN", "priority": "HIGH",
					"due_date": "2024-02-01T23:59:59Z"}
			}]
		}
	}`}
	ix := newTestIndexer(t, es)

	hits, err := ix.Search(context.Background(), "documentation")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].ListID)
	assert.Equal(t, "Work Projects", hits[0].ListTitle)
	assert.Equal(t, "Complete API documentation", hits[0].Task.Title)
	assert.Equal(t, domain.PriorityHigh, hits[0].Task.Priority)
	assert.Equal(t, 1.5, hits[0].Score)
	assert.Contains(t, es.searchQ, `"multi_match"`)
	assert.Contains(t, es.searchQ, `"documentation"`)
}

func TestSearchNoHits(t *testing.T) {
	es := &fakeES{exists: true, response: `{"took":1,"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`}
	ix := newTestIndexer(t, es)

	hits, err := ix.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)
}
