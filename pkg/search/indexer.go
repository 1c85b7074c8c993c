// Package search keeps an Elasticsearch index of tasks, one document per
// task, and runs full-text queries over it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/olivere/elastic/v7"
)

const defaultSize = 50

const mapping = `{
	"mappings": {
		"properties": {
			"list_id":     {"type": "keyword"},
			"list_title":  {"type": "text"},
			"task_id":     {"type": "keyword"},
			"title":       {"type": "text"},
			"description": {"type": "text"},
			"status":      {"type": "keyword"},
			"priority":    {"type": "keyword"},
			"due_date":    {"type": "date"},
			"created":     {"type": "date"},
			"updated":     {"type": "date"}
		}
	}
}`

type document struct {
	ListID      string    `json:"list_id"`
	ListTitle   string    `json:"list_title"`
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"due_date"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

func newDocument(l domain.TaskList, t domain.Task) document {
	return document{
		ListID:      l.ID,
		ListTitle:   l.Title,
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Created:     t.Created,
		Updated:     t.Updated,
	}
}

func (d document) hit(score float64) domain.SearchHit {
	return domain.SearchHit{
		ListID:    d.ListID,
		ListTitle: d.ListTitle,
		Score:     score,
		Task: domain.Task{
			ID:          d.TaskID,
			Title:       d.Title,
			Description: d.Description,
			DueDate:     d.DueDate,
			Status:      domain.Status(d.Status),
			Priority:    domain.Priority(d.Priority),
			Created:     d.Created,
			Updated:     d.Updated,
		},
	}
}

// Indexer writes and queries the task index.
type Indexer struct {
	client *elastic.Client
	index  string
}

// NewIndexer connects to the cluster at url. Sniffing and health checks are
// off so a single node behind a proxy works.
func NewIndexer(url, index string, opts ...elastic.ClientOptionFunc) (*Indexer, error) {
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}, opts...)
	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("create elastic client: %w", err)
	}
	return &Indexer{client: client, index: index}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (ix *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := ix.client.IndexExists(ix.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", ix.index, err)
	}
	if exists {
		return nil
	}
	if _, err := ix.client.CreateIndex(ix.index).BodyString(mapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", ix.index, err)
	}
	return nil
}

// IndexTaskList replaces every document of the list with its current tasks.
func (ix *Indexer) IndexTaskList(ctx context.Context, l domain.TaskList) error {
	if err := ix.RemoveTaskList(ctx, l.ID); err != nil {
		return err
	}
	if len(l.Tasks) == 0 {
		return nil
	}

	bulk := ix.client.Bulk().Index(ix.index).Refresh("true")
	for _, t := range l.Tasks {
		bulk.Add(elastic.NewBulkIndexRequest().Id(docID(l.ID, t.ID)).Doc(newDocument(l, t)))
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("index task list %s: %w", l.ID, err)
	}
	if resp.Errors {
		failed := resp.Failed()
		if len(failed) > 0 && failed[0].Error != nil {
			return fmt.Errorf("index task list %s: %d documents failed: %s", l.ID, len(failed), failed[0].Error.Reason)
		}
		return fmt.Errorf("index task list %s: bulk request reported errors", l.ID)
	}
	return nil
}

// RemoveTaskList deletes every document of the list.
func (ix *Indexer) RemoveTaskList(ctx context.Context, listID string) error {
	_, err := ix.client.DeleteByQuery(ix.index).
		Query(elastic.NewTermQuery("list_id", listID)).
		ProceedOnVersionConflict().
		Refresh("true").
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("remove task list %s: %w", listID, err)
	}
	return nil
}

// Search matches q against task and list titles and task descriptions.
func (ix *Indexer) Search(ctx context.Context, q string) ([]domain.SearchHit, error) {
	query := elastic.NewMultiMatchQuery(q, "title^2", "description", "list_title").Fuzziness("AUTO")
	res, err := ix.client.Search(ix.index).Query(query).Size(defaultSize).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := []domain.SearchHit{}
	if res.Hits == nil {
		return hits, nil
	}
	for _, h := range res.Hits.Hits {
		var doc document
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", h.Id, err)
		}
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, doc.hit(score))
	}
	return hits, nil
}

func docID(listID, taskID string) string {
	return listID + ":" + taskID
}
