// Package bleve implements the comic full-text index on Bleve.
package bleve

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/fwojciec/xkcdbot"
)

// MemoryPath opens an index that lives only in memory.
const MemoryPath = ":memory:"

// Document field names.
const (
	fieldNum        = "num"
	fieldTitle      = "title"
	fieldAlt        = "alt"
	fieldTranscript = "transcript"
	fieldImg        = "img"
)

var _ xkcdbot.ComicIndex = (*Index)(nil)

// Index implements xkcdbot.ComicIndex.
//
// Add and Delete stage into a pending batch that only Commit publishes.
// Searches run against the last committed state.
type Index struct {
	index bleve.Index

	mu      sync.Mutex
	pending *bleve.Batch
}

// Open opens the index at path, creating it if it does not exist.
// An empty path or MemoryPath creates an in-memory index.
func Open(path string) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)
	switch path {
	case "", MemoryPath:
		idx, err = bleve.NewMemOnly(newMapping())
	default:
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, newMapping())
		}
	}
	if err != nil {
		return nil, xkcdbot.Errorf(xkcdbot.EINDEX, "open index %q: %w", path, err)
	}
	return &Index{index: idx, pending: idx.NewBatch()}, nil
}

// newMapping builds the comic schema. Title, alt and transcript form the
// default search field; the number is an exact keyword.
func newMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true
	keyword.IncludeInAll = false

	stored := bleve.NewTextFieldMapping()
	stored.Store = true
	stored.IncludeInAll = true

	unstored := bleve.NewTextFieldMapping()
	unstored.Store = false
	unstored.IncludeInAll = true

	image := bleve.NewKeywordFieldMapping()
	image.Store = true
	image.Index = false
	image.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldNum, keyword)
	doc.AddFieldMappingsAt(fieldTitle, stored)
	doc.AddFieldMappingsAt(fieldAlt, stored)
	doc.AddFieldMappingsAt(fieldTranscript, unstored)
	doc.AddFieldMappingsAt(fieldImg, image)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Add stages the document for c. A staged delete of the same number is
// superseded.
func (i *Index) Add(c *xkcdbot.Comic) error {
	if err := c.Validate(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.pending.Index(strconv.Itoa(c.Num), map[string]interface{}{
		fieldNum:        strconv.Itoa(c.Num),
		fieldTitle:      c.Title,
		fieldAlt:        c.Alt,
		fieldTranscript: c.Transcript,
		fieldImg:        c.Img,
	}); err != nil {
		return xkcdbot.Errorf(xkcdbot.EINDEX, "stage comic %d: %w", c.Num, err)
	}
	return nil
}

// Delete stages removal of the document for num.
func (i *Index) Delete(num int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending.Delete(strconv.Itoa(num))
}

// Commit publishes every staged operation in one batch. A failed commit
// keeps the operations staged so the next Commit retries them.
func (i *Index) Commit() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.pending.Size() == 0 {
		return nil
	}
	if err := i.index.Batch(i.pending); err != nil {
		return xkcdbot.Errorf(xkcdbot.EINDEX, "commit %d operations: %w", i.pending.Size(), err)
	}
	i.pending = i.index.NewBatch()
	return nil
}

// Search runs q as a query string against the default field.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]*xkcdbot.Hit, error) {
	parsed, err := query.NewQueryStringQuery(q).Parse()
	if err != nil {
		return nil, xkcdbot.Errorf(xkcdbot.EPARSE, "%s", err.Error())
	}
	return i.search(ctx, parsed, limit)
}

// SearchNum returns the document for num, if indexed.
func (i *Index) SearchNum(ctx context.Context, num int) ([]*xkcdbot.Hit, error) {
	q := bleve.NewTermQuery(strconv.Itoa(num))
	q.SetField(fieldNum)
	return i.search(ctx, q, 10)
}

func (i *Index) search(ctx context.Context, q query.Query, limit int) ([]*xkcdbot.Hit, error) {
	if limit <= 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{fieldNum, fieldTitle, fieldAlt, fieldImg}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, xkcdbot.Errorf(xkcdbot.EINDEX, "search: %w", err)
	}

	hits := make([]*xkcdbot.Hit, 0, len(res.Hits))
	for _, m := range res.Hits {
		num, err := strconv.Atoi(m.ID)
		if err != nil {
			continue
		}
		hits = append(hits, &xkcdbot.Hit{
			Score: m.Score,
			Num:   num,
			Title: stringField(m.Fields, fieldTitle),
			Alt:   stringField(m.Fields, fieldAlt),
			Img:   stringField(m.Fields, fieldImg),
		})
	}
	return hits, nil
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

// Count returns the number of committed documents.
func (i *Index) Count() (uint64, error) {
	n, err := i.index.DocCount()
	if err != nil {
		return 0, xkcdbot.Errorf(xkcdbot.EINDEX, "count documents: %w", err)
	}
	return n, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
