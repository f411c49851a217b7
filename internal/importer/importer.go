package importer

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bookhub/internal/epub"
	"bookhub/internal/store"
	"bookhub/internal/sync"
	"bookhub/pkg/models"
)

const (
	defaultContentType = "application/octet-stream"
	// Cap on the best-effort EPUB metadata read; past this we fall
	// back to the filename title and move on.
	defaultMetadataTimeout = 5 * time.Second

	maxConcurrentFiles = 4
)

// File is one user-supplied file handed to the pipeline.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result reports the outcome for a single file of a batch.
type Result struct {
	Filename string `json:"filename"`
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Importer turns user-supplied files into stored book records.
type Importer struct {
	Store           *store.Repo
	Hub             *sync.Hub
	MetadataTimeout time.Duration
}

func New(repo *store.Repo, hub *sync.Hub) *Importer {
	return &Importer{Store: repo, Hub: hub, MetadataTimeout: defaultMetadataTimeout}
}

// Import stores every file of the batch independently: one file's
// failure never aborts its siblings, and no ordering is guaranteed
// between files. Results come back in input order regardless.
func (im *Importer) Import(ctx context.Context, files []File) []Result {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = im.importOne(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	if im.Hub != nil {
		for _, res := range results {
			ev := sync.NewEvent(sync.EventImportFile)
			ev.BookID = res.ID
			ev.Title = res.Title
			ev.Error = res.Error
			im.Hub.Publish(ev)
		}
		im.Hub.Publish(sync.NewEvent(sync.EventCatalogRefresh))
	}

	return results
}

func (im *Importer) importOne(ctx context.Context, f File) Result {
	res := Result{Filename: f.Name}

	if len(f.Data) == 0 {
		res.Error = "empty file"
		return res
	}

	title := DefaultTitle(f.Name)
	contentType := f.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}

	// Best-effort enrichment, not a validation gate: an EPUB that
	// fails to parse is still imported under its filename title.
	if models.DetectFormat(contentType) == models.FormatEPUB {
		if t, ok := im.extractEPUBTitle(ctx, f.Data); ok {
			title = t
		}
	}

	id, err := im.Store.Create(ctx, f.Data, title, contentType)
	if err != nil {
		res.Error = "store failed: " + err.Error()
		return res
	}

	res.ID = id
	res.Title = title
	return res
}

func (im *Importer) extractEPUBTitle(ctx context.Context, data []byte) (string, bool) {
	timeout := im.MetadataTimeout
	if timeout <= 0 {
		timeout = defaultMetadataTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan string, 1)
	go func() {
		title, err := epub.ExtractTitle(data)
		if err != nil {
			ch <- ""
			return
		}
		ch <- title
	}()

	select {
	case title := <-ch:
		return title, title != ""
	case <-ctx.Done():
		return "", false
	}
}

// DefaultTitle derives a title from the filename by stripping only the
// final extension segment: "My Book.v2.txt" becomes "My Book.v2".
func DefaultTitle(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		return base
	}
	return title
}
