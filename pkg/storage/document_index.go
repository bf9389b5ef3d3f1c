package storage

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// IndexEntry describes one stored document.
type IndexEntry struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Pages      *int      `json:"pages,omitempty"`
}

// DocumentIndex is an explicit listing of stored documents. It scans the
// storage directory only when Refresh is called; List serves the last scan.
type DocumentIndex struct {
	store  *LocalStorage
	logger *zap.Logger

	mu          sync.RWMutex
	entries     []IndexEntry
	refreshedAt time.Time
}

// NewDocumentIndex constructs an empty index over store.
func NewDocumentIndex(store *LocalStorage, logger *zap.Logger) *DocumentIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentIndex{store: store, logger: logger}
}

// Refresh rescans the storage directory, reading page counts of PDF files.
func (i *DocumentIndex) Refresh(ctx context.Context) (int, error) {
	files, err := i.store.List()
	if err != nil {
		return 0, err
	}
	entries := make([]IndexEntry, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		entry := IndexEntry{Name: f.Name, Size: f.Size, ModifiedAt: f.ModifiedAt}
		if strings.EqualFold(path.Ext(f.Name), ".pdf") {
			entry.Pages = i.pageCount(f.Name)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(a, b int) bool {
		if !entries[a].ModifiedAt.Equal(entries[b].ModifiedAt) {
			return entries[a].ModifiedAt.After(entries[b].ModifiedAt)
		}
		return entries[a].Name < entries[b].Name
	})

	i.mu.Lock()
	i.entries = entries
	i.refreshedAt = time.Now().UTC()
	i.mu.Unlock()
	i.logger.Debug("document index refreshed", zap.Int("documents", len(entries)))
	return len(entries), nil
}

// List returns a copy of the entries from the last Refresh.
func (i *DocumentIndex) List() []IndexEntry {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]IndexEntry, len(i.entries))
	copy(out, i.entries)
	return out
}

// RefreshedAt reports when the index was last rebuilt. Zero means never.
func (i *DocumentIndex) RefreshedAt() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.refreshedAt
}

func (i *DocumentIndex) pageCount(name string) *int {
	f, err := i.store.Open(name)
	if err != nil {
		i.logger.Debug("document index open failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	defer f.Close() //nolint:errcheck
	count, err := api.PageCount(f, nil)
	if err != nil {
		i.logger.Debug("document index page count failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	return &count
}
