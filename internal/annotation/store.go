package annotation

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

type storeEntry struct {
	doc     Document
	modTime time.Time
	size    int64
}

// Store caches loaded documents per path and invalidates entries by file
// modification time, so repeated loads of an unchanged file return the same
// in-memory document. Saves write through and refresh the cached entry.
// Single-session: exactly one operator mutates a document at a time.
type Store struct {
	mu   sync.RWMutex
	docs map[string]storeEntry
	log  *zap.SugaredLogger
}

func NewStore(logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{docs: make(map[string]storeEntry), log: logger}
}

// Load returns the cached document for path when the file is unchanged,
// otherwise reads it from disk.
func (s *Store) Load(path string) (Document, error) {
	info, err := os.Stat(path)
	if err == nil {
		s.mu.RLock()
		entry, ok := s.docs[path]
		s.mu.RUnlock()
		if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			s.log.Debugw("document cache hit", "path", path)
			return entry.doc, nil
		}
	}

	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(path); statErr == nil {
		s.mu.Lock()
		s.docs[path] = storeEntry{doc: doc, modTime: info.ModTime(), size: info.Size()}
		s.mu.Unlock()
	}
	s.log.Infow("document loaded", "path", path, "captions", len(doc))
	return doc, nil
}

// Save persists the document and refreshes the cache entry so the follow-up
// load does not re-read our own write.
func (s *Store) Save(path string, doc Document) error {
	if err := SaveDocument(path, doc); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		s.mu.Lock()
		s.docs[path] = storeEntry{doc: doc, modTime: info.ModTime(), size: info.Size()}
		s.mu.Unlock()
	}
	s.log.Infow("document saved", "path", path)
	return nil
}

// Invalidate drops the cached entry for path.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
}
