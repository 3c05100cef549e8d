package catalog

import (
	"sync/atomic"
)

// Store holds the current catalog and supports cheap idempotent reloads.
// Readers always see a complete catalog; a failed reload keeps the old one.
type Store struct {
	path    string
	current atomic.Pointer[Catalog]
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	return s, nil
}

// NewStaticStore wraps a fixed catalog with no spreadsheet behind it.
// Reload keeps the catalog unchanged.
func NewStaticStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the latest successfully loaded catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload re-reads the spreadsheet. On error the previous catalog stays
// active and the error is returned for logging.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}
