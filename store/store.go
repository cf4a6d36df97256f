package store

import (
	"database/sql"
	"sync"
)

// Store wraps the two sqlite databases: appDb holds user-owned rows
// (progress, history, lists, comments, jobs), catalogDb holds the manga
// catalog. Catalog writes only happen from the ingestion workers; every
// read path treats it as read-only.
//
// sqlite allows a single writer per database, so each write takes the
// matching mutex around its transaction.
type Store struct {
	appDb     *sql.DB
	catalogDb *sql.DB

	appDbLock     sync.Mutex
	catalogDbLock sync.Mutex

	UserCache  sync.Map // map[int32]*model.User
	MangaCache sync.Map // map[int64]*model.Manga
}

func NewStore(appDb, catalogDb *sql.DB) *Store {
	return &Store{
		appDb:     appDb,
		catalogDb: catalogDb,
	}
}

func (s *Store) DBStats() sql.DBStats {
	return s.appDb.Stats()
}

func (s *Store) Ping() error {
	if err := s.appDb.Ping(); err != nil {
		return err
	}
	return s.catalogDb.Ping()
}
