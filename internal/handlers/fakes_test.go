package handlers

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"io.winapps.worklog/internal/db"
	"io.winapps.worklog/internal/journal"
	models "io.winapps.worklog/internal/models/account"
)

type storedEntry struct {
	owner string
	entry journal.Entry
}

// fakeStore is an in-memory EntryStore and UserStore.
type fakeStore struct {
	mu      sync.Mutex
	users   []models.User
	entries []storedEntry
	lists   int

	// listed and listRelease, when set, hold ListEntries open after it has
	// taken its snapshot.
	listed      chan struct{}
	listRelease chan struct{}

	// createStarted and createRelease, when set, hold CreateEntry open.
	createStarted chan struct{}
	createRelease chan struct{}
	createErr     error
}

func newFakeStore(users ...models.User) *fakeStore {
	return &fakeStore{users: users}
}

func (s *fakeStore) ListEntries(_ context.Context, ownerID string, publicOnly bool) ([]journal.Entry, error) {
	s.mu.Lock()
	s.lists++
	out := []journal.Entry{}
	for _, se := range s.entries {
		if se.owner == ownerID && (!publicOnly || se.entry.IsPublic()) {
			out = append(out, se.entry)
		}
	}
	listed, release := s.listed, s.listRelease
	s.listed, s.listRelease = nil, nil
	s.mu.Unlock()

	if listed != nil {
		close(listed)
		<-release
	}
	return out, nil
}

func (s *fakeStore) GetEntry(_ context.Context, entryID, ownerID string) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, se := range s.entries {
		if se.owner == ownerID && se.entry.ID == entryID {
			return se.entry, nil
		}
	}
	return journal.Entry{}, db.ErrNotFound
}

func (s *fakeStore) CreateEntry(_ context.Context, ownerID string, e journal.Entry) error {
	if s.createStarted != nil {
		close(s.createStarted)
		<-s.createRelease
	}
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, se := range s.entries {
		if se.entry.ID == e.ID {
			return db.ErrConflict
		}
	}
	s.entries = append(s.entries, storedEntry{owner: ownerID, entry: e})
	return nil
}

func (s *fakeStore) UpdateEntry(_ context.Context, ownerID string, e journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, se := range s.entries {
		if se.owner == ownerID && se.entry.ID == e.ID {
			s.entries[i].entry = e
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *fakeStore) DeleteEntry(_ context.Context, entryID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, se := range s.entries {
		if se.owner == ownerID && se.entry.ID == entryID {
			s.entries = slices.Delete(s.entries, i, i+1)
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, db.ErrNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, db.ErrNotFound
}

func (s *fakeStore) ListUsers(context.Context) ([]models.User, error) {
	return slices.Clone(s.users), nil
}

func (s *fakeStore) put(owner string, entries ...journal.Entry) {
	for _, e := range entries {
		s.entries = append(s.entries, storedEntry{owner: owner, entry: e})
	}
}

func (s *fakeStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

type cacheKey struct {
	owner      string
	publicOnly bool
}

// fakeCache is an in-memory JournalCache with per-owner generations.
type fakeCache struct {
	mu      sync.Mutex
	entries map[cacheKey][]journal.Entry
	gens    map[string]int64
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[cacheKey][]journal.Entry{}, gens: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, ownerID string, publicOnly bool) ([]journal.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	e, ok := c.entries[cacheKey{ownerID, publicOnly}]
	return e, ok, nil
}

func (c *fakeCache) Generation(_ context.Context, ownerID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.gens[ownerID], nil
}

func (c *fakeCache) Set(_ context.Context, ownerID string, publicOnly bool, gen int64, entries []journal.Entry) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.gens[ownerID] != gen {
		return false, nil
	}
	c.entries[cacheKey{ownerID, publicOnly}] = slices.Clone(entries)
	return true, nil
}

func (c *fakeCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.gens[ownerID]++
	delete(c.entries, cacheKey{ownerID, false})
	delete(c.entries, cacheKey{ownerID, true})
	return nil
}

var errBoom = errors.New("boom")

var (
	alice = models.User{ID: "uid-alice", Username: "alice", First: "Alice", Last: "Archer", Email: "alice@example.com", CreatedAt: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}
	bob   = models.User{ID: "uid-bob", Username: "bob", First: "Bob", Last: "Baker", Email: "bob@example.com", CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)}
	carol = models.User{ID: "uid-carol", Username: "carol", First: "Carol", Last: "Cole", Email: "carol@example.com", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
)
