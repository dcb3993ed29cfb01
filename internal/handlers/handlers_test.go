package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"io.winapps.worklog/internal/journal"
	"io.winapps.worklog/internal/metrics"
	getjournalmodels "io.winapps.worklog/internal/models/get_journal"
	listpendingmodels "io.winapps.worklog/internal/models/list_pending"
	searchusersmodels "io.winapps.worklog/internal/models/search_users"
	"io.winapps.worklog/internal/pending"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	store   *fakeStore
	cache   *fakeCache
	tracker *pending.MemoryTracker
	metrics *metrics.Metrics
}

// newTestServer wires the handlers the way main does, with the signed-in
// uid taken from the X-Test-UID header.
func newTestServer(store *fakeStore) *testServer {
	ts := &testServer{
		store:   store,
		cache:   newFakeCache(),
		tracker: pending.NewMemoryTracker(time.Minute),
		metrics: metrics.New(),
	}
	logger := zap.NewNop().Sugar()
	entryHandler := NewEntryHandler(store, ts.cache, ts.tracker, ts.metrics, logger)
	usersHandler := NewUsersHandler(store, store, ts.cache, ts.tracker, ts.metrics, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-UID"); uid != "" {
			c.Set("uid", uid)
		}
		c.Next()
	})
	v1 := r.Group("/api/v1")
	v1.GET("/me", usersHandler.Me)
	v1.GET("/users/list-users", usersHandler.ListUsers)
	v1.GET("/users/:username/journal", usersHandler.GetJournal)
	v1.POST("/entries/create-entry", entryHandler.CreateEntry)
	v1.POST("/entries/get-entry", entryHandler.GetEntry)
	v1.POST("/entries/update-entry", entryHandler.UpdateEntry)
	v1.POST("/entries/delete-entry", entryHandler.DeleteEntry)
	v1.GET("/entries/pending", entryHandler.ListPending)
	ts.router = r
	return ts
}

func (ts *testServer) do(method, path, uid string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-Test-UID", uid)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) journal(t *testing.T, username, viewer string) getjournalmodels.GetJournalResponse {
	t.Helper()
	w := ts.do(http.MethodGet, "/api/v1/users/"+username+"/journal", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp getjournalmodels.GetJournalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func weekEntries(resp getjournalmodels.GetJournalResponse) []journal.Entry {
	return journal.Result{Weeks: resp.Weeks}.Entries()
}

func entryIDs(entries []journal.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func submission(id, date, typ, privacy, text string) map[string]string {
	return map[string]string{"id": id, "date": date, "type": typ, "privacy": privacy, "text": text}
}

func TestCreateEntry(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID,
		submission("e1", "2024-01-10T09:00:00Z", "work", "everyone", "  shipped it  "))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got journal.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, journal.Entry{ID: "e1", Date: "2024-01-10", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "shipped it"}, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EntriesCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(ts.metrics.PendingSubmissions))

	inFlight, err := ts.tracker.List(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, inFlight)
}

func TestCreateEntry_GeneratesID(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID,
		submission("", "2024-01-10", "learning", "private", "note"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got journal.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
}

func TestCreateEntry_Rejections(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", "", submission("e1", "2024-01-10", "work", "public", "x"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID, submission("e1", "someday", "chore", "public", ""))
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid entry", body.Error)
	assert.Equal(t, map[string]string{
		"date": "Date is invalid",
		"type": "Type is invalid",
		"text": "Entry is required",
	}, body.Fields)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/create-entry", bytes.NewBufferString("{"))
	req.Header.Set("X-Test-UID", alice.ID)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntry_Conflict(t *testing.T) {
	store := newFakeStore(alice)
	store.put(alice.ID, journal.Entry{ID: "e1", Date: "2024-01-10", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "first"})
	ts := newTestServer(store)

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID, submission("e1", "2024-01-11", "work", "public", "again"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EntryCreateFailures))

	resp := ts.journal(t, "alice", alice.ID)
	assert.False(t, resp.Saving)
	assert.Equal(t, []string{"e1"}, entryIDs(weekEntries(resp)))
	assert.Equal(t, "first", weekEntries(resp)[0].Text)
}

func TestCreateEntry_FailureSettles(t *testing.T) {
	store := newFakeStore(alice)
	store.createErr = errBoom
	ts := newTestServer(store)

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID, submission("e1", "2024-01-10", "work", "public", "x"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := ts.journal(t, "alice", alice.ID)
	assert.False(t, resp.Saving)
	assert.Empty(t, resp.Weeks)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EntryCreateFailures))
}

func TestCreateEntry_VisibleWhileInFlight(t *testing.T) {
	store := newFakeStore(alice, bob)
	store.createStarted = make(chan struct{})
	store.createRelease = make(chan struct{})
	ts := newTestServer(store)

	done := make(chan int)
	go func() {
		w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID, submission("e1", "2024-01-10", "work", "private", "draft"))
		done <- w.Code
	}()
	<-store.createStarted

	owner := ts.journal(t, "alice", alice.ID)
	assert.True(t, owner.Saving)
	assert.Equal(t, []string{"e1"}, entryIDs(weekEntries(owner)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.PendingSubmissions))

	viewer := ts.journal(t, "alice", bob.ID)
	assert.False(t, viewer.Saving)
	assert.Empty(t, viewer.Weeks, "private pending entries stay hidden from other users")

	w := ts.do(http.MethodGet, "/api/v1/entries/pending", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listpendingmodels.ListPendingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.True(t, list.Saving)
	assert.Equal(t, []string{"e1"}, entryIDs(list.Entries))

	close(store.createRelease)
	require.Equal(t, http.StatusCreated, <-done)

	owner = ts.journal(t, "alice", alice.ID)
	assert.False(t, owner.Saving)
	assert.Equal(t, []string{"e1"}, entryIDs(weekEntries(owner)))
}

func TestGetJournal(t *testing.T) {
	store := newFakeStore(alice, bob)
	store.put(alice.ID,
		journal.Entry{ID: "w1", Date: "2024-01-08", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "public work"},
		journal.Entry{ID: "l1", Date: "2024-01-09", Type: journal.TypeLearning, Privacy: journal.PrivacyPrivate, Text: "private learning"},
		journal.Entry{ID: "i1", Date: "2024-01-02", Type: journal.TypeInterestingThing, Privacy: journal.PrivacyPublic, Text: "older"},
	)
	ts := newTestServer(store)

	owner := ts.journal(t, "alice", alice.ID)
	assert.True(t, owner.OwnerIsSignedIn)
	assert.Equal(t, "Alice", owner.Owner.First)
	assert.Equal(t, "Alice Archer", owner.Owner.DisplayName)
	require.Len(t, owner.Weeks, 2)
	assert.Equal(t, "2024-01-07", owner.Weeks[0].Start)
	assert.Equal(t, "2023-12-31", owner.Weeks[1].Start)
	require.Len(t, owner.Weeks[0].Sections, 3)
	assert.Equal(t, "Work", owner.Weeks[0].Sections[0].Title)
	assert.Equal(t, "Learnings", owner.Weeks[0].Sections[1].Title)
	assert.Equal(t, "Interesting Things", owner.Weeks[0].Sections[2].Title)
	assert.Equal(t, []string{"w1", "l1", "i1"}, entryIDs(weekEntries(owner)))

	anonymous := ts.journal(t, "alice", "")
	assert.False(t, anonymous.OwnerIsSignedIn)
	assert.Equal(t, []string{"w1", "i1"}, entryIDs(weekEntries(anonymous)))

	other := ts.journal(t, "alice", bob.ID)
	assert.Equal(t, []string{"w1", "i1"}, entryIDs(weekEntries(other)))

	w := ts.do(http.MethodGet, "/api/v1/users/nobody/journal", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJournal_Empty(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodGet, "/api/v1/users/alice/journal", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"weeks":[]`)
}

func TestGetJournal_UsesCache(t *testing.T) {
	store := newFakeStore(alice)
	store.put(alice.ID, journal.Entry{ID: "w1", Date: "2024-01-08", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "a"})
	ts := newTestServer(store)

	ts.journal(t, "alice", alice.ID)
	ts.journal(t, "alice", alice.ID)
	assert.Equal(t, 1, store.listCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.JournalCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.JournalCacheLookups.WithLabelValues("miss")))

	w := ts.do(http.MethodPost, "/api/v1/entries/delete-entry", alice.ID, map[string]string{"entryId": "w1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.journal(t, "alice", alice.ID).Weeks)
	assert.Equal(t, 2, store.listCalls())
}

func TestGetJournal_CacheDown(t *testing.T) {
	store := newFakeStore(alice)
	store.put(alice.ID, journal.Entry{ID: "w1", Date: "2024-01-08", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "a"})
	ts := newTestServer(store)
	ts.cache.err = errBoom

	resp := ts.journal(t, "alice", "")
	assert.Equal(t, []string{"w1"}, entryIDs(weekEntries(resp)))
}

func TestGetJournal_SlowReadDoesNotCacheOverCreate(t *testing.T) {
	store := newFakeStore(alice)
	store.listed = make(chan struct{})
	store.listRelease = make(chan struct{})
	listed, release := store.listed, store.listRelease
	ts := newTestServer(store)

	done := make(chan int)
	go func() {
		w := ts.do(http.MethodGet, "/api/v1/users/alice/journal", alice.ID, nil)
		done <- w.Code
	}()
	<-listed

	w := ts.do(http.MethodPost, "/api/v1/entries/create-entry", alice.ID, submission("e1", "2024-01-10", "work", "public", "x"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	close(release)
	require.Equal(t, http.StatusOK, <-done)

	resp := ts.journal(t, "alice", alice.ID)
	assert.Equal(t, []string{"e1"}, entryIDs(weekEntries(resp)))
	assert.Equal(t, 2, store.listCalls())
}

func TestGetJournal_ReportsInvalidEntries(t *testing.T) {
	store := newFakeStore(alice)
	store.put(alice.ID,
		journal.Entry{ID: "ok", Date: "2024-01-08", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "a"},
		journal.Entry{ID: "bad", Date: "not-a-date", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "b"},
	)
	ts := newTestServer(store)

	resp := ts.journal(t, "alice", alice.ID)
	assert.Equal(t, []string{"ok"}, entryIDs(weekEntries(resp)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.InvalidEntryDates))
}

func TestEntryEditFlow(t *testing.T) {
	store := newFakeStore(alice, bob)
	store.put(alice.ID, journal.Entry{ID: "e1", Date: "2024-01-08", Type: journal.TypeWork, Privacy: journal.PrivacyPublic, Text: "before"})
	ts := newTestServer(store)

	w := ts.do(http.MethodPost, "/api/v1/entries/get-entry", alice.ID, map[string]string{"entryId": "e1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"before"`)

	w = ts.do(http.MethodPost, "/api/v1/entries/get-entry", bob.ID, map[string]string{"entryId": "e1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/entries/get-entry", alice.ID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	update := map[string]string{"entryId": "e1", "date": "2024-01-09", "type": "learning", "privacy": "owner", "text": "after", "link": "https://example.com"}
	w = ts.do(http.MethodPost, "/api/v1/entries/update-entry", alice.ID, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := store.GetEntry(context.Background(), "e1", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.Entry{ID: "e1", Date: "2024-01-09", Type: journal.TypeLearning, Privacy: journal.PrivacyPrivate, Text: "after", Link: "https://example.com"}, got)

	w = ts.do(http.MethodPost, "/api/v1/entries/update-entry", bob.ID, update)
	assert.Equal(t, http.StatusNotFound, w.Code)

	update["link"] = "not a url"
	w = ts.do(http.MethodPost, "/api/v1/entries/update-entry", alice.ID, update)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Link is invalid")

	w = ts.do(http.MethodPost, "/api/v1/entries/delete-entry", bob.ID, map[string]string{"entryId": "e1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/entries/delete-entry", alice.ID, map[string]string{"entryId": "e1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isDeleted":true,"entryId":"e1"}`, w.Body.String())

	w = ts.do(http.MethodPost, "/api/v1/entries/delete-entry", alice.ID, map[string]string{"entryId": "e1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPending_RequiresAuth(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodGet, "/api/v1/entries/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/entries/pending", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"saving":false,"entries":[]}`, w.Body.String())
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(newFakeStore(alice, bob, carol))

	decode := func(w *httptest.ResponseRecorder) []searchusersmodels.SearchUserResult {
		t.Helper()
		require.Equal(t, http.StatusOK, w.Code)
		var resp searchusersmodels.SearchUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Results
	}
	names := func(results []searchusersmodels.SearchUserResult) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.Username
		}
		return out
	}

	all := decode(ts.do(http.MethodGet, "/api/v1/users/list-users", alice.ID, nil))
	assert.Equal(t, []string{"bob", "alice", "carol"}, names(all))
	assert.False(t, all[0].IsSelf)
	assert.True(t, all[1].IsSelf)

	anonymous := decode(ts.do(http.MethodGet, "/api/v1/users/list-users", "", nil))
	for _, r := range anonymous {
		assert.False(t, r.IsSelf)
	}

	assert.Equal(t, []string{"carol"}, names(decode(ts.do(http.MethodGet, "/api/v1/users/list-users?q=cole", "", nil))))
	assert.Equal(t, []string{"alice"}, names(decode(ts.do(http.MethodGet, "/api/v1/users/list-users?q=alarch", "", nil))))
	assert.Empty(t, decode(ts.do(http.MethodGet, "/api/v1/users/list-users?q=zzz", "", nil)))
}

func TestMe(t *testing.T) {
	ts := newTestServer(newFakeStore(alice))

	w := ts.do(http.MethodGet, "/api/v1/me", alice.ID, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/users/alice/journal", w.Header().Get("Location"))

	w = ts.do(http.MethodGet, "/api/v1/me", "uid-ghost", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
