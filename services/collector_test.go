package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"recs_collector/models"
	"recs_collector/repository"
)

type memorySink struct {
	mu      sync.Mutex
	batches [][]models.UserRecord
	err     error
}

func (m *memorySink) SaveUsers(_ context.Context, users []models.UserRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]models.UserRecord(nil), users...))
	return nil
}

func (m *memorySink) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

type fakeResponse struct {
	status int
	body   string
}

// newFakeRecsAPI 按顺序返回预设的页面，超出后返回最后一页
func newFakeRecsAPI(t *testing.T, pages ...fakeResponse) (*httptest.Server, func() int) {
	t.Helper()
	var mu sync.Mutex
	calls := 0

	r := chi.NewRouter()
	r.Get("/v2/recs/core", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		idx := calls
		calls++
		mu.Unlock()
		if idx >= len(pages) {
			idx = len(pages) - 1
		}
		w.WriteHeader(pages[idx].status)
		w.Write([]byte(pages[idx].body))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}
}

func userJSON(id, name string) string {
	return `{"type":"user","user":{"_id":"` + id + `","name":"` + name + `","birth_date":"2000-06-15T00:00:00.000Z","photos":[{"url":"https://img/` + id + `"}]}}`
}

func pageJSON(results ...string) string {
	return `{"meta":{"status":200},"data":{"results":[` + strings.Join(results, ",") + `]}}`
}

func newCollector(baseURL string, state *RunState, sinks ...UserSink) *Collector {
	return &Collector{
		Fetcher: newTestClient(baseURL),
		Sinks:   sinks,
		State:   state,
		Delay:   time.Millisecond,
		Now:     func() time.Time { return fixedNow },
	}
}

func TestCollectorEndToEnd(t *testing.T) {
	srv, calls := newFakeRecsAPI(t,
		fakeResponse{200, pageJSON(userJSON("aaaaaaaa-1111", "Alice"), userJSON("bbbbbbbb-2222", "Bea"))},
		fakeResponse{200, pageJSON(userJSON("cccccccc-3333", "Cleo"), userJSON("aaaaaaaa-1111", "Alice"))},
		fakeResponse{http.StatusTooManyRequests, `{"error":"rate limited"}`},
	)

	store, err := repository.NewCSVStore(t.TempDir(), "tinder_users", fixedNow)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	defer store.Close()
	mem := &memorySink{}

	state := NewRunState(store.Path(), fixedNow)
	summary := newCollector(srv.URL, state, store, mem).Run(context.Background())

	if summary.StopReason != StopNonSuccess {
		t.Fatalf("stop reason = %s, want %s", summary.StopReason, StopNonSuccess)
	}
	if summary.Requests != 3 || calls() != 3 {
		t.Fatalf("requests = %d (server saw %d), want 3", summary.Requests, calls())
	}
	if summary.UniqueUsers != 3 || mem.total() != 3 {
		t.Fatalf("unique users = %d, sink rows = %d, want 3", summary.UniqueUsers, mem.total())
	}
	if len(mem.batches) != 2 || len(mem.batches[0]) != 2 || len(mem.batches[1]) != 1 {
		t.Fatalf("batches = %v", mem.batches)
	}

	f, err := os.Open(store.Path())
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("csv rows = %d, want header + 3", len(rows))
	}
	for i, want := range []string{"aaaaaaaa-1111", "bbbbbbbb-2222", "cccccccc-3333"} {
		if rows[i+1][0] != want {
			t.Fatalf("row %d id = %s, want %s", i+1, rows[i+1][0], want)
		}
	}
	if rows[1][2] != "23" {
		t.Fatalf("age column = %q, want 23", rows[1][2])
	}

	snap := state.Snapshot()
	if snap.State != "stopped" || snap.StopReason != string(StopNonSuccess) {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestCollectorStopsOnEmptyPage(t *testing.T) {
	srv, calls := newFakeRecsAPI(t,
		fakeResponse{200, pageJSON(userJSON("u1", "A"))},
		fakeResponse{200, pageJSON(userJSON("u1", "A"))},
	)
	state := NewRunState("out.csv", fixedNow)
	summary := newCollector(srv.URL, state, &memorySink{}).Run(context.Background())

	if summary.StopReason != StopEmptyPage || summary.Requests != 2 || calls() != 2 {
		t.Fatalf("summary = %+v, calls = %d", summary, calls())
	}
}

func TestCollectorMissingResultsIsEmptyPage(t *testing.T) {
	srv, _ := newFakeRecsAPI(t, fakeResponse{200, `{"meta":{"status":200}}`})
	summary := newCollector(srv.URL, NewRunState("out.csv", fixedNow)).Run(context.Background())

	if summary.StopReason != StopEmptyPage || summary.Requests != 1 || summary.UniqueUsers != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestCollectorMalformedJSONStops(t *testing.T) {
	srv, _ := newFakeRecsAPI(t, fakeResponse{200, `{"data":`})
	summary := newCollector(srv.URL, NewRunState("out.csv", fixedNow)).Run(context.Background())

	if summary.StopReason != StopNonSuccess || summary.Requests != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestCollectorOddFieldTypeKeepsPage(t *testing.T) {
	srv, _ := newFakeRecsAPI(t,
		fakeResponse{200, pageJSON(userJSON("u1", "A"), `{"type":"user","user":{"_id":"u2","name":42}}`, `{"type":"user","user":"oops"}`)},
		fakeResponse{429, `{"error":"rate limited"}`},
	)
	sink := &memorySink{}
	state := NewRunState("out.csv", fixedNow)
	summary := newCollector(srv.URL, state, sink).Run(context.Background())

	if summary.StopReason != StopNonSuccess || summary.Requests != 2 {
		t.Fatalf("summary = %+v, want stop on the 429 after two requests", summary)
	}
	if summary.UniqueUsers != 2 || sink.total() != 2 {
		t.Fatalf("users = %d persisted = %d, want u1 and u2", summary.UniqueUsers, sink.total())
	}
	if !state.Seen("u1") || !state.Seen("u2") {
		t.Fatal("u1 and u2 should both be recorded")
	}
}

func TestCollectorRequestLimit(t *testing.T) {
	var n atomic.Int32
	r := chi.NewRouter()
	r.Get("/v2/recs/core", func(w http.ResponseWriter, _ *http.Request) {
		i := n.Add(1)
		w.Write([]byte(pageJSON(userJSON("id-"+strings.Repeat("x", int(i)), "N"))))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newCollector(srv.URL, NewRunState("out.csv", fixedNow), &memorySink{})
	c.MaxRequests = 2
	summary := c.Run(context.Background())

	if summary.StopReason != StopRequestLimit || summary.Requests != 2 || n.Load() != 2 {
		t.Fatalf("summary = %+v, server calls = %d", summary, n.Load())
	}
	if summary.UniqueUsers != 2 {
		t.Fatalf("unique users = %d", summary.UniqueUsers)
	}
}

func TestCollectorZeroDelay(t *testing.T) {
	var n atomic.Int32
	r := chi.NewRouter()
	r.Get("/v2/recs/core", func(w http.ResponseWriter, _ *http.Request) {
		i := n.Add(1)
		w.Write([]byte(pageJSON(userJSON("z-"+strings.Repeat("z", int(i)), "Z"))))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newCollector(srv.URL, NewRunState("out.csv", fixedNow), &memorySink{})
	c.Delay = 0
	c.MaxRequests = 3
	summary := c.Run(context.Background())

	if summary.StopReason != StopRequestLimit || summary.Requests != 3 || summary.UniqueUsers != 3 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestCollectorInterruptedDuringDelay(t *testing.T) {
	srv, calls := newFakeRecsAPI(t, fakeResponse{200, pageJSON(userJSON("u1", "A"))})

	ctx, cancel := context.WithCancel(context.Background())
	sink := &memorySink{}
	c := newCollector(srv.URL, NewRunState("out.csv", fixedNow), sink)
	c.Delay = time.Hour

	done := make(chan Summary, 1)
	go func() { done <- c.Run(ctx) }()

	// 等第一页写入后再中断
	deadline := time.After(5 * time.Second)
	for sink.total() == 0 {
		select {
		case <-deadline:
			t.Fatal("first page never persisted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case summary := <-done:
		if summary.StopReason != StopInterrupted || summary.Requests != 1 || summary.UniqueUsers != 1 {
			t.Fatalf("summary = %+v", summary)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop after cancel")
	}
	if calls() != 1 {
		t.Fatalf("calls = %d", calls())
	}
}

func TestCollectorInterruptedBeforeStart(t *testing.T) {
	srv, calls := newFakeRecsAPI(t, fakeResponse{200, pageJSON(userJSON("u1", "A"))})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := newCollector(srv.URL, NewRunState("out.csv", fixedNow)).Run(ctx)
	if summary.StopReason != StopInterrupted || summary.Requests != 0 || calls() != 0 {
		t.Fatalf("summary = %+v, calls = %d", summary, calls())
	}
}

func TestCollectorStorageFailure(t *testing.T) {
	srv, _ := newFakeRecsAPI(t, fakeResponse{200, pageJSON(userJSON("u1", "A"))})
	sink := &memorySink{err: errors.New("disk full")}

	summary := newCollector(srv.URL, NewRunState("out.csv", fixedNow), sink).Run(context.Background())
	if summary.StopReason != StopStorageFailed || summary.Requests != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSummaryPrint(t *testing.T) {
	state := NewRunState("tinder_users_20240614_120000.csv", fixedNow)
	for _, id := range []string{"abcdefghijk", "u2", "u3", "u4", "u5", "u6", "u7"} {
		state.Add(models.UserRecord{UserID: id, Name: "N" + id, Age: models.AgeUnknown, PhotoCount: 2})
	}
	state.nextRequest()
	c := &Collector{State: state}

	var buf bytes.Buffer
	c.summarize(StopEmptyPage).Print(&buf)
	out := buf.String()

	for _, want := range []string{
		"Total requests made: 1",
		"Total unique users collected: 7",
		"CSV file saved at: tinder_users_20240614_120000.csv",
		"1. Nabcdefghijk (ID: abcdefgh...) - Age: N/A - 2 photos",
		"5. Nu5",
		"... and 2 more users",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Nu6") {
		t.Errorf("preview should be capped at %d:\n%s", SummaryPreviewSize, out)
	}
}
