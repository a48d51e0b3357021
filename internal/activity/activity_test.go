package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"procurement/internal/client"
	"procurement/internal/querycache"

	"github.com/stretchr/testify/require"
)

type call struct {
	kind   Kind
	id     string
	params client.ListParams
}

type fakeFeeds struct {
	mu      sync.Mutex
	calls   []call
	entries []client.ActivityEntry
}

func (f *fakeFeeds) record(k Kind, id string, p client.ListParams) (client.Page[client.ActivityEntry], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: k, id: id, params: p})
	return client.Page[client.ActivityEntry]{
		Data: f.entries, Total: int64(len(f.entries)) + 10, CurrentPage: p.Page, LastPage: 3, PerPage: 10,
	}, nil
}

func (f *fakeFeeds) SupplierActivity(_ context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error) {
	return f.record(KindSupplier, id, p)
}

func (f *fakeFeeds) ProductActivity(_ context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error) {
	return f.record(KindProduct, id, p)
}

func (f *fakeFeeds) UserActivity(_ context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error) {
	return f.record(KindUser, id, p)
}

func (f *fakeFeeds) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func TestParseTarget(t *testing.T) {
	tg, err := ParseTarget(" Product ", "p-1")
	require.NoError(t, err)
	require.Equal(t, Target{Kind: KindProduct, ID: "p-1"}, tg)

	_, err = ParseTarget("rfq", "r-1")
	require.Error(t, err)
	_, err = ParseTarget("user", " ")
	require.Error(t, err)
}

func TestLoadDispatchesOnlyTheTargetKind(t *testing.T) {
	feeds := &fakeFeeds{}
	v := NewViewer(feeds, querycache.New(0))

	for _, k := range []Kind{KindSupplier, KindProduct, KindUser} {
		_, err := v.Load(context.Background(), Target{Kind: k, ID: "x"}, "", 1, 10)
		require.NoError(t, err)
	}
	calls := feeds.snapshot()
	require.Len(t, calls, 3)
	require.Equal(t, KindSupplier, calls[0].kind)
	require.Equal(t, KindProduct, calls[1].kind)
	require.Equal(t, KindUser, calls[2].kind)

	_, err := v.Load(context.Background(), Target{Kind: "rfq", ID: "x"}, "", 1, 10)
	require.Error(t, err)
	require.Len(t, feeds.snapshot(), 3)
}

func TestBadgeColours(t *testing.T) {
	require.Equal(t, BadgeGreen, BadgeFor("created"))
	require.Equal(t, BadgeBlue, BadgeFor("updated"))
	require.Equal(t, BadgeRed, BadgeFor("deleted"))
	require.Equal(t, BadgeAmber, BadgeFor("status_changed"))
	require.Equal(t, BadgeGray, BadgeFor("products_attached"))
}

func TestTimelineEntries(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	feeds := &fakeFeeds{entries: []client.ActivityEntry{{
		ID: "a1", Action: "status_changed", ActorName: "Abebe",
		Changes: map[string]client.Change{
			"status":     {Old: "active", New: "suspended"},
			"risk_score": {Old: nil, New: float64(3)},
		},
		IPAddress: "10.0.0.5", UserAgent: "curl/8", CreatedAt: at,
	}, {ID: "a2", Action: "created"}}}
	v := NewViewer(feeds, querycache.New(time.Minute))

	p, err := v.Load(context.Background(), Target{Kind: KindSupplier, ID: "s1"}, "  susp ", 2, 10)
	require.NoError(t, err)
	require.Equal(t, "susp", p.Search)
	require.Equal(t, int64(11), p.From)
	require.Equal(t, int64(12), p.To)

	e := p.Entries[0]
	require.Equal(t, "Abebe", e.Actor)
	require.Equal(t, "Status changed", e.Verb)
	require.Equal(t, BadgeAmber, e.Badge)
	require.Equal(t, []DiffLine{
		{Field: "risk_score", Old: "(none)", New: "3"},
		{Field: "status", Old: "active", New: "suspended"},
	}, e.Diff)
	require.Equal(t, "10.0.0.5", e.IPAddress)
	require.Equal(t, at, e.At)

	require.Equal(t, "System", p.Entries[1].Actor)
	require.Nil(t, p.Entries[1].Diff)
}

func TestDebouncerCoalescesInput(t *testing.T) {
	fired := make(chan string, 4)
	d := NewDebouncer(20*time.Millisecond, func(term string) { fired <- term })

	d.Input("l")
	d.Input("la")
	d.Input("lap ")
	require.Equal(t, "lap", <-fired)

	d.Input("lap")
	select {
	case term := <-fired:
		t.Fatalf("unchanged term fired again: %q", term)
	case <-time.After(60 * time.Millisecond):
	}
	require.Equal(t, "lap", d.Committed())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	fired := make(chan string, 1)
	d := NewDebouncer(20*time.Millisecond, func(term string) { fired <- term })
	d.Input("abc")
	d.Stop()
	d.Input("def")

	select {
	case term := <-fired:
		t.Fatalf("fired after stop: %q", term)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestLiveSearchResetsToFirstPage(t *testing.T) {
	feeds := &fakeFeeds{}
	pages := make(chan Page, 8)
	live := NewLive(context.Background(), NewViewer(feeds, querycache.New(0)), Target{Kind: KindUser, ID: "u1"}, 10,
		10*time.Millisecond, func(p Page, _ error) { pages <- p })
	defer live.Close()

	live.Start()
	require.Equal(t, 1, (<-pages).CurrentPage)

	live.SetPage(3)
	require.Equal(t, 3, (<-pages).CurrentPage)

	live.Search("admin")
	p := <-pages
	require.Equal(t, 1, p.CurrentPage)
	require.Equal(t, "admin", p.Search)

	live.SetPage(2)
	p = <-pages
	require.Equal(t, 2, p.CurrentPage)
	require.Equal(t, "admin", p.Search)

	calls := feeds.snapshot()
	require.Len(t, calls, 4)
	require.Equal(t, "admin", calls[3].params.Search)
}

func TestLiveCloseStopsEmits(t *testing.T) {
	feeds := &fakeFeeds{}
	emitted := make(chan Page, 2)
	live := NewLive(context.Background(), NewViewer(feeds, querycache.New(0)), Target{Kind: KindProduct, ID: "p1"}, 10,
		10*time.Millisecond, func(p Page, _ error) { emitted <- p })

	live.Search("x")
	live.Close()
	live.SetPage(2)

	select {
	case <-emitted:
		t.Fatal("emitted after close")
	case <-time.After(40 * time.Millisecond):
	}
	require.Empty(t, feeds.snapshot())
}
