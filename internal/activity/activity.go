// Package activity renders the audit trail of a supplier, product or user as
// a paginated timeline.
package activity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"procurement/internal/client"
	"procurement/internal/querycache"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Kind string

const (
	KindSupplier Kind = "supplier"
	KindProduct  Kind = "product"
	KindUser     Kind = "user"
)

// Target names the entity whose feed is shown
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func ParseTarget(kind, id string) (Target, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case KindSupplier, KindProduct, KindUser:
	default:
		return Target{}, fmt.Errorf("unknown activity kind %q", kind)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Target{}, fmt.Errorf("%s id is required", k)
	}
	return Target{Kind: k, ID: id}, nil
}

// Resource is the cache resource of the target's feed
func (t Target) Resource() string {
	return "activity/" + string(t.Kind) + "/" + t.ID
}

// Backend provides one feed per kind; *client.Session satisfies it
type Backend interface {
	SupplierActivity(ctx context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error)
	ProductActivity(ctx context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error)
	UserActivity(ctx context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error)
}

type fetchFunc func(ctx context.Context, id string, p client.ListParams) (client.Page[client.ActivityEntry], error)

func fetcher(b Backend, k Kind) fetchFunc {
	switch k {
	case KindSupplier:
		return b.SupplierActivity
	case KindProduct:
		return b.ProductActivity
	case KindUser:
		return b.UserActivity
	}
	return nil
}

type Badge string

const (
	BadgeGreen Badge = "green"
	BadgeBlue  Badge = "blue"
	BadgeRed   Badge = "red"
	BadgeAmber Badge = "amber"
	BadgeGray  Badge = "gray"
)

// BadgeFor colours an action verb
func BadgeFor(action string) Badge {
	a := strings.ToLower(action)
	switch {
	case strings.Contains(a, "status"):
		return BadgeAmber
	case strings.HasPrefix(a, "create"):
		return BadgeGreen
	case strings.HasPrefix(a, "update"):
		return BadgeBlue
	case strings.HasPrefix(a, "delete"):
		return BadgeRed
	}
	return BadgeGray
}

type DiffLine struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type Entry struct {
	ID        string     `json:"id"`
	Actor     string     `json:"actor"`
	Action    string     `json:"action"`
	Verb      string     `json:"verb"`
	Badge     Badge      `json:"badge"`
	Diff      []DiffLine `json:"diff,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	At        time.Time  `json:"at"`
}

type Page struct {
	Target      Target  `json:"target"`
	Search      string  `json:"search"`
	Entries     []Entry `json:"entries"`
	Total       int64   `json:"total"`
	CurrentPage int     `json:"current_page"`
	LastPage    int     `json:"last_page"`
	PerPage     int     `json:"per_page"`
	From        int64   `json:"from"`
	To          int64   `json:"to"`
}

// Viewer loads feeds through the query cache. Feeds are read-only so
// nothing here invalidates.
type Viewer struct {
	backend Backend
	cache   *querycache.Cache
}

func NewViewer(backend Backend, cache *querycache.Cache) *Viewer {
	return &Viewer{backend: backend, cache: cache}
}

func (v *Viewer) Load(ctx context.Context, t Target, search string, page, perPage int) (Page, error) {
	fetch := fetcher(v.backend, t.Kind)
	if fetch == nil {
		return Page{}, fmt.Errorf("unknown activity kind %q", t.Kind)
	}
	if page < 1 {
		page = 1
	}
	p := client.ListParams{Page: page, PerPage: perPage, Search: strings.TrimSpace(search)}

	raw, err := querycache.Fetch(ctx, v.cache, t.Resource(), p.Values(), func(ctx context.Context) (client.Page[client.ActivityEntry], error) {
		return fetch(ctx, t.ID, p)
	})
	if err != nil {
		return Page{}, err
	}

	out := Page{
		Target:      t,
		Search:      p.Search,
		Entries:     make([]Entry, 0, len(raw.Data)),
		Total:       raw.Total,
		CurrentPage: raw.CurrentPage,
		LastPage:    raw.LastPage,
		PerPage:     raw.PerPage,
	}
	if raw.Total > 0 && raw.PerPage > 0 {
		out.From = int64(raw.CurrentPage-1)*int64(raw.PerPage) + 1
		out.To = out.From + int64(len(raw.Data)) - 1
	}
	for _, e := range raw.Data {
		out.Entries = append(out.Entries, toEntry(e))
	}
	return out, nil
}

func toEntry(e client.ActivityEntry) Entry {
	actor := e.ActorName
	if actor == "" {
		actor = "System"
	}
	return Entry{
		ID:        e.ID,
		Actor:     actor,
		Action:    e.Action,
		Verb:      verb(e.Action),
		Badge:     BadgeFor(e.Action),
		Diff:      diff(e.Changes),
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		At:        e.CreatedAt,
	}
}

// verb turns "status_changed" into "Status changed"
func verb(action string) string {
	s := strings.TrimSpace(strings.ReplaceAll(action, "_", " "))
	if s == "" {
		return ""
	}
	first := strings.SplitN(s, " ", 2)
	first[0] = cases.Title(language.English).String(first[0])
	return strings.Join(first, " ")
}

func diff(changes map[string]client.Change) []DiffLine {
	if len(changes) == 0 {
		return nil
	}
	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]DiffLine, 0, len(fields))
	for _, f := range fields {
		c := changes[f]
		lines = append(lines, DiffLine{Field: f, Old: show(c.Old), New: show(c.New)})
	}
	return lines
}

func show(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "(none)"
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	}
	return fmt.Sprint(v)
}
