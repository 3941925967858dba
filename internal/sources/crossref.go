// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/exa/internal/httputil"
	"github.com/pdiddy/exa/pkg/types"
)

// maxBodyBytes bounds how much of a Crossref response is read.
const maxBodyBytes = 4 << 20

// WorkStore persists resolved Crossref messages between runs.
type WorkStore interface {
	GetWork(ctx context.Context, doi string, maxAge time.Duration) (json.RawMessage, bool, error)
	PutWork(ctx context.Context, doi string, message json.RawMessage) error
}

// Resolver looks up DOI metadata on Crossref. Lookups are rate limited,
// memoized in memory, and optionally persisted in a WorkStore. A Resolver is
// safe for concurrent use.
type Resolver struct {
	cfg        types.CrossrefConfig
	client     *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
	store      WorkStore
	maxRetries int
	warn       io.Writer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithStore attaches persistent storage for resolved works.
func WithStore(s WorkStore) Option {
	return func(r *Resolver) { r.store = s }
}

// WithWarnings directs store warnings to w. They are discarded by default.
func WithWarnings(w io.Writer) Option {
	return func(r *Resolver) { r.warn = w }
}

// WithMaxRetries sets how many times a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(r *Resolver) { r.maxRetries = n }
}

// NewResolver builds a Resolver from cfg. Zero-valued settings fall back to
// the package defaults.
func NewResolver(cfg types.CrossrefConfig, opts ...Option) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = types.DefaultCrossrefBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultCrossrefTimeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = types.DefaultCrossrefRate
	}
	if cfg.Workers <= 0 {
		cfg.Workers = types.DefaultCrossrefWorkers
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = types.DefaultCrossrefCacheTTL
	}

	r := &Resolver{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		cache:   gocache.New(cfg.CacheTTL, 10*time.Minute),
		warn:    io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the Crossref record for doi. It returns nil when the DOI
// cannot be resolved for any reason (transport failure, timeout, non-200
// status, unparsable body); callers treat nil as "could not resolve".
func (r *Resolver) Resolve(ctx context.Context, doi string) *types.Work {
	if cached, ok := r.cache.Get(doi); ok {
		return cached.(*types.Work)
	}

	if r.store != nil {
		msg, ok, err := r.store.GetWork(ctx, doi, r.cfg.CacheTTL)
		if err != nil {
			fmt.Fprintf(r.warn, "warning: reading cached work %s: %v\n", doi, err)
		} else if ok {
			w := ParseWork(doi, msg)
			r.cache.SetDefault(doi, w)
			return w
		}
	}

	msg := r.fetch(ctx, doi)
	if msg == nil {
		return nil
	}

	w := ParseWork(doi, msg)
	r.cache.SetDefault(doi, w)
	if r.store != nil {
		if err := r.store.PutWork(ctx, doi, msg); err != nil {
			fmt.Fprintf(r.warn, "warning: caching work %s: %v\n", doi, err)
		}
	}
	return w
}

// ResolveAll resolves dois concurrently, bounded by the configured worker
// count. The result is index-aligned with dois; unresolved entries are nil.
func (r *Resolver) ResolveAll(ctx context.Context, dois []string) []*types.Work {
	works := make([]*types.Work, len(dois))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, doi := range dois {
		g.Go(func() error {
			works[i] = r.Resolve(gctx, doi)
			return nil
		})
	}
	_ = g.Wait()

	return works
}

// fetch performs the HTTP lookup and returns the "message" object, or nil.
func (r *Resolver) fetch(ctx context.Context, doi string) json.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.workURL(doi), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.cfg.AgentString())
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.maxRetries)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil
	}
	msg, ok := body["message"]
	if !ok {
		return json.RawMessage("{}")
	}
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil
	}
	return msg
}

// workURL joins the works endpoint and the DOI. The slash inside a DOI is
// kept; characters that would start a query or fragment are escaped.
func (r *Resolver) workURL(doi string) string {
	base := r.cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + (&url.URL{Path: doi}).EscapedPath()
}

// Crossref message fields used to fill a Work.
type crossrefWork struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	Publisher      string           `json:"publisher"`
	ContainerTitle []string         `json:"container-title"`
	Issued         crossrefDate     `json:"issued"`
	URL            string           `json:"URL"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// ParseWork builds a Work from a Crossref message. Fields that do not
// decode are left empty; the raw message is always kept.
func ParseWork(doi string, msg json.RawMessage) *types.Work {
	w := &types.Work{DOI: doi, Authors: []string{}, Message: msg}

	var cw crossrefWork
	if err := json.Unmarshal(msg, &cw); err != nil {
		return w
	}

	if cw.DOI != "" {
		w.DOI = cw.DOI
	}
	if len(cw.Title) > 0 {
		w.Title = strings.TrimSpace(cw.Title[0])
	}
	for _, a := range cw.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		if name != "" {
			w.Authors = append(w.Authors, name)
		}
	}
	w.Publisher = cw.Publisher
	if len(cw.ContainerTitle) > 0 {
		w.Container = cw.ContainerTitle[0]
	}
	w.URL = cw.URL
	w.Issued = issuedDate(cw.Issued)
	return w
}

// issuedDate converts Crossref date-parts ([[year, month, day]], with month
// and day optional) into a time.
func issuedDate(d crossrefDate) time.Time {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == 0 {
		return time.Time{}
	}
	parts := d.DateParts[0]
	month, day := 1, 1
	if len(parts) >= 2 && parts[1] > 0 {
		month = parts[1]
	}
	if len(parts) >= 3 && parts[2] > 0 {
		day = parts[2]
	}
	return time.Date(parts[0], time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
