// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources holds one adapter per external trial registry or
// literature API. Each adapter translates its upstream's idiosyncratic
// payload into types.Citation; Fetch is the boundary that guarantees a
// failing adapter degrades to an empty result instead of an error.
package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Adapter searches a single upstream. Search may fail; callers go through
// Fetch, which never does.
type Adapter interface {
	Source() types.Source
	Search(ctx context.Context, q Query) ([]types.Citation, error)
}

// Query holds the search terms and the optional trial filters.
type Query struct {
	Text  string
	Genes []string

	// Trial filters. Registries that support them server-side receive them
	// as request parameters; the others filter their bounded result page.
	Recruiting bool
	Countries  []string
	Phase      int // 0 = any, otherwise 1-4
	Status     string
}

// Terms joins the free text and gene symbols into one search string.
func (q Query) Terms() string {
	parts := strings.Fields(q.Text)
	for _, g := range q.Genes {
		if g = strings.TrimSpace(g); g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether the query has no searchable terms.
func (q Query) IsEmpty() bool {
	return q.Terms() == ""
}

// Filtered reports whether any trial filter is set.
func (q Query) Filtered() bool {
	return q.Recruiting || len(q.Countries) > 0 || q.Phase > 0 || q.Status != ""
}

// Relaxed returns the query with every trial filter removed.
func (q Query) Relaxed() Query {
	return Query{Text: q.Text, Genes: q.Genes}
}

// Outcome is the settled result of one adapter call. Err is kept for
// observability only; Citations is empty whenever Err is set.
type Outcome struct {
	Source    types.Source
	Citations []types.Citation
	Err       error
	Took      time.Duration
}

// OK reports whether the adapter completed without error, even if it found
// nothing.
func (o Outcome) OK() bool { return o.Err == nil }

// Fetch runs one adapter and absorbs every failure mode: transport and
// parse errors, context cancellation, and panics. Records without a title
// or URL are dropped, and Source/Kind are forced to the adapter's own.
func Fetch(ctx context.Context, a Adapter, q Query) (out Outcome) {
	start := time.Now()
	out.Source = a.Source()
	out.Citations = []types.Citation{}
	defer func() {
		if r := recover(); r != nil {
			out.Citations = []types.Citation{}
			out.Err = fmt.Errorf("%s adapter panicked: %v", out.Source, r)
		}
		out.Took = time.Since(start)
	}()

	cites, err := a.Search(ctx, q)
	if err != nil {
		out.Err = err
		return out
	}
	for _, c := range cites {
		if !c.Valid() {
			continue
		}
		c.Source = out.Source
		c.Kind = out.Source.Kind()
		out.Citations = append(out.Citations, c)
	}
	return out
}

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Transport carries the HTTP settings every adapter shares.
type Transport struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	Limiter    *httputil.Limiter

	headers map[string]string
}

// withHeader returns a copy of t that sends an extra header on every
// request.
func (t Transport) withHeader(key, value string) Transport {
	h := make(map[string]string, len(t.headers)+1)
	for k, v := range t.headers {
		h[k] = v
	}
	h[key] = value
	t.headers = h
	return t
}

// get fetches rawURL and returns the body of a 2xx response.
func (t Transport) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, t.MaxRetries, t.Limiter)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// getJSON fetches rawURL and decodes a JSON body into dst.
func (t Transport) getJSON(ctx context.Context, rawURL string, dst any) error {
	body, err := t.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

type bodyFormat int

const (
	formatJSON bodyFormat = iota + 1
	formatXML
)

// decodeJSONOrXML tries body as JSON into jsonDst and, failing that, as XML
// into xmlDst. Some registries serve either depending on content
// negotiation, so the format is decided by the payload, not the headers.
func decodeJSONOrXML(body []byte, jsonDst, xmlDst any) (bodyFormat, error) {
	jsonErr := json.Unmarshal(body, jsonDst)
	if jsonErr == nil {
		return formatJSON, nil
	}
	xmlErr := xml.Unmarshal(body, xmlDst)
	if xmlErr == nil {
		return formatXML, nil
	}
	return 0, fmt.Errorf("body is neither JSON nor XML: %w", errors.Join(jsonErr, xmlErr))
}

// admits applies the trial filters to a record from a registry that cannot
// filter server-side. Records that do not report a filtered field are
// rejected, since a strict search must not guess.
func (q Query) admits(c types.Citation) bool {
	e := c.Extra
	if q.Recruiting && !c.IsRecruiting() {
		return false
	}
	if q.Phase > 0 && (e == nil || !types.CoversPhase(e.Phase, q.Phase)) {
		return false
	}
	if q.Status != "" && (e == nil || !statusMatches(e.Status, q.Status)) {
		return false
	}
	if len(q.Countries) > 0 && (e == nil || !countriesOverlap(e.Countries, q.Countries)) {
		return false
	}
	return true
}

// limitOr clamps an adapter's configured result count, falling back to the
// source default when unset.
func limitOr(n int, src types.Source) int {
	if n <= 0 {
		n = types.DefaultSourceLimits[src]
	}
	if n < types.MinSourceLimit {
		n = types.MinSourceLimit
	}
	if n > types.MaxSourceLimit {
		n = types.MaxSourceLimit
	}
	return n
}

// clean collapses internal whitespace, which XML payloads are full of.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = clean(v); v != "" {
			return v
		}
	}
	return ""
}
