// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/internal/followup"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/research"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

type fakeEngine struct {
	bundle func(research.BundleRequest) (assemble.Bundle, error)
	trials func(research.TrialRequest) (research.TrialResult, error)

	lastBundle research.BundleRequest
	lastTrials research.TrialRequest
}

func (f *fakeEngine) Bundle(_ context.Context, req research.BundleRequest) (assemble.Bundle, error) {
	f.lastBundle = req
	return f.bundle(req)
}

func (f *fakeEngine) SearchTrials(_ context.Context, req research.TrialRequest) (research.TrialResult, error) {
	f.lastTrials = req
	return f.trials(req)
}

func newServerForTest(t *testing.T, f *fakeEngine) (http.Handler, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return New(f, Options{Logger: zaptest.NewLogger(t), Metrics: m, Gatherer: reg}), m
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func sampleBundle() assemble.Bundle {
	c := types.NewCitation(types.SourcePubMed, "123", "Inhaled steroids", "https://pubmed.ncbi.nlm.nih.gov/123/")
	return assemble.Assemble(nil, []types.Citation{c}, []string{"What next?"}, 0, assemble.Caps{})
}

func TestBundle_OK(t *testing.T) {
	f := &fakeEngine{bundle: func(research.BundleRequest) (assemble.Bundle, error) { return sampleBundle(), nil }}
	h, _ := newServerForTest(t, f)

	rr := post(t, h, RouteBundle, `{"query":"asthma","filters":{"countries":["India"]},"audience":"doctor"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	body := decode(t, rr)
	assert.Len(t, body["citations"], 1)
	assert.Equal(t, []any{"What next?"}, body["followUps"])
	assert.Contains(t, body, "tookMs")

	assert.Equal(t, "asthma", f.lastBundle.Query)
	assert.Equal(t, []string{"India"}, f.lastBundle.Countries)
	assert.Equal(t, followup.AudienceDoctor, f.lastBundle.Audience)
}

func TestBundle_DegradesOnEngineFailure(t *testing.T) {
	tests := map[string]func(research.BundleRequest) (assemble.Bundle, error){
		"error": func(research.BundleRequest) (assemble.Bundle, error) {
			return assemble.Bundle{}, errors.New("merge bug")
		},
		"panic": func(research.BundleRequest) (assemble.Bundle, error) {
			panic("index out of range")
		},
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			h, _ := newServerForTest(t, &fakeEngine{bundle: fn})
			rr := post(t, h, RouteBundle, `{"query":"asthma"}`)

			require.Equal(t, http.StatusOK, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, []any{}, body["citations"])
			assert.Equal(t, []any{}, body["followUps"])
		})
	}
}

func TestBundle_RejectsInvalidRequests(t *testing.T) {
	f := &fakeEngine{bundle: func(research.BundleRequest) (assemble.Bundle, error) {
		return assemble.Bundle{}, research.ErrEmptyQuery
	}}
	h, _ := newServerForTest(t, f)

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"query":""}`,
		`{"query":"x","audience":"nurse"}`,
		`{"query":"x","filters":{"countries":"India"}}`,
		`{"query":"   "}`,
	} {
		t.Run(body, func(t *testing.T) {
			rr := post(t, h, RouteBundle, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, decode(t, rr)["error"])
		})
	}
}

func TestTrials_OK(t *testing.T) {
	f := &fakeEngine{trials: func(research.TrialRequest) (research.TrialResult, error) {
		return research.TrialResult{Trials: []assemble.TrialRow{{ID: "NCT00000001", Registry: "ctgov", Title: "T", URL: "u", Score: 40}}}, nil
	}}
	h, _ := newServerForTest(t, f)

	rr := post(t, h, RouteTrials, `{"query":"melanoma","phase":"3","status":"recruiting","country":"Germany","genes":["BRAF"],"source":"ctgov"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	trials := decode(t, rr)["trials"].([]any)
	require.Len(t, trials, 1)
	assert.Equal(t, "NCT00000001", trials[0].(map[string]any)["id"])
	assert.Equal(t, research.TrialRequest{
		Query: "melanoma", Phase: "3", Status: "recruiting", Country: "Germany",
		Genes: []string{"BRAF"}, Source: "ctgov",
	}, f.lastTrials)
}

func TestTrials_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{research.ErrEmptyQuery, http.StatusBadRequest},
		{fmt.Errorf("%w: phase", research.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: \"x\"", research.ErrUnknownSource), http.StatusBadRequest},
		{fmt.Errorf("%w: [ctgov]", research.ErrAllSourcesFailed), http.StatusInternalServerError},
		{errors.New("ranker exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h, _ := newServerForTest(t, &fakeEngine{trials: func(research.TrialRequest) (research.TrialResult, error) {
				return research.TrialResult{}, tt.err
			}})
			rr := post(t, h, RouteTrials, `{"query":"x"}`)
			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.err.Error(), decode(t, rr)["error"])
		})
	}
}

func TestTrials_PanicIs500(t *testing.T) {
	h, _ := newServerForTest(t, &fakeEngine{trials: func(research.TrialRequest) (research.TrialResult, error) {
		panic("boom")
	}})
	rr := post(t, h, RouteTrials, `{"query":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", decode(t, rr)["error"])
}

func TestTrials_SchemaViolation(t *testing.T) {
	h, _ := newServerForTest(t, &fakeEngine{})
	rr := post(t, h, RouteTrials, `{"query":"x","phase":"5"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = post(t, h, RouteTrials, `{"genes":"BRAF"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newServerForTest(t, &fakeEngine{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, RouteBundle, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := &fakeEngine{bundle: func(research.BundleRequest) (assemble.Bundle, error) { return sampleBundle(), nil }}
	h, m := newServerForTest(t, f)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, RouteHealth, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])

	post(t, h, RouteBundle, `{"query":"asthma"}`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(RouteBundle, "200")))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "evidence_http_requests_total"))
}

func TestRequestIDIsKeptWhenValid(t *testing.T) {
	h, _ := newServerForTest(t, &fakeEngine{})
	id := "9b2f7d52-3c43-4a3a-bb8c-0d1c6f0e7a11"

	req := httptest.NewRequest(http.MethodGet, RouteHealth, nil)
	req.Header.Set("X-Request-ID", id)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, RouteHealth, nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.NotEqual(t, "not-a-uuid", rr.Header().Get("X-Request-ID"))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, RouteTrials, routeLabel(RouteTrials))
	assert.Equal(t, "other", routeLabel("/api/other/thing"))
}

// registry is an in-memory trial adapter that records its last query.
type registry struct {
	src   types.Source
	cites []types.Citation
	last  sources.Query
	calls int
}

func (r *registry) Source() types.Source { return r.src }

func (r *registry) Search(_ context.Context, q sources.Query) ([]types.Citation, error) {
	r.last = q
	r.calls++
	return r.cites, nil
}

func TestTrials_FiltersWithoutQuery(t *testing.T) {
	c := types.NewCitation(types.SourceCTGov, "NCT00000009", "Phase III trial in India", "https://clinicaltrials.gov/study/NCT00000009")
	c.Extra = &types.Extra{Phase: types.Phase3, Countries: []string{"India"}, NCTID: "NCT00000009"}
	ctgov := &registry{src: types.SourceCTGov, cites: []types.Citation{c}}

	engine := research.NewEngine(research.Config{
		Adapters: []sources.Adapter{ctgov},
		Logger:   zaptest.NewLogger(t),
	})
	h := New(engine, Options{Logger: zaptest.NewLogger(t), Gatherer: prometheus.NewRegistry()})

	rr := post(t, h, RouteTrials, `{"phase":"3","country":"India"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	trials := decode(t, rr)["trials"].([]any)
	require.Len(t, trials, 1)
	assert.Equal(t, "NCT00000009", trials[0].(map[string]any)["id"])
	assert.Equal(t, 1, ctgov.calls)
	assert.Equal(t, 3, ctgov.last.Phase)
	assert.Equal(t, []string{"India"}, ctgov.last.Countries)
}

func TestTrials_NoQueryNoFilters(t *testing.T) {
	ctgov := &registry{src: types.SourceCTGov}
	engine := research.NewEngine(research.Config{Adapters: []sources.Adapter{ctgov}})
	h := New(engine, Options{Gatherer: prometheus.NewRegistry()})

	rr := post(t, h, RouteTrials, `{}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, ctgov.calls)
}
