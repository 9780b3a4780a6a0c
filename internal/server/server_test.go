package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/homematch/pkg/cache"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/observability"
	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, st, log.New(io.Discard))
	srv := New(runner, log.New(io.Discard), Options{
		Defaults: pipeline.Options{Engine: pipeline.EngineAuto, Workers: 1},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func market() marketdoc.Document {
	return marketdoc.Document{
		Houses:     []marketdoc.House{{ID: 1}, {ID: 2}},
		Households: []marketdoc.Household{{ID: 11}, {ID: 12}},
		Scores: []marketdoc.Score{
			{House: 1, Household: 11, Score: 6},
			{House: 1, Household: 12, Score: 2},
			{House: 2, Household: 11, Score: 3},
			{House: 2, Household: 12, Score: 7},
		},
	}
}

func postOptimize(t *testing.T, ts *httptest.Server, req OptimizeRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/optimize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
	assert.NotEmpty(t, body.Build.Commit)
}

func TestOptimize(t *testing.T) {
	ts, st := newTestServer(t)
	resp := postOptimize(t, ts, OptimizeRequest{Market: market()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, pipeline.EngineExhaustive, res.Engine)
	assert.Equal(t, 13.0, res.Report.NewScore)
	assert.True(t, res.Report.ZeroBaseline)
	assert.Len(t, res.Document.Connections, 2)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, st.Len())
}

func TestOptimizeErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/v1/optimize", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeInvalidInput, decodeError(t, resp).Error.Code)
	})

	t.Run("unknown engine", func(t *testing.T) {
		resp := postOptimize(t, ts, OptimizeRequest{Market: market(), Options: pipeline.Options{Engine: "greedy"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeInvalidEngine, decodeError(t, resp).Error.Code)
	})

	t.Run("invalid market", func(t *testing.T) {
		doc := market()
		doc.Connections = []marketdoc.Connection{{House: 7, Household: 11}}
		resp := postOptimize(t, ts, OptimizeRequest{Market: doc})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, errors.ErrCodeInvalidMarket, body.Error.Code)
		assert.Contains(t, body.Error.Message, "load market")
	})

	t.Run("search space", func(t *testing.T) {
		doc := marketdoc.Document{
			Houses:     []marketdoc.House{{ID: 1}, {ID: 2}, {ID: 3}},
			Households: []marketdoc.Household{{ID: 11}, {ID: 12}, {ID: 13}},
		}
		resp := postOptimize(t, ts, OptimizeRequest{Market: doc, Options: pipeline.Options{Engine: "exhaustive", MaxLeaves: 2}})
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeSearchSpace, decodeError(t, resp).Error.Code)
	})
}

func TestRuns(t *testing.T) {
	ts, _ := newTestServer(t)
	var ids []string
	for i := 0; i < 3; i++ {
		resp := postOptimize(t, ts, OptimizeRequest{Market: market()})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var res pipeline.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		ids = append(ids, res.RunID)
	}

	resp, err := http.Get(ts.URL + "/v1/runs?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Runs []store.Run `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Runs, 2)

	one, err := http.Get(ts.URL + "/v1/runs/" + ids[0])
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, http.StatusOK, one.StatusCode)
	var run store.Run
	require.NoError(t, json.NewDecoder(one.Body).Decode(&run))
	assert.Equal(t, ids[0], run.ID)
	assert.Equal(t, 13.0, run.Report.NewScore)
}

func TestRunsErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, tt := range []struct {
		path   string
		status int
		code   errors.Code
	}{
		{"/v1/runs?limit=abc", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/v1/runs?limit=-3", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/v1/runs/does-not-exist", http.StatusNotFound, errors.ErrCodeRunNotFound},
	} {
		resp, err := http.Get(ts.URL + tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.Equal(t, tt.code, decodeError(t, resp).Error.Code, tt.path)
		resp.Body.Close()
	}
}

type recordingHooks struct {
	observability.NoopServerHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)
	defer observability.Reset()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/runs/abc")
	require.NoError(t, err)
	resp.Body.Close()

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, []string{"GET /v1/runs/{id} Not Found"}, hooks.routes)
}

func TestWithDefaults(t *testing.T) {
	s := New(nil, nil, Options{Defaults: pipeline.Options{
		Engine:    "assign",
		Workers:   3,
		MaxLeaves: 50,
		Policy:    "zero",
		Timeout:   time.Minute,
	}})

	got, err := s.withDefaults(pipeline.Options{Engine: "exchange", Timeout: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, "exchange", got.Engine)
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, 50, got.MaxLeaves)
	assert.Equal(t, "zero", got.Policy)
	assert.Equal(t, time.Minute, got.Timeout)

	got, err = s.withDefaults(pipeline.Options{Workers: 64, MaxLeaves: 1 << 40})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, 50, got.MaxLeaves)

	got, err = s.withDefaults(pipeline.Options{Workers: 2, MaxLeaves: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Workers)
	assert.Equal(t, 10, got.MaxLeaves)

	_, err = s.withDefaults(pipeline.Options{MaxLeaves: -1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestNewSetsLimits(t *testing.T) {
	s := New(nil, nil, Options{})
	assert.Equal(t, DefaultOptimizeTimeout, s.opts.Defaults.Timeout)
	assert.Equal(t, rewire.DefaultMaxLeaves, s.opts.Defaults.MaxLeaves)
	assert.Equal(t, int64(DefaultMaxBodyBytes), s.opts.MaxBodyBytes)
}

func TestOptimizeCannotLiftSearchCap(t *testing.T) {
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, store.NewMemoryStore(), log.New(io.Discard))
	srv := New(runner, log.New(io.Discard), Options{
		Defaults: pipeline.Options{Engine: pipeline.EngineExhaustive, Workers: 1, MaxLeaves: 100},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var doc marketdoc.Document
	for i := 1; i <= 5; i++ {
		doc.Houses = append(doc.Houses, marketdoc.House{ID: i})
		doc.Households = append(doc.Households, marketdoc.Household{ID: 10 + i})
	}

	resp := postOptimize(t, ts, OptimizeRequest{Market: doc, Options: pipeline.Options{MaxLeaves: -1}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidInput, decodeError(t, resp).Error.Code)

	// P(5, 5) = 120 leaves exceed the server's 100 whatever the request asks.
	resp = postOptimize(t, ts, OptimizeRequest{Market: doc, Options: pipeline.Options{MaxLeaves: 1_000_000}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeSearchSpace, decodeError(t, resp).Error.Code)
}
