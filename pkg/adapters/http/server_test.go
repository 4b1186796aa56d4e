package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/internal/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	engine, err := reschema.New(catalog.Schemas(catalog.WithDelay(50 * time.Millisecond)))
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(engine, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var created SessionResponse
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestServer_HealthAndInfo(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/health", "", &health))
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/info", "", &info))
	assert.Equal(t, strings.TrimSpace(reschema.Version), info["version"])
}

func TestServer_ListSchemas(t *testing.T) {
	srv := newTestServer(t)

	var schemas []SchemaInfo
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/schemas", "", &schemas))
	require.Len(t, schemas, 3)

	assert.Equal(t, "books", schemas[0].Name)
	assert.Equal(t, "schemas", schemas[0].Namespace)
	require.Len(t, schemas[0].Operations, 1)
	assert.Equal(t, "BOOKS_ADD", schemas[0].Operations[0].Type)
	assert.Equal(t, "BOOKS_ADD_SUCCESS", schemas[0].Operations[0].SuccessType)
	assert.True(t, schemas[0].Operations[0].Async)
	assert.Equal(t, []string{"isLoading", "movieCount"}, schemas[1].Selectors)
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	var sessions []string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions", "", &sessions))
	assert.Contains(t, sessions, id)

	var state SessionResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"/state", "", &state))
	assert.Equal(t, id, state.ID)
	assert.Contains(t, state.State, "schemas")

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, srv.URL+"/sessions/"+id, "", nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"/state", "", nil))
}

func TestServer_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/sessions/nope/state", "", &body))
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, srv.URL+"/sessions/nope/dispatch/counter/add", "1", nil))
}

func TestServer_Dispatch(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id + "/dispatch/"

	t.Run("Sync settles immediately", func(t *testing.T) {
		var resp DispatchResponse
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"counter/add", "2", &resp))
		assert.True(t, resp.Accepted)
		counter := resp.State["schemas"].(map[string]any)["counter"].(map[string]any)
		assert.EqualValues(t, 2, counter["number"])
	})

	t.Run("Async waits for the outcome", func(t *testing.T) {
		var resp DispatchResponse
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"books/add?wait=true", "", &resp))
		assert.EqualValues(t, 1, resp.Result)
		books := resp.State["schemas"].(map[string]any)["books"].(map[string]any)
		assert.EqualValues(t, 1, books["count"])
		assert.Equal(t, false, books["isLoading"])
	})

	t.Run("Async failure", func(t *testing.T) {
		var resp DispatchResponse
		require.Equal(t, http.StatusUnprocessableEntity, doJSON(t, http.MethodPost, base+"counter/addAsyncCustomLoading?wait=true", `"x"`, &resp))
		assert.Equal(t, catalog.ErrNotANumber.Error(), resp.Error)
		counter := resp.State["schemas"].(map[string]any)["counter"].(map[string]any)
		assert.Equal(t, "error", counter["error"])
	})

	t.Run("Async without wait is accepted", func(t *testing.T) {
		var resp DispatchResponse
		require.Equal(t, http.StatusAccepted, doJSON(t, http.MethodPost, base+"movies/addMovieAsync", "3", &resp))
		assert.True(t, resp.Accepted)

		assert.Eventually(t, func() bool {
			var state SessionResponse
			doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"/state", "", &state)
			movies := state.State["schemas"].(map[string]any)["movies"].(map[string]any)
			return movies["movieCount"] == float64(3)
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Unknown operation", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, base+"counter/nope", "", nil))
		assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, base+"nope/add", "", nil))
	})

	t.Run("Invalid body", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base+"counter/add", "{", nil))
	})
}

func TestServer_Selectors(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/dispatch/counter/add", "5", nil)

	var selected map[string]map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"/selectors?page=2", "", &selected))
	assert.Equal(t, "Test", selected["counter"]["fixedSelector"])
	assert.EqualValues(t, 5, selected["counter"]["dynamicSelector"])
	assert.EqualValues(t, 0, selected["books"]["count"])
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/dispatch/counter/add", "1", nil)

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var event struct {
			Action struct {
				Type string `json:"type"`
			} `json:"action"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		assert.Equal(t, "COUNTER_ADD", event.Action.Type)
		return
	}
	t.Fatal("no event received")
}

func TestServer_SubscribeEvents_FailureReason(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/dispatch/counter/addAsyncCustomLoading", `"x"`, nil)

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var event struct {
			Action struct {
				Type    string `json:"type"`
				Payload any    `json:"payload"`
				Error   bool   `json:"error"`
			} `json:"action"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		if !strings.HasSuffix(event.Action.Type, "_FAILURE") {
			continue
		}
		assert.Equal(t, "COUNTER_ADD_ASYNC_CUSTOM_LOADING_FAILURE", event.Action.Type)
		assert.True(t, event.Action.Error)
		assert.Equal(t, catalog.ErrNotANumber.Error(), event.Action.Payload)
		return
	}
	t.Fatal("no failure event received")
}

func TestServer_Contract(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Document Is Served", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/openapi.yaml")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "openapi: 3.0.3")
	})

	t.Run("Invalid Query Parameter", func(t *testing.T) {
		id := createSession(t, srv)
		var resp map[string]string
		status := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/dispatch/counter/add?wait=maybe", "1", &resp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, resp["error"], "wait")
	})

	t.Run("Numeric Wait Flag", func(t *testing.T) {
		id := createSession(t, srv)
		var resp DispatchResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/dispatch/counter/addAsync?wait=1", "2", &resp)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Accepted)
	})
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "reschema_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := newTestServer(t, WithMetrics("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	found := false
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "reschema_test_total 1") {
			found = true
		}
	}
	assert.True(t, found)
}
