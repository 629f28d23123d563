package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/packetstream/internal/ringbuffer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, capacity int) (*Server, *ringbuffer.Buffer, http.Handler) {
	t.Helper()
	buf := ringbuffer.New(capacity)
	srv := NewServer(buf, Config{Addr: "127.0.0.1:0", MaxBodyBytes: 1024, Registry: prometheus.NewRegistry()})
	return srv, buf, srv.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func listPackages(t *testing.T, h http.Handler) []map[string]interface{} {
	t.Helper()
	w := do(h, http.MethodGet, "/api/packages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAcceptRespondsSuccess(t *testing.T) {
	_, buf, h := newTestServer(t, 10)

	w := do(h, http.MethodPost, "/api/packages", `{"Timestamp": "1", "ip_address": "10.0.0.1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.Equal(t, 1, buf.Len())
}

func TestAcceptArbitraryShapes(t *testing.T) {
	_, buf, h := newTestServer(t, 10)

	for _, body := range []string{`{}`, `{"nested":{"a":[1,2,3]}}`, `{"n":1.5,"ok":true,"x":null}`} {
		w := do(h, http.MethodPost, "/api/packages", body)
		assert.Equal(t, http.StatusOK, w.Code, "body %s", body)
	}
	assert.Equal(t, 3, buf.Len())
}

func TestAcceptRejectsMalformedJSON(t *testing.T) {
	_, buf, h := newTestServer(t, 10)

	for _, body := range []string{`{"a":`, `not json`, `   `} {
		w := do(h, http.MethodPost, "/api/packages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}

	w := do(h, http.MethodPost, "/api/packages", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, buf.Len())
}

func TestAcceptRejectsOversizedBody(t *testing.T) {
	_, buf, h := newTestServer(t, 10)

	big := fmt.Sprintf(`{"payload":%q}`, strings.Repeat("x", 2048))
	w := do(h, http.MethodPost, "/api/packages", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, buf.Len())
}

func TestListEmptyIsArray(t *testing.T) {
	_, _, h := newTestServer(t, 10)

	w := do(h, http.MethodGet, "/api/packages", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestListReturnsAcceptedInOrder(t *testing.T) {
	_, _, h := newTestServer(t, 1000)

	for i := 0; i < 1000; i++ {
		w := do(h, http.MethodPost, "/api/packages", fmt.Sprintf(`{"seq":"%d"}`, i))
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := listPackages(t, h)
	require.Len(t, got, 1000)
	for i, p := range got {
		assert.Equal(t, fmt.Sprint(i), p["seq"])
	}
}

func TestListRetainsLastWindow(t *testing.T) {
	_, _, h := newTestServer(t, 1000)

	for i := 0; i < 1500; i++ {
		w := do(h, http.MethodPost, "/api/packages", fmt.Sprintf(`{"seq":"%d"}`, i))
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := listPackages(t, h)
	require.Len(t, got, 1000)
	assert.Equal(t, "500", got[0]["seq"])
	assert.Equal(t, "1499", got[999]["seq"])
}

func TestListPreservesBodyVerbatim(t *testing.T) {
	_, _, h := newTestServer(t, 10)

	do(h, http.MethodPost, "/api/packages", `{ "b": "2",  "a": "1" }`)
	w := do(h, http.MethodGet, "/api/packages", "")
	assert.Equal(t, `[{"b":"2","a":"1"}]`, strings.TrimSpace(w.Body.String()))
}

func TestConcurrentAccepts(t *testing.T) {
	_, buf, h := newTestServer(t, 1000)

	var wg sync.WaitGroup
	codes := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := do(h, http.MethodPost, "/api/packages", fmt.Sprintf(`{"seq":"%d"}`, i))
			codes <- w.Code
		}(i)
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 50, buf.Len())

	seen := map[interface{}]bool{}
	for _, p := range listPackages(t, h) {
		assert.False(t, seen[p["seq"]], "duplicate %v", p["seq"])
		seen[p["seq"]] = true
	}
	assert.Len(t, seen, 50)

	metricsBody := do(h, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, "packetstream_packages_buffered 50")
	assert.Contains(t, metricsBody, "packetstream_packages_accepted_total 50")
}

func TestResetClearsBuffer(t *testing.T) {
	_, buf, h := newTestServer(t, 10)

	do(h, http.MethodPost, "/api/packages", `{"a":"1"}`)
	w := do(h, http.MethodDelete, "/api/packages", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, listPackages(t, h))
	assert.Contains(t, do(h, http.MethodGet, "/metrics", "").Body.String(), "packetstream_packages_buffered 0")
}

func TestHealthEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, 10)
	do(h, http.MethodPost, "/api/packages", `{"a":"1"}`)

	w := do(h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["buffered"])
	assert.Equal(t, float64(10), body["capacity"])
	assert.Equal(t, float64(1), body["accepted_total"])
}

func TestCORSHeaders(t *testing.T) {
	_, _, h := newTestServer(t, 10)

	w := do(h, http.MethodGet, "/api/packages", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/packages", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, 1)

	do(h, http.MethodPost, "/api/packages", `{"a":"1"}`)
	do(h, http.MethodPost, "/api/packages", `{"a":"2"}`)
	do(h, http.MethodPost, "/api/packages", `{"a":`)

	w := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "packetstream_packages_accepted_total 2")
	assert.Contains(t, body, "packetstream_packages_evicted_total 1")
	assert.Contains(t, body, `packetstream_packages_rejected_total{reason="invalid_json"} 1`)
	assert.Contains(t, body, "packetstream_packages_buffered 1")
}

func TestUnknownRoute(t *testing.T) {
	_, _, h := newTestServer(t, 10)
	w := do(h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGinRecovery(t *testing.T) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := do(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStartStop(t *testing.T) {
	srv, _, _ := newTestServer(t, 10)
	require.NoError(t, srv.Start())
	gin.SetMode(gin.TestMode)

	resp, err := http.Post("http://"+srv.Addr()+"/api/packages", "application/json", bytes.NewBufferString(`{"a":"1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, srv.Stop())
}
