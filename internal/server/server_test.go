package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hurou927/text2sql/internal/catalog/catalogtest"
	"github.com/hurou927/text2sql/internal/converter"
	"github.com/hurou927/text2sql/internal/extract"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *Holder) {
	t.Helper()
	src := NewHolder(converter.New(catalogtest.Ecommerce(t), converter.Options{}))
	return NewRouter(src, nil), src
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w, env := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", env.Status)
}

func TestSchema(t *testing.T) {
	r, src := newTestRouter(t)
	w, env := do(t, r, http.MethodGet, "/api/v1/schema", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data SchemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ecommerce", data.Database)
	assert.Equal(t, "customers", data.Tables[0].Name)
	assert.Contains(t, data.Summary, "Table: orders")

	src.Store(converter.New(catalogtest.Library(t), converter.Options{}))
	_, env = do(t, r, http.MethodGet, "/api/v1/schema", "")
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "library", data.Database)
}

func TestConvert(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/convert", `{"question": "What are the top 5 products by price?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)

	var data ConvertResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "SELECT * FROM products ORDER BY price DESC LIMIT 5", data.SQL)
	assert.Equal(t, "rules", data.Source)
	assert.True(t, data.Valid)
}

func TestStats(t *testing.T) {
	r, src := newTestRouter(t)

	do(t, r, http.MethodPost, "/api/v1/convert", `{"question": "Show me all customers"}`)
	do(t, r, http.MethodPost, "/api/v1/convert", `{"question": "What is the weather today?"}`)

	w, env := do(t, r, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data StatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(2), data.Conversions.Total)
	assert.Equal(t, int64(1), data.Conversions.Failed)
	assert.Equal(t, 0.5, data.Conversions.SuccessRate)
	assert.Nil(t, data.Cache)

	src.Store(converter.New(catalogtest.Ecommerce(t), converter.Options{CacheSize: 2}))
	_, env = do(t, r, http.MethodGet, "/api/v1/stats", "")
	data = StatsResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(0), data.Conversions.Total)
	require.NotNil(t, data.Cache)
	assert.Equal(t, 2, data.Cache.MaxSize)
}

func TestConvertErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed body", body: `{"question":`, status: http.StatusBadRequest},
		{name: "missing question", body: `{}`, status: http.StatusBadRequest},
		{name: "blank question", body: `{"question": "   "}`, status: http.StatusBadRequest},
		{name: "unparsable", body: `{"question": "What is the weather today?"}`, status: http.StatusUnprocessableEntity},
		{name: "ambiguous", body: `{"question": "Show orders with price over 100"}`, status: http.StatusUnprocessableEntity},
		{name: "no join path", body: `{"question": "Show customers and suppliers"}`, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/convert", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "error", env.Status)
			assert.Empty(t, env.Data)
		})
	}
}

func TestExplain(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/explain", `{"question": "Find customers from New York with orders over $1000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var in extract.Intent
	require.NoError(t, json.Unmarshal(env.Data, &in))
	assert.Equal(t, []string{"customers", "orders"}, in.Tables)
	require.Len(t, in.Filters, 2)
	assert.Equal(t, extract.ColumnRef{Table: "customers", Column: "city"}, in.Filters[0].Column)
	assert.Equal(t, "New York", in.Filters[0].Value)
	assert.Equal(t, extract.OpGt, in.Filters[1].Op)

	w, _ = do(t, r, http.MethodPost, "/api/v1/explain", `{"question": "Show orders with price over 100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBatch(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/convert/batch",
		`{"questions": ["Show me all customers", "What is the weather today?"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var items []BatchItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "SELECT * FROM customers", items[0].SQL)
	assert.Empty(t, items[0].Error)
	assert.Equal(t, "What is the weather today?", items[1].Question)
	assert.NotEmpty(t, items[1].Error)
	assert.Empty(t, items[1].SQL)

	w, _ = do(t, r, http.MethodPost, "/api/v1/convert/batch", `{"questions": ["hello there"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/convert/batch", `{"questions": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	const id = "3f6c1b1e-8a3c-4d55-9f5e-0c8f2b4a9d10"
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestRun(t *testing.T) {
	r, _ := newTestRouter(t)
	srv := New("127.0.0.1:0", r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
