package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands"
	"canvas-backend/application/commands/bus"
	"canvas-backend/application/services"
	"canvas-backend/infrastructure/export"
	"canvas-backend/infrastructure/observability"
	"canvas-backend/infrastructure/persistence/memory"
	"canvas-backend/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    struct {
		OperationID string `json:"operation_id"`
		Count       int    `json:"count"`
	} `json:"meta"`
}

type errorBody struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	storage := services.NewStorage(memory.NewKeyValueStore(), logger, nil)
	session := canvas.NewSession(context.Background(), storage, canvas.Options{Logger: logger})
	t.Cleanup(session.Close)

	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, commands.NewHandlers(session, logger).Register(b))

	return NewRouter(b, session, observability.NewCollector("canvas_test"), logger,
		errors.NewErrorHandler(logger, false), Options{Export: export.DefaultOptions()}).Setup()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canvas_test_http_requests_total")
}

func TestEntityLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/entities", `{"dashed":true,"x":100,"y":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created canvas.EntityView
	env := decode(t, rec, &created)
	assert.NotEmpty(t, env.Meta.OperationID)
	assert.Equal(t, "entity-1", created.ID)
	assert.True(t, created.Dashed)

	rec = do(t, h, http.MethodPut, "/api/v1/entities/entity-1/content", `{"content":"<p>plan #Q3 #launch</p>"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated canvas.EntityView
	decode(t, rec, &updated)
	assert.Equal(t, []string{"Q3", "launch"}, updated.Tags)

	rec = do(t, h, http.MethodPut, "/api/v1/entities/entity-1/position", `{"x":40,"y":60}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &updated)
	assert.Equal(t, 40.0, updated.Position.X())
	assert.Equal(t, 60.0, updated.Position.Y())

	rec = do(t, h, http.MethodGet, "/api/v1/entities", "")
	var list []canvas.EntityView
	env = decode(t, rec, &list)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, env.Meta.Count)

	rec = do(t, h, http.MethodDelete, "/api/v1/entities/entity-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Operation-ID"))

	rec = do(t, h, http.MethodGet, "/api/v1/entities/entity-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntityErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"partial point", http.MethodPost, "/api/v1/entities", `{"x":1}`, http.StatusBadRequest, "PARTIAL_POINT"},
		{"unknown field", http.MethodPost, "/api/v1/entities", `{"colour":"red"}`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/v1/entities", ``, http.StatusBadRequest, ""},
		{"missing entity", http.MethodPut, "/api/v1/entities/entity-9/content", `{"content":"x"}`, http.StatusNotFound, ""},
		{"zero size", http.MethodPut, "/api/v1/entities/entity-9/size", `{"width":0,"height":10}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Code)
			}
		})
	}
}

func TestConnections(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/entities", `{"x":0,"y":0}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/entities", `{"x":300,"y":0}`).Code)

	rec := do(t, h, http.MethodPost, "/api/v1/connections", `{"source":"entity-1","target":"entity-2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var conn struct {
		ID string `json:"id"`
	}
	decode(t, rec, &conn)
	require.NotEmpty(t, conn.ID)

	rec = do(t, h, http.MethodPost, "/api/v1/connections", `{"source":"entity-2","target":"entity-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "reverse direction duplicates the pair")

	rec = do(t, h, http.MethodPost, "/api/v1/connections", `{"source":"entity-1","target":"entity-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/scene", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var scene struct {
		Edges []struct {
			ID string `json:"id"`
		} `json:"edges"`
	}
	decode(t, rec, &scene)
	assert.Len(t, scene.Edges, 1)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/connections/"+conn.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/connections/"+conn.ID, "").Code)

	rec = do(t, h, http.MethodGet, "/api/v1/connections", "")
	var conns []json.RawMessage
	decode(t, rec, &conns)
	assert.Empty(t, conns)
}

func TestPointerDrag(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/commands", `{"name":"create-entity","x":100,"y":100}`).Code)

	rec := do(t, h, http.MethodPost, "/api/v1/pointer", `{"kind":"down","x":103,"y":105}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Phase string `json:"phase"`
	}
	decode(t, rec, &result)
	assert.NotEqual(t, "idle", strings.ToLower(result.Phase))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/pointer", `{"kind":"move","x":153,"y":125}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/pointer", `{"kind":"up","x":153,"y":125}`).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/entities/entity-1", "")
	var view canvas.EntityView
	decode(t, rec, &view)
	assert.Equal(t, 150.0, view.Position.X())
	assert.Equal(t, 120.0, view.Position.Y())

	rec = do(t, h, http.MethodPost, "/api/v1/pointer", `{"kind":"hover","x":0,"y":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewportAndRepair(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/api/v1/viewport",
		`{"canvas_offset":{"x":10,"y":20},"scroll":{"x":0,"y":0},"width":800,"height":600,"canvas_width":1000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/viewport", "")
	var v canvas.Viewport
	decode(t, rec, &v)
	assert.Equal(t, 800.0, v.Width)
	assert.Equal(t, 10.0, v.CanvasOffset.X)

	rec = do(t, h, http.MethodPost, "/api/v1/repair", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSnapshotPNG(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/entities", `{"x":0,"y":0}`).Code)

	rec := do(t, h, http.MethodGet, "/api/v1/snapshot.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}
