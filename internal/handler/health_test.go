package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

type fakeGraph struct{ err error }

func (f *fakeGraph) UpsertSource(context.Context, types.Source) error                       { return nil }
func (f *fakeGraph) UpsertChunks(context.Context, string, []types.Chunk) error               { return nil }
func (f *fakeGraph) UpsertEntities(context.Context, []types.Entity, time.Time) error         { return nil }
func (f *fakeGraph) UpsertDecisions(context.Context, []types.Decision) error                 { return nil }
func (f *fakeGraph) UpsertActions(context.Context, []types.Action) error       { return nil }
func (f *fakeGraph) LinkMentions(context.Context, map[string][]string) error   { return nil }
func (f *fakeGraph) ExecuteCypher(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeGraph) Ping(context.Context) error  { return f.err }
func (f *fakeGraph) Close(context.Context) error { return nil }

type fakeRelational struct{ err error }

func (f *fakeRelational) UpsertSource(context.Context, types.Source) error        { return nil }
func (f *fakeRelational) UpsertChunks(context.Context, []types.Chunk) error        { return nil }
func (f *fakeRelational) UpsertEntities(context.Context, []types.Entity, time.Time) error { return nil }
func (f *fakeRelational) UpsertDecisions(context.Context, []types.Decision) error  { return nil }
func (f *fakeRelational) UpsertActions(context.Context, []types.Action) error      { return nil }
func (f *fakeRelational) SearchByVector(context.Context, []float32, int, types.ConfidentialityLevel) ([]types.Chunk, error) {
	return nil, nil
}
func (f *fakeRelational) ExecuteReadOnlySQL(context.Context, string, ...any) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeRelational) Ping(context.Context) error { return f.err }
func (f *fakeRelational) Close() error               { return nil }

type fakeChat struct {
	resp interfaces.ChatResponse
	err  error
}

func (f *fakeChat) Chat(context.Context, []interfaces.ChatMessage, []interfaces.ToolSpec) (interfaces.ChatResponse, error) {
	return f.resp, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth_AllOK(t *testing.T) {
	h := NewHealthHandler(&fakeGraph{}, &fakeRelational{}, &fakeChat{}, nil)

	r := gin.New()
	r.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealth_DegradedOnGraphFailure(t *testing.T) {
	h := NewHealthHandler(&fakeGraph{err: assert.AnError}, &fakeRelational{}, &fakeChat{}, nil)

	r := gin.New()
	r.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
