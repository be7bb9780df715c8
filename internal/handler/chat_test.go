package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/agent/supervisor"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

type fakeSubAgent struct {
	summary string
}

func (f *fakeSubAgent) Run(context.Context, string) (string, error) {
	return f.summary, nil
}

func TestChatHandler_Chat(t *testing.T) {
	pool, err := supervisor.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	deps := supervisor.Deps{
		Chat:     &fakeChat{resp: interfaces.ChatResponse{Content: "Hi! I'm the meeting assistant."}},
		Query:    &fakeSubAgent{summary: "nothing to report"},
		Analysis: &fakeSubAgent{summary: "nothing to report"},
	}
	h := NewChatHandler(pool, deps)

	r := gin.New()
	r.POST("/admin/chat", h.Chat)

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/chat", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "meeting assistant")
}

func TestChatHandler_RejectsXSSPayload(t *testing.T) {
	pool, err := supervisor.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	h := NewChatHandler(pool, supervisor.Deps{})

	r := gin.New()
	r.POST("/admin/chat", h.Chat)

	body := bytes.NewBufferString(`{"message":"<script>alert(1)</script>"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/chat", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}
