package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/agent/supervisor"
	"github.com/wk-archive/meetingmind/internal/messaging"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
	"github.com/wk-archive/meetingmind/internal/whitelist"
)

type fakeLookup struct{ authorized bool }

func (f *fakeLookup) IsActiveWhitelistEntry(context.Context, string) (bool, error) {
	return f.authorized, nil
}

func newTestWebhookHandler(t *testing.T, authorized bool) (*WebhookHandler, *httptest.Server, chan string) {
	t.Helper()
	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			To   string `json:"to"`
			Body string `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		replies <- payload.Body
		w.WriteHeader(200)
	}))

	pool, err := supervisor.NewPool(1)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	t.Cleanup(srv.Close)

	deps := supervisor.Deps{
		Chat:     &fakeChat{resp: interfaces.ChatResponse{Content: "Hello there!"}},
		Query:    &fakeSubAgent{summary: "nothing to report"},
		Analysis: &fakeSubAgent{summary: "nothing to report"},
	}
	gate := whitelist.New(&fakeLookup{authorized: authorized}, whitelist.Config{})
	reply := messaging.NewClient(srv.URL, "")
	triggers := []string{"@agent"}

	return NewWebhookHandler(pool, deps, gate, reply, triggers), srv, replies
}

func waitForReply(t *testing.T, replies chan string) string {
	t.Helper()
	select {
	case r := <-replies:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async reply")
		return ""
	}
}

func TestWebhook_AlwaysReturns200(t *testing.T) {
	h, _, _ := newTestWebhookHandler(t, true)

	r := gin.New()
	r.POST("/messaging/webhook", h.Webhook)

	form := url.Values{"From": {"+12025550123"}, "Body": {"@agent hello"}}
	req := httptest.NewRequest(http.MethodPost, "/messaging/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestWebhook_GroupMessageWithoutTriggerIsDropped(t *testing.T) {
	h, _, replies := newTestWebhookHandler(t, true)

	r := gin.New()
	r.POST("/messaging/webhook", h.Webhook)

	form := url.Values{"From": {"+12025550123"}, "Body": {"just chatting"}, "ChannelType": {"group"}}
	req := httptest.NewRequest(http.MethodPost, "/messaging/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	select {
	case <-replies:
		t.Fatal("should not have replied")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWebhook_ControlWordHandledLocally(t *testing.T) {
	h, _, replies := newTestWebhookHandler(t, true)

	r := gin.New()
	r.POST("/messaging/webhook", h.Webhook)

	form := url.Values{"From": {"+12025550123"}, "Body": {"STOP"}}
	req := httptest.NewRequest(http.MethodPost, "/messaging/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, waitForReply(t, replies), "Paused")
}

func TestWebhook_UnauthorizedSenderGetsRefusal(t *testing.T) {
	h, _, replies := newTestWebhookHandler(t, false)

	r := gin.New()
	r.POST("/messaging/webhook", h.Webhook)

	form := url.Values{"From": {"+19995550123"}, "Body": {"what happened last week?"}}
	req := httptest.NewRequest(http.MethodPost, "/messaging/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, waitForReply(t, replies), "not authorized")
}

func TestWebhook_AuthorizedOneToOneGetsAnswer(t *testing.T) {
	h, _, replies := newTestWebhookHandler(t, true)

	r := gin.New()
	r.POST("/messaging/webhook", h.Webhook)

	form := url.Values{"From": {"+12025550123"}, "Body": {"what happened last week?"}}
	req := httptest.NewRequest(http.MethodPost, "/messaging/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, waitForReply(t, replies), "nothing to report")
}
