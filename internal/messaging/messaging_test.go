package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultTriggers = []string{"@agent", "@bot", "hey agent"}

func TestEvaluate_ControlWords(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"help", helpText},
		{"HELP", helpText},
		{"  stop  ", "Paused. Send START to resume."},
		{"start", "Resumed. I will respond to your messages again."},
	}
	for _, tc := range cases {
		d := Evaluate(InboundMessage{Body: tc.body}, defaultTriggers)
		assert.False(t, d.Process)
		assert.Equal(t, tc.want, d.ControlReply)
	}
}

func TestEvaluate_ControlWordRequiresWholeBody(t *testing.T) {
	d := Evaluate(InboundMessage{Body: "please stop doing that @agent"}, defaultTriggers)
	assert.True(t, d.Process)
	assert.Empty(t, d.ControlReply)
}

func TestEvaluate_OneToOneBypassesTrigger(t *testing.T) {
	d := Evaluate(InboundMessage{Body: "what happened last week?", OneToOne: true}, defaultTriggers)
	assert.True(t, d.Process)
}

func TestEvaluate_GroupRequiresTrigger(t *testing.T) {
	d := Evaluate(InboundMessage{Body: "what happened last week?", OneToOne: false}, defaultTriggers)
	assert.False(t, d.Process)

	d = Evaluate(InboundMessage{Body: "Hey Agent, what happened last week?", OneToOne: false}, defaultTriggers)
	assert.True(t, d.Process)
}

func TestStripTrigger(t *testing.T) {
	got := StripTrigger("@agent what happened last week?", defaultTriggers)
	assert.Equal(t, "what happened last week?", got)
}

func TestClient_Reply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	require.NoError(t, c.Reply(context.Background(), "+1234", "hello"))
}

func TestClient_Reply_NoBaseURLIsNoop(t *testing.T) {
	c := NewClient("", "")
	require.NoError(t, c.Reply(context.Background(), "+1234", "hello"))
}

func TestClient_Reply_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.Reply(context.Background(), "+1234", "hello")
	require.Error(t, err)
}
