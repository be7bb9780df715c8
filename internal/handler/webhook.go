package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wk-archive/meetingmind/internal/agent/supervisor"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/messaging"
	"github.com/wk-archive/meetingmind/internal/security"
	"github.com/wk-archive/meetingmind/internal/whitelist"
)

// WebhookHandler handles the inbound messaging channel webhook (spec.md
// §6). It always returns 200: the channel has no way to surface an
// HTTP-level failure to the sender, so errors are reported by an
// asynchronous reply instead.
type WebhookHandler struct {
	pool     *supervisor.Pool
	deps     supervisor.Deps
	gate     *whitelist.Gate
	reply    *messaging.Client
	triggers []string
}

// NewWebhookHandler wires the supervisor pool, whitelist gate, and reply
// client the webhook needs.
func NewWebhookHandler(pool *supervisor.Pool, deps supervisor.Deps, gate *whitelist.Gate, reply *messaging.Client, triggers []string) *WebhookHandler {
	return &WebhookHandler{pool: pool, deps: deps, gate: gate, reply: reply, triggers: triggers}
}

// Webhook parses a form-encoded inbound message, applies the trigger and
// control-word rules, and (if applicable) hands the question to a pooled
// supervisor session, replying asynchronously once it finishes.
func (h *WebhookHandler) Webhook(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())

	from := c.PostForm("From")
	body := c.PostForm("Body")
	profile := c.PostForm("ProfileName")

	c.Status(200)

	if from == "" || body == "" {
		logger.Warn(ctx, "webhook message missing From or Body")
		return
	}

	msg := messaging.InboundMessage{
		From:        from,
		Body:        body,
		ProfileName: profile,
		OneToOne:    c.PostForm("ChannelType") != "group",
	}

	decision := messaging.Evaluate(msg, h.triggers)
	if decision.ControlReply != "" {
		go h.sendReply(from, decision.ControlReply)
		return
	}
	if !decision.Process {
		return
	}

	question, ok := security.ValidateInput(messaging.StripTrigger(body, h.triggers))
	if !ok || question == "" {
		return
	}

	if !h.gate.IsAuthorized(ctx, from) {
		logger.Info(ctx, "webhook message denied by whitelist", "from", security.SanitizeForLog(from))
		go h.sendReply(from, "This number is not authorized to use this assistant.")
		return
	}

	go h.process(from, question)
}

func (h *WebhookHandler) process(from, question string) {
	ctx := context.Background()
	sessionID := supervisor.NewSessionID()

	answerCh, errCh := h.pool.Submit(ctx, sessionID, question, nil, h.deps)
	select {
	case answer := <-answerCh:
		h.sendReply(from, answer.Text)
	case err := <-errCh:
		logger.Errorf(ctx, "webhook session %s failed: %v", sessionID, err)
		h.sendReply(from, "Sorry, I ran into a problem answering that. Please try again.")
	}
}

func (h *WebhookHandler) sendReply(to, body string) {
	if err := h.reply.Reply(context.Background(), to, body); err != nil {
		logger.Errorf(context.Background(), "reply to %s failed: %v", security.SanitizeForLog(to), err)
	}
}
