// Package supervisor implements QuerySupervisor: an explicit state machine
// that classifies a question, optionally builds a TODO plan, delegates to
// isolated sub-agents, and synthesizes a cited final answer (spec.md
// §4.10). Re-expressed as an object with a single Advance(ctx) step rather
// than a recursive plan/act/observe loop, so max_iterations is a
// first-class, checkable invariant instead of an implicit call-stack depth.
package supervisor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wk-archive/meetingmind/internal/agent/subagent"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/telemetry"
	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// Config tunes the supervisor's bounds (spec.md §6 configuration keys).
type Config struct {
	MaxIterations int
	HistoryTurns  int
	FreshnessDays int
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 50
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 5
	}
	if c.FreshnessDays <= 0 {
		c.FreshnessDays = 60
	}
	return c
}

// Deps bundles everything a Session needs to run, shared across sessions.
// Query and Analysis are the subagent.SubAgent interface, not the concrete
// types, so tests can substitute fakes without a real ChatModel or tools.
type Deps struct {
	Chat      interfaces.ChatModel
	Query     subagent.SubAgent
	Analysis  subagent.SubAgent
	Telemetry *telemetry.Log
	Config    Config
}

// Session is one query session's state machine instance (spec.md §4.10's
// state diagram). It is not safe for concurrent use; bound concurrent
// sessions with Pool instead.
type Session struct {
	ID       string
	deps     Deps
	question string
	history  []types.Turn

	state          types.SessionState
	classification types.Classification
	plan           []types.TodoItem
	iterations     int

	summaries []string
	citations []types.Citation
	answer    *types.SupervisorAnswer
}

// NewSession starts a session in the Received state. history is trimmed to
// the last deps.Config.HistoryTurns entries.
func NewSession(id, question string, history []types.Turn, deps Deps) *Session {
	deps.Config = deps.Config.withDefaults()
	if len(history) > deps.Config.HistoryTurns {
		history = history[len(history)-deps.Config.HistoryTurns:]
	}
	return &Session{
		ID:       id,
		deps:     deps,
		question: question,
		history:  history,
		state:    types.StateReceived,
	}
}

// Run drives Advance until the session reaches Done or Failed.
func (s *Session) Run(ctx context.Context) (*types.SupervisorAnswer, error) {
	start := time.Now()
	s.emit(types.EventSessionStart, types.OutcomeSuccess, 0)

	for s.state != types.StateDone && s.state != types.StateFailed {
		if err := s.Advance(ctx); err != nil {
			s.state = types.StateFailed
			s.emit(types.EventSessionEnd, types.OutcomeFailure, time.Since(start))
			return nil, err
		}
	}

	outcome := types.OutcomeSuccess
	if s.answer != nil && s.answer.Truncated {
		outcome = types.OutcomeSkipped
	}
	s.emit(types.EventSessionEnd, outcome, time.Since(start))
	return s.answer, nil
}

// Advance performs exactly one state transition. Every transition that
// performs I/O (a tool call, a sub-agent round-trip, a plan-item update)
// counts toward the session's iteration budget; hitting the cap forces an
// early synthesis with a truncation warning (spec.md §4.10).
func (s *Session) Advance(ctx context.Context) error {
	countsAsIteration := false

	switch s.state {
	case types.StateReceived:
		s.classification = Classify(s.question)
		s.state = types.StateClassified

	case types.StateClassified:
		s.routeClassification()

	case types.StateDirect:
		s.runDirect(ctx)
		countsAsIteration = true
		s.state = types.StateSynthesizing

	case types.StateSingleDelegate:
		s.runSingleDelegate(ctx)
		countsAsIteration = true
		s.state = types.StateSynthesizing

	case types.StatePlanned:
		if s.allPlanItemsTerminal() {
			s.state = types.StateSynthesizing
		} else {
			s.stepPlan(ctx)
			countsAsIteration = true
		}

	case types.StateSynthesizing:
		s.answer = s.synthesize(false)
		s.state = types.StateDone

	default:
		return fmt.Errorf("supervisor: unhandled state %q", s.state)
	}

	if countsAsIteration {
		s.iterations++
	}
	if s.iterations >= s.deps.Config.MaxIterations && s.state != types.StateDone {
		s.answer = s.synthesize(true)
		s.state = types.StateDone
	}
	return nil
}

func (s *Session) routeClassification() {
	switch s.classification {
	case types.ClassDirect:
		s.state = types.StateDirect
	case types.ClassSingleDelegate, types.ClassSynthesis:
		s.state = types.StateSingleDelegate
	default:
		s.state = types.StatePlanned
		s.plan = defaultPlan(s.question)
	}
}

// defaultPlan builds the 3-step retrieve/analyze plan used for every
// Planned classification (spec.md §4.10 rule 5's "3-step default",
// generalized to the multi-temporal rule 3 case too, per the edge case
// "no classification rule matches → default Planned with 3 items").
func defaultPlan(question string) []types.TodoItem {
	return []types.TodoItem{
		{ID: "todo-1", Description: "Retrieve information relevant to: " + question, Target: types.SubAgentQuery, Status: types.TodoPending},
		{ID: "todo-2", Description: "Retrieve any additional time-scoped context relevant to: " + question, Target: types.SubAgentQuery, Status: types.TodoPending},
		{ID: "todo-3", Description: "Identify themes, trends, or comparisons across the retrieved information", Target: types.SubAgentAnalysis, Status: types.TodoPending},
	}
}

func (s *Session) allPlanItemsTerminal() bool {
	for _, item := range s.plan {
		if item.Status == types.TodoPending || item.Status == types.TodoInProgress {
			return false
		}
	}
	return true
}

// stepPlan executes exactly one pending plan item, applying the
// retry-once-then-skip recovery rule (spec.md §4.10 "Error recovery").
func (s *Session) stepPlan(ctx context.Context) {
	idx := -1
	for i, item := range s.plan {
		if item.Status == types.TodoPending {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	item := &s.plan[idx]
	item.Status = types.TodoInProgress

	agent := subagent.ForKind(item.Target, s.deps.Query, s.deps.Analysis)
	task := item.Description
	if item.Target == types.SubAgentAnalysis {
		task = "Question: " + s.question + "\n\nPrior retrieval summaries:\n" + strings.Join(s.summaries, "\n---\n")
	}

	summary, err := agent.Run(ctx, task)
	s.emit(types.EventQueryAttempt, outcomeOf(err), 0)
	if err != nil {
		if !item.RetriedOnce {
			item.RetriedOnce = true
			item.Description = rewrite(item.Description)
			item.Status = types.TodoPending
			return
		}
		item.Status = types.TodoSkipped
		return
	}

	item.Status = types.TodoCompleted
	item.Summary = summary
	s.summaries = append(s.summaries, summary)
	s.citations = append(s.citations, parseCitations(summary)...)
}

func (s *Session) runDirect(ctx context.Context) {
	resp, err := s.deps.Chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: "You are a concise meeting-knowledge assistant. Answer greetings and identity questions briefly."},
		{Role: "user", Content: s.question},
	}, nil)
	s.emit(types.EventQueryAttempt, outcomeOf(err), 0)
	if err != nil {
		s.summaries = append(s.summaries, "unable to generate a direct response")
		return
	}
	s.summaries = append(s.summaries, resp.Content)
}

func (s *Session) runSingleDelegate(ctx context.Context) {
	retrieval, err := s.deps.Query.Run(ctx, s.question)
	s.emit(types.EventQueryAttempt, outcomeOf(err), 0)
	if err != nil {
		s.summaries = append(s.summaries, "unable to retrieve an answer")
		return
	}
	s.summaries = append(s.summaries, retrieval)
	s.citations = append(s.citations, parseCitations(retrieval)...)

	if s.classification != types.ClassSynthesis {
		return
	}

	analysis, err := s.deps.Analysis.Run(ctx, "Question: "+s.question+"\n\nRetrieved summary:\n"+retrieval)
	s.emit(types.EventQueryAttempt, outcomeOf(err), 0)
	if err != nil {
		return
	}
	s.summaries = append(s.summaries, analysis)
}

// synthesize composes the final answer from accumulated summaries and
// citations (spec.md §4.10's synthesis contract).
func (s *Session) synthesize(truncated bool) *types.SupervisorAnswer {
	text := strings.Join(s.summaries, "\n\n")
	if text == "" {
		text = "No information could be retrieved for this question."
	}
	if truncated {
		text += "\n\n(This answer was generated before all planned steps completed, due to the iteration limit.)"
	}

	confWarning := len(s.citations) <= 1
	confFlag := false
	if newest := newestCitation(s.citations); newest != nil {
		if time.Since(newest.EffectiveDate) > time.Duration(s.deps.Config.FreshnessDays)*24*time.Hour {
			confWarning = true
		}
	}
	for _, c := range s.citations {
		if c.Confidentiality == types.ConfidentialityConfidential || c.Confidentiality == types.ConfidentialityRestricted {
			confFlag = true
		}
	}

	return &types.SupervisorAnswer{
		Text:                text,
		Citations:           s.citations,
		ConfidenceWarning:   confWarning,
		ConfidentialityFlag: confFlag,
		Truncated:           truncated,
		ToolCallCount:       s.iterations,
	}
}

func newestCitation(citations []types.Citation) *types.Citation {
	var newest *types.Citation
	for i := range citations {
		if newest == nil || citations[i].EffectiveDate.After(newest.EffectiveDate) {
			newest = &citations[i]
		}
	}
	return newest
}

var citationPattern = regexp.MustCompile(`([A-Z][\w'&/,.\- ]{2,80}?)\s*\((\d{4}-\d{2}-\d{2})\)`)

// parseCitations derives Source title/date pairs from a sub-agent's
// natural-language summary text, per spec.md §4.10's "cite the sources used
// ... derived from sub-agent summaries" — citations are not returned as a
// separate structured field by the sub-agent, they are read back out of its
// prose. Confidentiality is inferred from co-occurring keywords in the same
// summary, since the sub-agent's 500-word bound strips structured fields.
func parseCitations(summary string) []types.Citation {
	matches := citationPattern.FindAllStringSubmatch(summary, -1)
	lower := strings.ToLower(summary)
	level := types.ConfidentialityInternal
	switch {
	case strings.Contains(lower, "restricted"):
		level = types.ConfidentialityRestricted
	case strings.Contains(lower, "confidential"):
		level = types.ConfidentialityConfidential
	case strings.Contains(lower, "public"):
		level = types.ConfidentialityPublic
	}

	seen := map[string]bool{}
	var citations []types.Citation
	for _, m := range matches {
		title := strings.TrimSpace(m[1])
		date, err := time.Parse("2006-01-02", m[2])
		if err != nil || seen[title+m[2]] {
			continue
		}
		seen[title+m[2]] = true
		citations = append(citations, types.Citation{SourceTitle: title, EffectiveDate: date, Confidentiality: level})
	}
	return citations
}

// rewrite produces one alternative phrasing of a failed plan item's
// description, the supervisor's one allowed retry (spec.md §4.10).
func rewrite(description string) string {
	return "In different terms, " + strings.TrimPrefix(description, "Retrieve information relevant to: ")
}

func outcomeOf(err error) types.Outcome {
	if err != nil {
		return types.OutcomeFailure
	}
	return types.OutcomeSuccess
}

func (s *Session) emit(event types.TelemetryEventKind, outcome types.Outcome, duration time.Duration) {
	if s.deps.Telemetry == nil {
		return
	}
	if err := s.deps.Telemetry.Append(types.TelemetryEvent{
		SessionID:  s.ID,
		Event:      event,
		Outcome:    outcome,
		DurationMS: duration.Milliseconds(),
	}); err != nil {
		logger.GetLogger(context.Background()).Warnf("supervisor telemetry append failed: %v", err)
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "sess-" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + uuid.NewString()[:8]
}
