package types

import "time"

// SessionState is the supervisor state machine's current phase (spec.md
// §4.10's state diagram).
type SessionState string

const (
	StateReceived       SessionState = "Received"
	StateClassified     SessionState = "Classified"
	StateDirect         SessionState = "Direct"
	StateSingleDelegate SessionState = "SingleDelegate"
	StatePlanned        SessionState = "Planned"
	StateSynthesizing   SessionState = "Synthesizing"
	StateDone           SessionState = "Done"
	StateFailed         SessionState = "Failed"
)

// Classification is the deterministic outcome of classifying a question
// (spec.md §4.10's numbered classification rules).
type Classification string

const (
	ClassDirect         Classification = "direct"
	ClassSingleDelegate Classification = "single_delegate"
	ClassSynthesis      Classification = "synthesis"
	ClassPlanned        Classification = "planned"
)

// SubAgentKind is the tagged variant distinguishing sub-agent roles (spec.md
// §9 Design Notes: "use a tagged variant SubAgentKind instead of a deep
// inheritance hierarchy").
type SubAgentKind string

const (
	SubAgentQuery    SubAgentKind = "query"
	SubAgentAnalysis SubAgentKind = "analysis"
)

// TodoStatus is one TODO item's execution status.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoFailed     TodoStatus = "failed"
	TodoSkipped    TodoStatus = "skipped"
)

// TodoItem is one step of a supervisor plan (spec.md §4.10).
type TodoItem struct {
	ID          string
	Description string
	Target      SubAgentKind
	Status      TodoStatus
	Summary     string
	RetriedOnce bool
}

// Turn is one user/assistant exchange kept for conversation continuity
// (spec.md §4.10's "previous context").
type Turn struct {
	Role    string
	Content string
	At      time.Time
}

// Citation is one source cited in a synthesized answer (spec.md §4.10's
// synthesis contract).
type Citation struct {
	SourceTitle     string
	EffectiveDate   time.Time
	Confidentiality ConfidentialityLevel
}

// SupervisorAnswer is the final synthesized response to a query session.
type SupervisorAnswer struct {
	Text                string
	Citations           []Citation
	ConfidenceWarning   bool
	ConfidentialityFlag bool
	Truncated           bool
	ToolCallCount       int
}
