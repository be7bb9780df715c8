// Package apperr defines the error kinds shared across the ingestion and
// query-serving paths. Components wrap a sentinel with context via
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is
// without parsing strings.
package apperr

import "errors"

// Sentinel error kinds, one per §7 Error Kind in the specification.
var (
	// ErrBadSource marks an unparseable artifact. Terminal for that artifact.
	ErrBadSource = errors.New("bad source")

	// ErrTransientExternal marks a timeout/5xx/429 from an external
	// dependency (LLM, embedder, graph store, relational store). Callers
	// should retry per their own local policy; it is not retried generically.
	ErrTransientExternal = errors.New("transient external error")

	// ErrPermanentExternal marks an auth/4xx-non-429 response. Terminal for
	// the operation; never retried.
	ErrPermanentExternal = errors.New("permanent external error")

	// ErrStoreConflict is currently unused: writers are upsert-only by
	// deterministic id, so no conflict can arise from a duplicate write.
	ErrStoreConflict = errors.New("store conflict")

	// ErrPolicyDenied marks a WhitelistGate rejection. Short-circuits with a
	// user-visible refusal; never retried.
	ErrPolicyDenied = errors.New("policy denied")

	// ErrTruncated marks a supervisor session that hit max_iterations.
	ErrTruncated = errors.New("truncated")

	// ErrPartialSuccess marks an ingest that succeeded on only one of the
	// enabled writers. Logged as a warning; the source is still Succeeded,
	// so this is never returned from Handle.
	ErrPartialSuccess = errors.New("partial success")

	// ErrIngestFailed marks an ingest where every enabled writer failed.
	// Terminal for that task invocation; asynq may retry per its own policy.
	ErrIngestFailed = errors.New("ingest failed")

	// ErrInternalInvariant marks a violated §3 invariant (e.g. a mismatched
	// embedding dimension). Logged, the operation aborted, state rolled back
	// where possible.
	ErrInternalInvariant = errors.New("internal invariant violated")
)

// Is reports whether err (or any error it wraps) matches kind. Thin wrapper
// kept so call sites read as apperr.Is(err, apperr.ErrTransientExternal)
// instead of importing both apperr and errors.
func Is(err error, kind error) bool {
	return errors.Is(err, kind)
}
