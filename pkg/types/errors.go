package types

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindValidation   ErrKind = iota // bad name/value/segment; caught before any write
	ErrKindAccessDenied                // privilege insufficient for the scope
	ErrKindNotFound                    // missing variable or snapshot
	ErrKindConflict                    // bulk import collision under the Fail policy
	ErrKindMalformed                   // codec could not decode the input
	ErrKindPartialApply                // a multi-record apply failed partway
	ErrKindState                       // invalid operation for current state (e.g., empty undo history)
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations. Contextual errors wrap
// these (via the Err field or %w) so errors.Is can still classify them.
var (
	// ErrAccessDenied indicates the caller lacks the privilege the scope requires.
	ErrAccessDenied = &Error{Kind: ErrKindAccessDenied, Msg: "access denied"}
	// ErrNotFound indicates a missing variable.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "variable not found"}
	// ErrSnapshotNotFound indicates a missing snapshot id.
	ErrSnapshotNotFound = &Error{Kind: ErrKindNotFound, Msg: "snapshot not found"}
	// ErrMalformedInput indicates input a codec could not decode.
	ErrMalformedInput = &Error{Kind: ErrKindMalformed, Msg: "malformed input"}
	// ErrConflict indicates an import collision under ConflictFail.
	ErrConflict = &Error{Kind: ErrKindConflict, Msg: "conflict detected"}
	// ErrPartialApply indicates a batch that failed after some records applied.
	ErrPartialApply = &Error{Kind: ErrKindPartialApply, Msg: "partial apply failure"}
	// ErrNothingToUndo indicates an empty undo history.
	ErrNothingToUndo = &Error{Kind: ErrKindState, Msg: "nothing to undo"}
	// ErrNothingToRedo indicates an empty redo future.
	ErrNothingToRedo = &Error{Kind: ErrKindState, Msg: "nothing to redo"}
	// ErrKindMismatch indicates a name changed kind within one session.
	ErrKindMismatch = &Error{Kind: ErrKindState, Msg: "variable kind changed mid-session"}
)

// ConflictError reports the names that collided during a bulk import under
// the Fail policy. The whole batch is rejected; no record was applied.
type ConflictError struct {
	Names []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict detected: %s", strings.Join(e.Names, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PartialApplyError reports a multi-record apply that failed partway. Applied
// lists the records that made it into the registry before the failure, so the
// caller can reconcile against the pre-operation snapshot.
type PartialApplyError struct {
	Applied []Record
	Err     error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("partial apply failure after %d record(s): %v", len(e.Applied), e.Err)
}

func (e *PartialApplyError) Unwrap() error { return ErrPartialApply }
