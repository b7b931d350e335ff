package ledger

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes ledger rejections.
type ErrorCode string

const (
	// CodeUnauthorized indicates the caller is not the orchestrator.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeDuplicateRun indicates the run was already processed, either at
	// dispatch or at callback-resolution time.
	CodeDuplicateRun ErrorCode = "DUPLICATE_RUN"

	// CodeProofRejected indicates the verifier returned false.
	CodeProofRejected ErrorCode = "PROOF_REJECTED"

	// CodeVerifierCallFailed indicates the verifier call itself did not complete.
	CodeVerifierCallFailed ErrorCode = "VERIFIER_CALL_FAILED"

	// CodeInvalidArgument indicates a malformed identity or amount.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeNotInitialized indicates the ledger has no orchestrator yet.
	CodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// CodeAlreadyInitialized indicates a second initialization attempt.
	CodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"
)

// Sentinels for errors.Is. An *Error matches the sentinel with the same code.
var (
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "only the orchestrator may perform this operation"}
	ErrDuplicateRun       = &Error{Code: CodeDuplicateRun, Message: "run already processed"}
	ErrProofRejected      = &Error{Code: CodeProofRejected, Message: "proof verification returned false"}
	ErrVerifierCallFailed = &Error{Code: CodeVerifierCallFailed, Message: "verifier call failed"}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrNotInitialized     = &Error{Code: CodeNotInitialized, Message: "ledger not initialized"}
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized, Message: "ledger already initialized"}
)

// Error is a ledger rejection. All rejections are fatal to the operation
// that raised them and leave persisted state unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, when there is one.
	RunID string

	// Err is the underlying cause (e.g. the transport error of a verifier call).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg = fmt.Sprintf("%s (run=%s)", msg, e.RunID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Unauthorized creates an Unauthorized rejection for caller.
func Unauthorized(caller string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("only orchestrator, caller %q", caller),
	}
}

// DuplicateRun creates a DuplicateRun rejection.
func DuplicateRun(runID string) *Error {
	return &Error{Code: CodeDuplicateRun, Message: "run ID already processed", RunID: runID}
}

// ProofRejected creates a ProofRejected rejection.
func ProofRejected(runID string) *Error {
	return &Error{Code: CodeProofRejected, Message: "proof verification returned false", RunID: runID}
}

// VerifierCallFailed creates a VerifierCallFailed rejection wrapping cause.
func VerifierCallFailed(runID string, cause error) *Error {
	return &Error{Code: CodeVerifierCallFailed, Message: "verifier contract call failed", RunID: runID, Err: cause}
}

// InvalidArgument creates an InvalidArgument rejection.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// IsUnauthorized returns true if err is an Unauthorized rejection.
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }

// IsDuplicateRun returns true if err is a DuplicateRun rejection.
func IsDuplicateRun(err error) bool { return CodeOf(err) == CodeDuplicateRun }

// IsProofRejected returns true if err is a ProofRejected rejection.
func IsProofRejected(err error) bool { return CodeOf(err) == CodeProofRejected }

// IsVerifierCallFailed returns true if err is a VerifierCallFailed rejection.
func IsVerifierCallFailed(err error) bool { return CodeOf(err) == CodeVerifierCallFailed }
