package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesSentinelByCode(t *testing.T) {
	err := DuplicateRun("run1")

	assert.True(t, errors.Is(err, ErrDuplicateRun))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsDuplicateRun(err))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("commit payroll: %w", ProofRejected("run2"))

	assert.True(t, errors.Is(err, ErrProofRejected))
	assert.True(t, IsProofRejected(err))
	assert.Equal(t, CodeProofRejected, CodeOf(err))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := VerifierCallFailed("run3", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsVerifierCallFailed(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "run=run3")
}

func TestError_Message(t *testing.T) {
	err := Unauthorized("hacker.testnet")

	assert.Equal(t, `UNAUTHORIZED: only orchestrator, caller "hacker.testnet"`, err.Error())
	assert.True(t, IsUnauthorized(err))
}

func TestCodeOf_NonLedgerError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
