package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/ledger"
)

func TestSequentialTickets(t *testing.T) {
	gen := NewSequentialTickets("")
	assert.Equal(t, "ticket-1", gen.Generate())
	assert.Equal(t, "ticket-2", gen.Generate())

	named := NewSequentialTickets("v")
	assert.Equal(t, "v-1", named.Generate())
}

func TestStaticVerifiers(t *testing.T) {
	ctx := context.Background()

	ok, err := Accepting().Verify(ctx, "p", nil)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = Rejecting().Verify(ctx, "p", nil)
	assert.False(t, ok)
	assert.NoError(t, err)

	_, err = Unreachable().Verify(ctx, "p", nil)
	assert.True(t, errors.Is(err, ErrVerifierUnreachable))
}

func TestGatedVerifier_ReleasesInOrder(t *testing.T) {
	g := NewGatedVerifier()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := make(chan bool, 1)
	go func() {
		ok, _ := g.Verify(ctx, "first", []string{"1"})
		first <- ok
	}()
	require.NoError(t, g.AwaitCalls(ctx, 1))

	second := make(chan bool, 1)
	go func() {
		ok, _ := g.Verify(ctx, "second", nil)
		second <- ok
	}()
	require.NoError(t, g.AwaitCalls(ctx, 1))

	require.True(t, g.Release(true, nil))
	assert.True(t, <-first)

	require.True(t, g.Release(false, nil))
	assert.False(t, <-second)

	assert.False(t, g.Release(true, nil), "nothing left to release")

	calls := g.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Proof)
	assert.Equal(t, []string{"1"}, calls[0].PublicSignals)
}

func TestGatedVerifier_ContextCancel(t *testing.T) {
	g := NewGatedVerifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Verify(ctx, "p", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordingSink(t *testing.T) {
	sink := &RecordingSink{}
	ev := ledger.NewCommitmentEvent(ledger.Commitment{RunID: "r1", CommittedAt: DefaultEpoch})

	require.NoError(t, sink.Publish(context.Background(), ev))
	sink.Err = errors.New("down")
	assert.Error(t, sink.Publish(context.Background(), ev))

	assert.Len(t, sink.Events(), 2)
	assert.Equal(t, []string{"r1", "r1"}, sink.RunIDs())
}
