package events

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/ledger"
)

// fakeStream records XADD calls.
type fakeStream struct {
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, a)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1700000000000-0", nil)
}

func TestRedisSink_AppendsEntry(t *testing.T) {
	fake := &fakeStream{}
	sink := NewRedisSink(fake, "ledger:test", 0)

	ev := testEvent()
	require.NoError(t, sink.Publish(context.Background(), ev))

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, "ledger:test", call.Stream)
	assert.Equal(t, int64(0), call.MaxLen)

	values, ok := call.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ledger.EventName, values["event"])
	assert.Equal(t, "run1", values["run_id"])

	payload, err := ev.MarshalPayload()
	require.NoError(t, err)
	assert.Equal(t, string(payload), values["payload"])
}

func TestRedisSink_TrimsWhenMaxLenSet(t *testing.T) {
	fake := &fakeStream{}
	sink := NewRedisSink(fake, "", 500)

	require.NoError(t, sink.Publish(context.Background(), testEvent()))

	assert.Equal(t, DefaultStream, sink.Stream())
	assert.Equal(t, int64(500), fake.calls[0].MaxLen)
	assert.True(t, fake.calls[0].Approx)
}

func TestRedisSink_PropagatesError(t *testing.T) {
	fake := &fakeStream{err: errors.New("connection refused")}
	sink := NewRedisSink(fake, "s", 0)

	err := sink.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd s")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewRedisClient(t *testing.T) {
	client := NewRedisClient(RedisOptions{Addr: "localhost:6379", DB: 2})
	defer client.Close()

	assert.Equal(t, "localhost:6379", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)
}
