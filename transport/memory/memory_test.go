package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/transport"
)

var threeParties = []transport.PartyID{1, 2, 3}

func TestBroadcastBarrier(t *testing.T) {
	for _, codec := range []string{transport.CodecJSON, transport.CodecMsgpack, transport.CodecCBOR} {
		t.Run(codec, func(t *testing.T) {
			tr, err := New("session", threeParties, codec)
			require.NoError(t, err)
			defer tr.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var wg sync.WaitGroup
			results := make([]map[transport.PartyID][]byte, len(threeParties))
			errs := make([]error, len(threeParties))
			for i, id := range threeParties {
				wg.Add(1)
				go func(i int, id transport.PartyID) {
					defer wg.Done()
					if err := tr.Broadcast(ctx, "round1", id, []byte(fmt.Sprintf("from-%d", id))); err != nil {
						errs[i] = err
						return
					}
					results[i], errs[i] = tr.CollectAll(ctx, "round1", id, len(threeParties)-1)
				}(i, id)
			}
			wg.Wait()

			for i, id := range threeParties {
				require.NoError(t, errs[i])
				require.Len(t, results[i], 2)
				_, self := results[i][id]
				assert.False(t, self, "party %d received its own broadcast", id)
				for from, payload := range results[i] {
					assert.Equal(t, fmt.Sprintf("from-%d", from), string(payload))
				}
			}
		})
	}
}

func TestSendIsPointToPoint(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, tr.Send(ctx, "round2", 1, 2, []byte("for two")))
	require.NoError(t, tr.Send(ctx, "round2", 3, 2, []byte("also for two")))
	require.NoError(t, tr.Send(ctx, "round2", 1, 3, []byte("for three")))

	got, err := tr.CollectAll(ctx, "round2", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "for two", string(got[1]))
	assert.Equal(t, "also for two", string(got[3]))

	got, err = tr.CollectAll(ctx, "round2", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "for three", string(got[1]))
}

func TestPhasesAreIsolated(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, tr.Send(context.Background(), "round1", 1, 2, []byte("x")))

	_, err = tr.CollectAll(ctx, "round2", 2, 1)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

func TestCollectTimeoutReportsProgress(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), "round1", 2, 1, []byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.CollectAll(ctx, "round1", 1, 2)

	var collectErr *transport.CollectError
	require.True(t, errors.As(err, &collectErr))
	assert.Equal(t, 2, collectErr.Expected)
	assert.Equal(t, 1, collectErr.Received)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

func TestCancelledCollect(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.CollectAll(ctx, "round1", 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseWakesCollectors(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.CollectAll(context.Background(), "round1", 1, 2)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, transport.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("collector not woken by Close")
	}

	err = tr.Send(context.Background(), "round1", 2, 1, []byte("late"))
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.NoError(t, tr.Close())
}

func TestDeliveryErrors(t *testing.T) {
	tr, err := New("session", threeParties, "")
	require.NoError(t, err)
	ctx := context.Background()

	err = tr.Send(ctx, "round1", 1, 9, nil)
	assert.ErrorIs(t, err, transport.ErrUnknownParty)

	err = tr.Broadcast(ctx, "round1", 9, nil)
	assert.ErrorIs(t, err, transport.ErrUnknownParty)

	require.NoError(t, tr.Send(ctx, "round1", 1, 2, []byte("a")))
	err = tr.Send(ctx, "round1", 1, 2, []byte("b"))
	assert.ErrorIs(t, err, transport.ErrDuplicateMessage)
}

func TestNewValidation(t *testing.T) {
	_, err := New("", threeParties, "")
	assert.ErrorIs(t, err, transport.ErrInvalidConfig)

	_, err = New("session", nil, "")
	assert.ErrorIs(t, err, transport.ErrInvalidConfig)

	_, err = New("session", []transport.PartyID{1, 1}, "")
	assert.ErrorIs(t, err, transport.ErrInvalidConfig)

	_, err = New("session", threeParties, "xml")
	assert.ErrorIs(t, err, transport.ErrUnsupportedCodec)
}
