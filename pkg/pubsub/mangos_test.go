package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
)

func TestSocketPublisher_RoundTrip(t *testing.T) {
	reg := metrics.NewRegistry()
	pub, err := ListenPublisher("inproc://dyncomm-slices-test", nil, reg)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := DialSubscriber(pub.Addr(), 50*time.Millisecond)
	require.NoError(t, err)
	defer sub.Close()

	q := 0.42
	sent := SliceEvent{RunID: "run-1", Window: "2020_01", Modularity: &q, Communities: 3}

	// A SUB socket only sees messages sent after its subscription lands
	var got SliceEvent
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, pub.Send(sent))
		got, err = sub.Recv()
		if err == nil || time.Now().After(deadline) {
			break
		}
	}
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "2020_01", got.Window)
	require.NotNil(t, got.Modularity)
	assert.InDelta(t, 0.42, *got.Modularity, 1e-12)
	assert.Equal(t, 3, got.Communities)
}

func TestSocketSubscriber_RecvTimeout(t *testing.T) {
	pub, err := ListenPublisher("inproc://dyncomm-quiet-test", nil, nil)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := DialSubscriber(pub.Addr(), 20*time.Millisecond)
	require.NoError(t, err)
	defer sub.Close()

	_, err = sub.Recv()
	assert.ErrorIs(t, err, ErrRecvTimeout)
}

func TestSocketPublisher_SendAfterClose(t *testing.T) {
	pub, err := ListenPublisher("inproc://dyncomm-closed-test", nil, nil)
	require.NoError(t, err)

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.Error(t, pub.Send(SliceEvent{RunID: "x"}))
}
