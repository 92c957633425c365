package heartbeat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu      sync.Mutex
	sent    []string
	peers   []string
	dropped []string
}

func (h *fakeHost) SendHeartbeat(peerID []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, string(peerID))
	return nil
}

func (h *fakeHost) Peers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.peers...)
}

func (h *fakeHost) DropPeer(peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropped = append(h.dropped, peerID)
	for i, p := range h.peers {
		if p == peerID {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			break
		}
	}
}

func (h *fakeHost) sentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}

func (h *fakeHost) droppedPeers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.dropped...)
}

func TestNoopBackendDoesNothing(t *testing.T) {
	b := NewNoopBackend()
	require.NoError(t, b.Configure(nil))
	b.HandleHeartbeat("peer")
	b.HandleTimeoutDetection("peer")
	require.NoError(t, b.Stop())
}

func TestTickerBackendEmitsHeartbeats(t *testing.T) {
	host := &fakeHost{peers: []string{"peer-1"}}
	b := NewTickerBackend(10*time.Millisecond, 3, 100)
	require.NoError(t, b.Configure(host))
	defer b.Stop()

	require.Eventually(t, func() bool {
		return host.sentCount() > 0
	}, 200*time.Millisecond, 5*time.Millisecond)
}

func TestTickerBackendEvictsUnresponsivePeer(t *testing.T) {
	host := &fakeHost{peers: []string{"peer-1"}}
	b := NewTickerBackend(5*time.Millisecond, 2, 1000)
	require.NoError(t, b.Configure(host))
	defer b.Stop()

	require.Eventually(t, func() bool {
		return len(host.droppedPeers()) == 1
	}, 500*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, []string{"peer-1"}, host.droppedPeers())
}

func TestTickerBackendResetsMissedCountOnHeartbeat(t *testing.T) {
	host := &fakeHost{peers: []string{"peer-1"}}
	b := NewTickerBackend(5*time.Millisecond, 100, 1000)
	require.NoError(t, b.Configure(host))
	defer b.Stop()

	time.Sleep(30 * time.Millisecond)
	b.HandleHeartbeat("peer-1")

	b.mu.Lock()
	missed := b.missed["peer-1"]
	b.mu.Unlock()
	require.Equal(t, 0, missed)
}
