package heartbeat

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TickerBackend periodically emits HEARTBEAT to every peer seen recently,
// and evicts any peer unseen for missedIntervals consecutive ticks.
// Emission is paced through a token-bucket limiter rather than firing one
// frame per peer per tick unconditionally, so a large peer set cannot be
// sent heartbeats in a single thundering burst; the limiter caps outbound
// frames per second independent of how many peers are tracked.
type TickerBackend struct {
	interval        time.Duration
	missedIntervals int
	limiter         *rate.Limiter

	mu       sync.Mutex
	lastSeen map[string]time.Time
	missed   map[string]int

	host   BackendHost
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewTickerBackend constructs a TickerBackend that ticks every interval,
// evicts a peer after missedIntervals consecutive ticks without a heartbeat
// touch, and paces outbound HEARTBEAT frames to at most ratePerSecond per
// second (with a burst of int(ratePerSecond)+1, so the burst is never zero).
func NewTickerBackend(interval time.Duration, missedIntervals int, ratePerSecond float64) *TickerBackend {
	return &TickerBackend{
		interval:        interval,
		missedIntervals: missedIntervals,
		limiter:         rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1),
		lastSeen:        make(map[string]time.Time),
		missed:          make(map[string]int),
		stopCh:          make(chan struct{}),
	}
}

func (b *TickerBackend) Configure(host BackendHost) error {
	b.host = host
	b.ticker = time.NewTicker(b.interval)
	b.wg.Add(1)
	go b.run()
	return nil
}

func (b *TickerBackend) Stop() error {
	close(b.stopCh)
	if b.ticker != nil {
		b.ticker.Stop()
	}
	b.wg.Wait()
	return nil
}

func (b *TickerBackend) HandleHeartbeat(peerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen[peerID] = time.Now()
	b.missed[peerID] = 0
}

func (b *TickerBackend) HandleTimeoutDetection(peerID string) {
	b.host.DropPeer(peerID)
	b.mu.Lock()
	delete(b.lastSeen, peerID)
	delete(b.missed, peerID)
	b.mu.Unlock()
}

func (b *TickerBackend) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case <-b.ticker.C:
			b.tick()
		}
	}
}

func (b *TickerBackend) tick() {
	for _, peerID := range b.host.Peers() {
		b.mu.Lock()
		b.missed[peerID]++
		timedOut := b.missed[peerID] > b.missedIntervals
		b.mu.Unlock()

		if timedOut {
			b.HandleTimeoutDetection(peerID)
			continue
		}
		if !b.limiter.Allow() {
			continue
		}
		b.host.SendHeartbeat([]byte(peerID))
	}
}
