package hudsync

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is the flush window for both queue directions. It is
// long enough to fold a burst of edits into one batch and short enough
// to feel immediate on remote clients.
const DefaultDebounce = 50 * time.Millisecond

// Transport is the fire-and-forget broadcast boundary. Implementations
// deliver the payload to every other client viewing the subject; there
// is no ordering or delivery guarantee.
type Transport interface {
	Send(payload []byte) error
}

// Outbound queues local edits and flushes them as one coalesced batch
// message per subject after a debounce window.
type Outbound struct {
	mu        sync.Mutex
	queue     []Update
	timer     *time.Timer
	debounce  time.Duration
	transport Transport
	userID    string
	logger    *log.Logger
}

// NewOutbound constructs an outbound queue. A zero debounce falls back
// to DefaultDebounce; a nil logger falls back to the default.
func NewOutbound(transport Transport, userID string, debounce time.Duration, logger *log.Logger) *Outbound {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Outbound{
		queue:     make([]Update, 0),
		debounce:  debounce,
		transport: transport,
		userID:    userID,
		logger:    logger,
	}
}

// Enqueue stages an update, stamping the sender and timestamp when
// missing, and arms the flush timer if it is not already running.
func (o *Outbound) Enqueue(u Update) {
	if u.UserID == "" {
		u.UserID = o.userID
	}
	if u.Timestamp == 0 {
		u.Timestamp = Now()
	}
	o.mu.Lock()
	o.queue = append(o.queue, u)
	if o.timer == nil {
		o.timer = time.AfterFunc(o.debounce, o.Flush)
	}
	o.mu.Unlock()
}

// Flush drains the queue immediately: updates are grouped by subject,
// coalesced, and sent as one batch message per subject. Transport
// failures are logged and swallowed; the broadcast is best-effort and
// there is no retry.
func (o *Outbound) Flush() {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	drained := o.queue
	o.queue = make([]Update, 0)
	o.mu.Unlock()

	if len(drained) == 0 {
		return
	}

	bySubject := make(map[string][]Update)
	order := make([]string, 0)
	for _, u := range drained {
		if _, ok := bySubject[u.Subject]; !ok {
			order = append(order, u.Subject)
		}
		bySubject[u.Subject] = append(bySubject[u.Subject], u)
	}

	for _, subject := range order {
		batch := Batch{
			Type:      BatchType,
			Subject:   subject,
			UserID:    o.userID,
			Timestamp: Now(),
			Updates:   Coalesce(bySubject[subject]),
		}
		payload, err := json.Marshal(batch)
		if err != nil {
			o.logger.Printf("hudsync: failed to encode batch for %s: %v", subject, err)
			continue
		}
		if err := o.transport.Send(payload); err != nil {
			o.logger.Printf("hudsync: failed to broadcast batch for %s: %v", subject, err)
		}
	}
}

// Close stops the flush timer and sends anything still queued.
func (o *Outbound) Close() {
	o.Flush()
}
