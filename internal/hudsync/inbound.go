package hudsync

import (
	"log"
	"sync"
	"time"
)

// Applier receives a coalesced remote batch. Implementations apply all
// grid-config updates to the data model first, then run a single joint
// re-render, then apply the remaining updates in batch order, and
// finally resynchronize the persistence cache from the live grids.
type Applier interface {
	ApplyBatch(updates []Update)
}

// Inbound buffers incoming remote updates and applies them as one
// coalesced batch. Every arrival resets the debounce timer so a burst of
// messages lands as a single atomic application instead of many small
// ones.
type Inbound struct {
	mu       sync.Mutex
	queue    []Update
	timer    *time.Timer
	debounce time.Duration
	userID   string
	applier  Applier
	logger   *log.Logger
}

// NewInbound constructs an inbound queue. A zero debounce falls back to
// DefaultDebounce; a nil logger falls back to the default.
func NewInbound(applier Applier, userID string, debounce time.Duration, logger *log.Logger) *Inbound {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Inbound{
		queue:    make([]Update, 0),
		debounce: debounce,
		userID:   userID,
		applier:  applier,
		logger:   logger,
	}
}

// Receive unpacks a raw transport message and stages its updates.
// Updates originating from the local client are dropped; the local edit
// was already applied optimistically. Undecodable messages are logged
// and discarded.
func (i *Inbound) Receive(raw []byte) {
	updates, err := DecodeEnvelope(raw)
	if err != nil {
		i.logger.Printf("hudsync: discarding message: %v", err)
		return
	}

	staged := updates[:0]
	for _, u := range updates {
		if u.UserID == i.userID {
			continue
		}
		staged = append(staged, u)
	}
	if len(staged) == 0 {
		return
	}

	i.mu.Lock()
	i.queue = append(i.queue, staged...)
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timer = time.AfterFunc(i.debounce, i.Apply)
	i.mu.Unlock()
}

// Apply drains the queue, coalesces it, and hands the batch to the
// applier. It runs from the debounce timer but may be called directly to
// force immediate application.
func (i *Inbound) Apply() {
	i.mu.Lock()
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	drained := i.queue
	i.queue = make([]Update, 0)
	i.mu.Unlock()

	if len(drained) == 0 {
		return
	}
	i.applier.ApplyBatch(Coalesce(drained))
}

// Close cancels any pending timer and applies what is queued.
func (i *Inbound) Close() {
	i.Apply()
}
