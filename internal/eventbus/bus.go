// Package eventbus provides per-job, best-effort event fan-out with
// bounded per-subscriber buffering and late-subscriber catch-up.
//
// Grounded on the async-publish pattern common in the example corpus
// (snapshot subscribers under a read lock, then deliver without holding
// any lock so the publisher is never blocked by a slow subscriber) but
// adapted to the specification's overflow policy: a bounded ring per
// subscriber that drops the oldest buffered event, rather than an
// unbounded channel or a synchronous, potentially blocking send.
package eventbus

import (
	"sync"
	"time"

	"github.com/researchcore/pipeline/internal/research"
)

// DefaultCapacity is the per-subscriber ring size used when a caller does
// not specify one.
const DefaultCapacity = 256

// Bus fans out research.Events to per-job subscribers.
type Bus struct {
	mu   sync.RWMutex
	jobs map[string]*jobBus
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{jobs: make(map[string]*jobBus)}
}

type jobBus struct {
	mu         sync.RWMutex
	seq        uint64
	lastStatus *research.Event
	subs       map[string]*subscriber
}

type subscriber struct {
	id      string
	ch      chan research.Event
	mu      sync.Mutex
	dropped uint64
}

// send delivers event to the subscriber without blocking. If the
// subscriber's ring is full, the oldest buffered event is dropped (by a
// non-blocking receive) before the new one is enqueued, and the drop
// counter is incremented.
func (s *subscriber) send(event research.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- event:
		return
	default:
	}

	select {
	case <-s.ch:
		s.dropped++
	default:
	}

	select {
	case s.ch <- event:
	default:
		// Ring was refilled concurrently (shouldn't happen: sends for a
		// single subscriber are serialized by s.mu); drop silently rather
		// than block the publisher.
		s.dropped++
	}
}

// Dropped reports how many events have been dropped for this subscriber
// due to ring overflow.
func (s *subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (b *Bus) jobBusFor(jobID string) *jobBus {
	b.mu.RLock()
	jb, ok := b.jobs[jobID]
	b.mu.RUnlock()
	if ok {
		return jb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if jb, ok = b.jobs[jobID]; ok {
		return jb
	}
	jb = &jobBus{subs: make(map[string]*subscriber)}
	b.jobs[jobID] = jb
	return jb
}

// Publish assigns the event a timestamp and a monotonically increasing
// per-job sequence number, then fans it out to every current subscriber
// of jobID. Publish never blocks on a slow subscriber.
func (b *Bus) Publish(jobID string, event research.Event) {
	jb := b.jobBusFor(jobID)

	jb.mu.Lock()
	jb.seq++
	event.Seq = jb.seq
	event.Timestamp = time.Now()
	if event.Type == research.TypeStatusUpdate {
		cp := event
		jb.lastStatus = &cp
	}
	subs := make([]*subscriber, 0, len(jb.subs))
	for _, s := range jb.subs {
		subs = append(subs, s)
	}
	jb.mu.Unlock()

	for _, s := range subs {
		s.send(event)
	}
}

// Subscription is a handle returned by Subscribe; call Unsubscribe when
// the caller disconnects.
type Subscription struct {
	bus   *Bus
	jobID string
	sub   *subscriber
}

// Events returns the channel of events for this subscription, in publish
// order (subject to drop-oldest overflow).
func (s *Subscription) Events() <-chan research.Event {
	return s.sub.ch
}

// Dropped reports how many events were dropped for this subscription.
func (s *Subscription) Dropped() uint64 {
	return s.sub.Dropped()
}

// Unsubscribe removes the subscription from the bus and closes its
// channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	jb := s.bus.jobBusFor(s.jobID)
	jb.mu.Lock()
	if _, ok := jb.subs[s.sub.id]; ok {
		delete(jb.subs, s.sub.id)
		close(s.sub.ch)
	}
	jb.mu.Unlock()
}

// Subscribe registers a new subscriber for jobID with the given ring
// capacity (DefaultCapacity if capacity <= 0). On registration, the bus
// atomically captures the last published status_update (if any) and
// enqueues it first, so a late subscriber's first observed event is a
// synthetic snapshot of the job's current status.
func Subscribe(b *Bus, jobID string, subscriberID string, capacity int) *Subscription {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	jb := b.jobBusFor(jobID)

	sub := &subscriber{id: subscriberID, ch: make(chan research.Event, capacity)}

	jb.mu.Lock()
	if jb.lastStatus != nil {
		catchUp := *jb.lastStatus
		sub.ch <- catchUp
	}
	jb.subs[subscriberID] = sub
	jb.mu.Unlock()

	return &Subscription{bus: b, jobID: jobID, sub: sub}
}

// Close removes all bookkeeping for a job (its sequence counter, last
// status, and any still-registered subscribers' channels). Called by the
// job manager during retention GC.
func (b *Bus) Close(jobID string) {
	b.mu.Lock()
	jb, ok := b.jobs[jobID]
	if ok {
		delete(b.jobs, jobID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	jb.mu.Lock()
	defer jb.mu.Unlock()
	for id, s := range jb.subs {
		close(s.ch)
		delete(jb.subs, id)
	}
}
