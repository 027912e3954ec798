// SPDX-License-Identifier: Apache-2.0

package service

import (
	"sync"

	"github.com/ashirkhanov/syncwell/models"
)

// Publisher delivers sync status snapshots to subscribers from a single
// dedicated goroutine, so host-side observers (typically a UI layer) never
// receive callbacks concurrently or from a sync worker goroutine. A slow
// subscriber loses intermediate snapshots rather than blocking delivery.
type Publisher struct {
	mu     sync.Mutex
	subs   map[int]chan models.SyncStatus
	nextID int
	queue  chan models.SyncStatus
	done   chan struct{}
	closed bool
}

func NewPublisher() *Publisher {
	p := &Publisher{
		subs:  make(map[int]chan models.SyncStatus),
		queue: make(chan models.SyncStatus, 16),
		done:  make(chan struct{}),
	}
	go p.deliver()
	return p
}

// Subscribe registers an observer. The returned cancel function removes the
// subscription and closes its channel.
func (p *Publisher) Subscribe() (<-chan models.SyncStatus, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan models.SyncStatus, 4)
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish enqueues a status snapshot for delivery. Never blocks: when the
// delivery queue is full the oldest pending snapshot is dropped, since only
// the latest state matters to observers.
func (p *Publisher) Publish(status models.SyncStatus) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for {
		select {
		case p.queue <- status:
			return
		default:
			select {
			case <-p.queue:
			default:
			}
		}
	}
}

// Close stops the delivery goroutine and closes all subscriber channels.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, sub := range p.subs {
		delete(p.subs, id)
		close(sub)
	}
}

func (p *Publisher) deliver() {
	for {
		select {
		case <-p.done:
			return
		case status := <-p.queue:
			p.mu.Lock()
			for _, sub := range p.subs {
				select {
				case sub <- status:
				default:
					// Drop for this subscriber; the next snapshot
					// supersedes it.
				}
			}
			p.mu.Unlock()
		}
	}
}
