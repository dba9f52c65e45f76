package pubsub

import (
	"errors"
	"sync"
)

const (
	DefaultPublisherBufSize  = 1
	DefaultSubscriberBufSize = 1
)

var ErrPublisherClosed = errors.New("publisher closed")

type Publisher[T any] interface {
	SenderCloser[T]
	Subscribe() (ReceiverCloser[T], error)
	SubscribeBufSize(int) (ReceiverCloser[T], error)
}

type publisher[T any] struct {
	mu          sync.Mutex
	ch          *channel[T]
	fanout      sync.WaitGroup // the fan-out goroutine
	pending     sync.WaitGroup // messages not yet delivered to all subscribers
	subMu       sync.Mutex
	subscribers map[SenderCloser[T]]struct{}
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return NewPublisherBufSize[T](DefaultPublisherBufSize)
}

func NewPublisherBufSize[T any](bufSize int) Publisher[T] {
	p := &publisher[T]{
		ch:          newChannel[T](bufSize),
		subscribers: make(map[SenderCloser[T]]struct{}),
	}
	p.fanout.Add(1)
	go func() {
		defer p.fanout.Done()
		for v := range p.ch.Receive() {
			// Snapshot subscribers so new ones can be added mid-delivery.
			for _, s := range p.snapshot() {
				if ok := s.Send(v); !ok {
					p.unsubscribe(s)
				}
			}
			p.pending.Done()
		}
	}()
	return p
}

// Send publishes the value to all subscribers without blocking on any of
// them beyond the publisher's own buffer.
func (p *publisher[T]) Send(msg T) bool {
	p.pending.Add(1)
	if ok := p.ch.Send(msg); !ok {
		p.pending.Done()
		return false
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	return p.SubscribeBufSize(DefaultSubscriberBufSize)
}

func (p *publisher[T]) SubscribeBufSize(bufSize int) (ReceiverCloser[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	s := newChannel[T](bufSize)
	p.subMu.Lock()
	p.subscribers[s] = struct{}{}
	p.subMu.Unlock()
	return s, nil
}

func (p *publisher[T]) snapshot() []SenderCloser[T] {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	subs := make([]SenderCloser[T], 0, len(p.subscribers))
	for s := range p.subscribers {
		subs = append(subs, s)
	}
	return subs
}

func (p *publisher[T]) unsubscribe(s SenderCloser[T]) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	delete(p.subscribers, s)
}

// Close idempotently shuts down the publisher, flushing pending messages and
// closing all subscribers.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.ch.Close()
	p.pending.Wait()
	p.fanout.Wait()
	p.subMu.Lock()
	subs := make([]SenderCloser[T], 0, len(p.subscribers))
	for s := range p.subscribers {
		subs = append(subs, s)
	}
	p.subscribers = make(map[SenderCloser[T]]struct{})
	p.subMu.Unlock()
	for _, s := range subs {
		s.Close()
	}
	p.closed = true
}
