package broker

import (
	"context"
	"sync"

	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/logging"
)

// Subscriber receives events pushed through the broker. Push is called
// synchronously from the sending goroutine, so implementations should
// hand work off quickly.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks code.cubepool.io/cube/broker Subscriber
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

type subscription struct {
	Subscriber
}

// Broker - the base broker type, fans events out to subscribers by type.
type Broker struct {
	ctx context.Context
	log *logging.Logger

	mu    sync.Mutex
	tSubs map[events.Type]map[int]*subscription
	// subs ensures a unique ID for all subscribers, regardless of what
	// event types they subscribe to
	subs map[int]*subscription
	keys []int
}

// New creates a new base broker.
func New(ctx context.Context, log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		ctx:   ctx,
		log:   log,
		tSubs: map[events.Type]map[int]*subscription{},
		subs:  map[int]*subscription{},
		keys:  []int{},
	}
}

// Send a single event to all subscribers registered for its type.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch sends a batch of events, fanning each one out individually.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	select {
	case <-b.ctx.Done():
		return
	default:
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range evts {
		for _, sub := range b.tSubs[e.Type()] {
			sub.Push(e)
		}
		for _, sub := range b.tSubs[events.All] {
			sub.Push(e)
		}
	}
}

// Subscribe registers a new subscriber, returning the key used to unsubscribe.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := b.getKey()
	s.SetID(k)
	sub := &subscription{Subscriber: s}
	b.subs[k] = sub
	types := sub.Types()
	for _, t := range types {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]*subscription{}
		}
		b.tSubs[t][k] = sub
	}
	if b.log.GetLevel() <= logging.DebugLevel {
		b.log.Debug("new subscriber",
			logging.Int("id", k),
			logging.Int("types", len(types)),
		)
	}
	return k
}

// SubscribeBatch registers a set of subscribers.
func (b *Broker) SubscribeBatch(subs ...Subscriber) {
	for _, s := range subs {
		b.Subscribe(s)
	}
}

// Unsubscribe removes subscriber from broker.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rmSubs(k)
}

func (b *Broker) getKey() int {
	if len(b.keys) > 0 {
		k := b.keys[0]
		b.keys = b.keys[1:]
		return k
	}
	return len(b.subs) + 1
}

func (b *Broker) rmSubs(keys ...int) {
	for _, k := range keys {
		sub, ok := b.subs[k]
		if !ok {
			continue
		}
		for _, t := range sub.Types() {
			delete(b.tSubs[t], k)
			if len(b.tSubs[t]) == 0 {
				delete(b.tSubs, t)
			}
		}
		delete(b.subs, k)
		b.keys = append(b.keys, k)
	}
}
