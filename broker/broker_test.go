package broker_test

import (
	"context"
	"testing"

	"code.cubepool.io/cube/broker"
	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSub struct {
	id    int
	types []events.Type
	recv  []events.Event
}

func (s *stubSub) Push(evts ...events.Event)  { s.recv = append(s.recv, evts...) }
func (s *stubSub) Types() []events.Type       { return s.types }
func (s *stubSub) SetID(id int)               { s.id = id }
func (s *stubSub) ID() int                    { return s.id }

func getBroker(t *testing.T) (*broker.Broker, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := broker.New(ctx, logging.NewTestLogger(), broker.NewDefaultConfig())
	return b, cancel
}

func TestSubscribe(t *testing.T) {
	t.Run("subscribers get unique keys", testSubscribeUniqueKeys)
	t.Run("unsubscribed key is reused", testUnsubscribeReuseKey)
}

func TestSend(t *testing.T) {
	t.Run("events reach type subscribers", testSendByType)
	t.Run("events reach catch-all subscribers", testSendCatchAll)
	t.Run("no events delivered after context cancel", testSendAfterCancel)
}

func testSubscribeUniqueKeys(t *testing.T) {
	b, cancel := getBroker(t)
	defer cancel()
	s1 := &stubSub{types: []events.Type{events.PriceUpdateEvent}}
	s2 := &stubSub{types: []events.Type{events.PriceUpdateEvent}}
	k1 := b.Subscribe(s1)
	k2 := b.Subscribe(s2)
	require.NotEqual(t, k1, k2)
	assert.Equal(t, k1, s1.ID())
	assert.Equal(t, k2, s2.ID())
}

func testUnsubscribeReuseKey(t *testing.T) {
	b, cancel := getBroker(t)
	defer cancel()
	s1 := &stubSub{types: []events.Type{events.PriceUpdateEvent}}
	k1 := b.Subscribe(s1)
	b.Unsubscribe(k1)
	s2 := &stubSub{types: []events.Type{events.PriceUpdateEvent}}
	k2 := b.Subscribe(s2)
	assert.Equal(t, k1, k2)
}

func testSendByType(t *testing.T) {
	b, cancel := getBroker(t)
	defer cancel()
	priceSub := &stubSub{types: []events.Type{events.PriceUpdateEvent}}
	govSub := &stubSub{types: []events.Type{events.GovernanceChangedEvent}}
	b.SubscribeBatch(priceSub, govSub)

	e := events.NewGovernanceChangedEvent(context.Background(), "gov", "guardian")
	b.Send(e)

	require.Len(t, govSub.recv, 1)
	assert.Equal(t, events.GovernanceChangedEvent, govSub.recv[0].Type())
	assert.Empty(t, priceSub.recv)
}

func testSendCatchAll(t *testing.T) {
	b, cancel := getBroker(t)
	defer cancel()
	all := &stubSub{types: []events.Type{events.All}}
	b.Subscribe(all)

	b.SendBatch([]events.Event{
		events.NewGovernanceChangedEvent(context.Background(), "gov", "guardian"),
		events.NewProtocolFeesCollectedEvent(context.Background(), "gov", num.NewUint(100)),
	})
	assert.Len(t, all.recv, 2)
}

func testSendAfterCancel(t *testing.T) {
	b, cancel := getBroker(t)
	all := &stubSub{types: []events.Type{events.All}}
	b.Subscribe(all)
	cancel()
	b.Send(events.NewGovernanceChangedEvent(context.Background(), "gov", "guardian"))
	assert.Empty(t, all.recv)
}
