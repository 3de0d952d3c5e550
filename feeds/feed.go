package feeds

import (
	"sync"

	"code.cubepool.io/cube/libs/num"
)

// Aggregator is a single price source, Chainlink aggregator style. The
// reported price uses 8 decimal places. A nil or zero price means the
// source has no answer; the registry turns that into ErrPriceUnavailable
// so callers never see a zero sentinel.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/aggregator_mock.go -package mocks code.cubepool.io/cube/feeds Aggregator
type Aggregator interface {
	LatestPrice() *num.Uint
}

// PushFeed is an Aggregator fed by an external process, e.g. through the
// API's feed-push route. The zero value reports no price until the first
// SetPrice.
type PushFeed struct {
	mu    sync.RWMutex
	price *num.Uint
}

func NewPushFeed() *PushFeed {
	return &PushFeed{}
}

func (f *PushFeed) SetPrice(price *num.Uint) {
	f.mu.Lock()
	if price == nil || price.IsZero() {
		f.price = nil
	} else {
		f.price = price.Clone()
	}
	f.mu.Unlock()
}

func (f *PushFeed) LatestPrice() *num.Uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return nil
	}
	return f.price.Clone()
}
