// Package events is the synchronizer's event publisher (A4). Per
// design note "Event emitter" in the spec it replaces a callback/emitter
// style with an explicit publisher carrying exactly two event kinds,
// emitted synchronously and in the order handlers were registered.
package events

import "sync"

// NewHeightHandler is invoked once per emitted newHeight event, after a
// block has been fully imported or reverted.
type NewHeightHandler func()

// TouchedAddressHandler is invoked once per unique address whose coin
// set changed as a result of a block or a mempool transaction.
type TouchedAddressHandler func(address string)

// Publisher fans a newHeight or touchedAddress event out to every
// handler registered before it fires. Handlers must not re-enter the
// synchronizer: Publish is called from the synchronizer's single
// logical task and blocks until every handler returns.
type Publisher struct {
	mu             sync.Mutex
	newHeight      []NewHeightHandler
	touchedAddress []TouchedAddressHandler
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// OnNewHeight registers a handler for newHeight. Handlers must be
// registered before Initialize completes (spec §6).
func (p *Publisher) OnNewHeight(h NewHeightHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.newHeight = append(p.newHeight, h)
}

// OnTouchedAddress registers a handler for touchedAddress.
func (p *Publisher) OnTouchedAddress(h TouchedAddressHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touchedAddress = append(p.touchedAddress, h)
}

// PublishNewHeight synchronously invokes every registered newHeight
// handler, in registration order.
func (p *Publisher) PublishNewHeight() {
	p.mu.Lock()
	handlers := p.newHeight
	p.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

// PublishTouchedAddress synchronously invokes every registered
// touchedAddress handler, in registration order.
func (p *Publisher) PublishTouchedAddress(address string) {
	p.mu.Lock()
	handlers := p.touchedAddress
	p.mu.Unlock()
	for _, h := range handlers {
		h(address)
	}
}
