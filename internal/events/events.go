package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// Host lifecycle events the tracking plugin can observe.
const (
	PostDispatch                  = "PostDispatch"
	CheckoutCart                  = "Frontend_Checkout_Cart"
	CheckoutAjaxAddArticleCart    = "Frontend_Checkout_AjaxAddArticleCart"
	CheckoutAjaxDeleteArticleCart = "Frontend_Checkout_AjaxDeleteArticleCart"
	PostDispatchFrontendCheckout  = "PostDispatch_Frontend_Checkout"
)

// Known reports whether name is one of the host events above.
func Known(name string) bool {
	switch name {
	case PostDispatch, CheckoutCart, CheckoutAjaxAddArticleCart,
		CheckoutAjaxDeleteArticleCart, PostDispatchFrontendCheckout:
		return true
	}
	return false
}

// Args carries the request scoped host state an event was raised with.
type Args struct {
	Request   tracking.Request
	RequestID string
	ShopID    string
	Session   tracking.SessionStore
	Basket    *tracking.Basket
	Order     *tracking.OrderVariables
	View      *View
}

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, args *Args) error

type subscription struct {
	owner   string
	handler Handler
}

// Dispatcher is an observer registry keyed by event name.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[string][]subscription
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: map[string][]subscription{}}
}

// Subscribe registers handler for event on behalf of owner.
func (d *Dispatcher) Subscribe(event, owner string, handler Handler) error {
	if !Known(event) {
		return fmt.Errorf("subscribe %q: unknown event", event)
	}
	if handler == nil {
		return fmt.Errorf("subscribe %q: nil handler", event)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[event] = append(d.subs[event], subscription{owner: owner, handler: handler})
	return nil
}

// Unsubscribe removes every handler registered by owner.
func (d *Dispatcher) Unsubscribe(owner string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for event, subs := range d.subs {
		kept := subs[:0]
		for _, s := range subs {
			if s.owner != owner {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(d.subs, event)
			continue
		}
		d.subs[event] = kept
	}
}

// Subscribed returns the number of handlers registered for event.
func (d *Dispatcher) Subscribed(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[event])
}

// Dispatch runs the handlers of event in subscription order and stops at the
// first error.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, args *Args) error {
	d.mu.RLock()
	subs := append([]subscription(nil), d.subs[event]...)
	d.mu.RUnlock()

	if args.View == nil {
		args.View = NewView()
	}
	for _, s := range subs {
		if err := s.handler(ctx, args); err != nil {
			return fmt.Errorf("%s handler %s: %w", event, s.owner, err)
		}
	}
	return nil
}
