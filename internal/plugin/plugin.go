package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/events"
	"github.com/imrishuroy/go-divvit-tracking/internal/metrics"
	"github.com/imrishuroy/go-divvit-tracking/internal/shopconfig"
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

const (
	// Name identifies the plugin's event subscriptions and persisted state.
	Name = "DivvitTracking"
	// Version is reported by Info.
	Version = "1.0.2"

	author = "Divvit AB"
	link   = "https://www.divvit.com"

	// ParentForm is the config form the merchant site id element belongs to.
	ParentForm = "Interface"
	// TrackingTemplate is the storefront template extended on every page.
	TrackingTemplate = "frontend/plugins/divvit-tracking/tracking.tpl"
)

// ElementStore persists plugin configuration elements.
type ElementStore interface {
	PutElement(ctx context.Context, e shopconfig.Element) error
	DeleteElement(ctx context.Context, name string) error
}

// StateStore persists whether the plugin is installed, so an uninstall
// survives restarts.
type StateStore interface {
	PluginActive(ctx context.Context, plugin string) (active, known bool, err error)
	SetPluginActive(ctx context.Context, plugin string, active bool) error
}

// OrderPublisher enqueues order-tracked messages.
type OrderPublisher interface {
	SendOrderMessage(ctx context.Context, message any, attributes map[string]string) error
}

// Info is the plugin metadata shown in the host's plugin manager.
type Info struct {
	Version   string `json:"version"`
	Label     string `json:"label"`
	Supplier  string `json:"supplier"`
	Author    string `json:"author"`
	Support   string `json:"support"`
	Link      string `json:"link"`
	License   string `json:"license"`
	Copyright string `json:"copyright"`
	Active    bool   `json:"active"`
}

// Options configures a Plugin. Elements, State and Publisher are optional.
type Options struct {
	Dispatcher *events.Dispatcher
	Builder    *tracking.Builder
	Elements   ElementStore
	State      StateStore
	Publisher  OrderPublisher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	ViewsDir   string
}

// Plugin wires the tracking builder into host events.
type Plugin struct {
	dispatcher *events.Dispatcher
	builder    *tracking.Builder
	elements   ElementStore
	state      StateStore
	publisher  OrderPublisher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	viewsDir   string
	nowFunc    func() time.Time

	mu     sync.Mutex
	active bool
}

// New returns an inactive Plugin.
func New(opts Options) *Plugin {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	viewsDir := opts.ViewsDir
	if viewsDir == "" {
		viewsDir = "Views"
	}
	return &Plugin{
		dispatcher: opts.Dispatcher,
		builder:    opts.Builder,
		elements:   opts.Elements,
		state:      opts.State,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		logger:     logger.Named("plugin"),
		viewsDir:   viewsDir,
		nowFunc:    time.Now,
	}
}

// Info returns the plugin metadata.
func (p *Plugin) Info() Info {
	return Info{
		Version:   Version,
		Label:     "Divvit Tracking",
		Supplier:  author,
		Author:    author,
		Support:   author,
		Link:      link,
		License:   "Commercial",
		Copyright: fmt.Sprintf("© %d %s", p.nowFunc().Year(), author),
		Active:    p.Active(),
	}
}

// Active reports whether the plugin is installed.
func (p *Plugin) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start restores the persisted install state: the plugin is installed unless
// it was explicitly uninstalled. Without a StateStore it always installs.
func (p *Plugin) Start(ctx context.Context) error {
	if p.state != nil {
		active, known, err := p.state.PluginActive(ctx, Name)
		if err != nil {
			return fmt.Errorf("start %s: read state: %w", Name, err)
		}
		if known && !active {
			p.dispatcher.Unsubscribe(Name)
			p.setActive(false)
			p.logger.Info("plugin stays uninstalled")
			return nil
		}
	}
	return p.Install(ctx)
}

// Install registers the merchant site id element and subscribes the event
// handlers. Any failure rolls the installation back before the error is
// returned; the persisted state is left as it was.
func (p *Plugin) Install(ctx context.Context) (err error) {
	defer func() {
		if err == nil {
			return
		}
		if uerr := p.teardown(ctx); uerr != nil {
			p.logger.Error("rollback after failed install", zap.Error(uerr))
		}
	}()

	// Reinstalling must not stack duplicate subscriptions.
	p.dispatcher.Unsubscribe(Name)

	if p.elements != nil {
		if err := p.elements.PutElement(ctx, shopconfig.Element{
			Name:       shopconfig.MerchantSiteIDElement,
			Type:       "text",
			Label:      "Frontend ID",
			Required:   true,
			Scope:      shopconfig.ScopeShop,
			ParentForm: ParentForm,
		}); err != nil {
			return fmt.Errorf("install %s: register config element: %w", Name, err)
		}
	}

	subs := []struct {
		event   string
		handler events.Handler
	}{
		{events.PostDispatch, p.onPostDispatch},
		{events.CheckoutCart, p.onCheckoutCart},
		{events.CheckoutAjaxDeleteArticleCart, p.onCheckoutCart},
		{events.CheckoutAjaxAddArticleCart, p.onCheckoutCart},
		{events.PostDispatchFrontendCheckout, p.onCheckoutFinish},
	}
	for _, s := range subs {
		if err := p.dispatcher.Subscribe(s.event, Name, s.handler); err != nil {
			return fmt.Errorf("install %s: %w", Name, err)
		}
	}

	if p.state != nil {
		if err := p.state.SetPluginActive(ctx, Name, true); err != nil {
			return fmt.Errorf("install %s: persist state: %w", Name, err)
		}
	}

	p.setActive(true)
	p.logger.Info("plugin installed", zap.String("version", Version))
	return nil
}

// Uninstall removes the event handlers and the config element and records
// the plugin as inactive.
func (p *Plugin) Uninstall(ctx context.Context) error {
	if p.state != nil {
		if err := p.state.SetPluginActive(ctx, Name, false); err != nil {
			p.dispatcher.Unsubscribe(Name)
			p.setActive(false)
			return fmt.Errorf("uninstall %s: persist state: %w", Name, err)
		}
	}
	if err := p.teardown(ctx); err != nil {
		return fmt.Errorf("uninstall %s: %w", Name, err)
	}
	p.logger.Info("plugin uninstalled")
	return nil
}

func (p *Plugin) teardown(ctx context.Context) error {
	p.dispatcher.Unsubscribe(Name)
	p.setActive(false)

	if p.elements != nil {
		if err := p.elements.DeleteElement(ctx, shopconfig.MerchantSiteIDElement); err != nil {
			return fmt.Errorf("remove config element: %w", err)
		}
	}
	return nil
}

func (p *Plugin) setActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = active
}
