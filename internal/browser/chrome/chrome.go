// Package chrome implements browser.Browser on top of a headless Chrome
// driven through the DevTools protocol.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwatch/internal/browser"
	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	report_chrome_navigate = "chrome.navigate"
)

type Options struct {
	// ExecPath is the Chrome binary, empty lets chromedp look it up.
	ExecPath string
	// Headful shows the browser window.
	Headful bool
	// NavigationTimeout bounds Navigate and WaitForNavigation. Defaults to 30 seconds.
	NavigationTimeout time.Duration
}

type Browser struct {
	opts Options
	tel  telemetry.API

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// New starts the allocator, Chrome itself is launched with the first page.
func New(ctx context.Context, opts Options, tel telemetry.API) *Browser {
	assert.NotNil(tel)

	if opts.NavigationTimeout == 0 {
		opts.NavigationTimeout = 30 * time.Second
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)

	return &Browser{
		opts:        opts,
		tel:         telemetry.NewScopedAPI("chrome", tel),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)

	p := &Page{
		ctx:     tabCtx,
		cancel:  cancel,
		timeout: b.opts.NavigationTimeout,
		tel:     b.tel,
		loads:   make(chan struct{}, 1),
	}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case p.loads <- struct{}{}:
			default:
			}
		}
	})

	// launches the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return p, nil
}

func (b *Browser) Close() error {
	b.allocCancel()
	return nil
}

type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	tel     telemetry.API

	// loads receives a value every time the page fires its load event.
	loads     chan struct{}
	clicked   bool
	lastURL   string
	closeOnce bool
}

// run executes actions on the tab, bounded by both the tab and the caller's context.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *Page) drainLoads() {
	for {
		select {
		case <-p.loads:
		default:
			return
		}
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.run(timeoutCtx, chromedp.Navigate(url), chromedp.Location(&p.lastURL))
	if err != nil {
		p.tel.ReportBroken(report_chrome_navigate, err, url)
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", browser.ErrNavigationTimeout, url, err)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.drainLoads()
	return nil
}

func (p *Page) WaitForNavigation(ctx context.Context) error {
	if !p.clicked {
		return fmt.Errorf("%w: no navigation was started", browser.ErrNavigationTimeout)
	}
	p.clicked = false

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-p.loads:
	case <-timer.C:
		return fmt.Errorf("%w: no load event after %s", browser.ErrNavigationTimeout, p.timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", browser.ErrNavigationTimeout, ctx.Err())
	}
	return p.run(ctx, chromedp.Location(&p.lastURL))
}

func (p *Page) query(ctx context.Context, selector string, from *cdp.Node) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...))
	return nodes, err
}

func (p *Page) wrap(nodes []*cdp.Node) []browser.Element {
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &element{page: p, node: n}
	}
	return out
}

func (p *Page) Find(ctx context.Context, selector string) (browser.Element, error) {
	nodes, err := p.query(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return &element{page: p, node: nodes[0]}, nil
}

func (p *Page) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	nodes, err := p.query(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	return p.wrap(nodes), nil
}

func (p *Page) URL() string {
	return p.lastURL
}

func (p *Page) Close() error {
	if p.closeOnce {
		return nil
	}
	p.closeOnce = true
	p.cancel()
	return nil
}

type element struct {
	page *Page
	node *cdp.Node
}

func (e *element) Attr(name string) (string, bool) {
	return e.node.Attribute(name)
}

func (e *element) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	nodes, err := e.page.query(ctx, selector, e.node)
	if err != nil {
		return nil, err
	}
	return e.page.wrap(nodes), nil
}

func (e *element) Type(ctx context.Context, text string) error {
	return e.page.run(ctx, chromedp.SendKeys([]cdp.NodeID{e.node.NodeID}, text, chromedp.ByNodeID))
}

func (e *element) Click(ctx context.Context) error {
	e.page.drainLoads()
	e.page.clicked = true
	return e.page.run(ctx, chromedp.MouseClickNode(e.node))
}
