// Package htmlpage implements browser.Browser without a real browser: pages
// are fetched with resty and parsed with goquery, form controls keep their
// state locally and are serialised when a submit control is clicked.
//
// It does not run scripts, so it only suits sites whose workflow is plain
// links and forms.
package htmlpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"slotwatch/internal/browser"
	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	report_page_load = "page.load"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// Timeout bounds every request, a request that exceeds it is reported
	// as browser.ErrNavigationTimeout. Defaults to 30 seconds.
	Timeout time.Duration
	// MinInterval is the minimum time between two requests, zero disables pacing.
	MinInterval time.Duration
	// CloudflareBypass wraps the transport with cloudflare-bp-go.
	CloudflareBypass bool
	UserAgent        string
}

type Browser struct {
	opts Options
	tel  telemetry.API

	mutex sync.Mutex
	pages []*Page
}

func New(opts Options, tel telemetry.API) *Browser {
	assert.NotNil(tel)

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Browser{
		opts: opts,
		tel:  telemetry.NewScopedAPI("htmlpage", tel),
	}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if b.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", b.opts.UserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(b.opts.Timeout)

	if b.opts.MinInterval > 0 {
		limiter := rate.NewLimiter(rate.Every(b.opts.MinInterval), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, b.tel)

	p := &Page{
		http: client,
		tel:  b.tel,
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *Browser) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var errs []error
	for _, p := range b.pages {
		errs = append(errs, p.Close())
	}
	b.pages = nil
	return errors.Join(errs...)
}

// Page is not safe for concurrent use.
type Page struct {
	http *resty.Client
	tel  telemetry.API

	url *url.URL
	doc *goquery.Document
	// generation is bumped on every navigation, elements from an older
	// generation are stale.
	generation int
	// typed holds the values typed into text controls.
	typed map[*html.Node]string
	// checked overrides the `checked` attribute of radios and checkboxes.
	checked map[*html.Node]bool
	// pending is the outcome of the last navigation started by an action.
	pending *navigation
	closed  bool
}

type navigation struct {
	err error
}

var errPageClosed = errors.New("page closed")

func (p *Page) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

func (p *Page) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.doc = nil
	p.typed = nil
	p.checked = nil
	p.http.GetClient().CloseIdleConnections()
	return nil
}

func (p *Page) Navigate(ctx context.Context, target string) error {
	if p.closed {
		return errPageClosed
	}
	p.pending = nil
	return p.load(ctx, http.MethodGet, target, nil)
}

func (p *Page) WaitForNavigation(ctx context.Context) error {
	if p.closed {
		return errPageClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", browser.ErrNavigationTimeout, err)
	}
	if p.pending == nil {
		return fmt.Errorf("%w: no navigation was started", browser.ErrNavigationTimeout)
	}
	nav := p.pending
	p.pending = nil
	return nav.err
}

func (p *Page) Find(ctx context.Context, selector string) (browser.Element, error) {
	if p.closed {
		return nil, errPageClosed
	}
	if p.doc == nil {
		return nil, fmt.Errorf("%w: %s (no document loaded)", browser.ErrElementNotFound, selector)
	}
	sel := p.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return p.element(sel.Nodes[0]), nil
}

func (p *Page) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if p.closed {
		return nil, errPageClosed
	}
	if p.doc == nil {
		return nil, nil
	}
	return p.elements(p.doc.Find(selector)), nil
}

func (p *Page) element(node *html.Node) *element {
	return &element{page: p, node: node, generation: p.generation}
}

func (p *Page) elements(sel *goquery.Selection) []browser.Element {
	out := make([]browser.Element, len(sel.Nodes))
	for i, n := range sel.Nodes {
		out[i] = p.element(n)
	}
	return out
}

func (p *Page) resolve(ref string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if p.url == nil {
		return target, nil
	}
	return p.url.ResolveReference(target), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// load performs a request and replaces the current document with the response.
func (p *Page) load(ctx context.Context, method, target string, form url.Values) error {
	link, err := p.resolve(target)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", target, err)
	}

	req := p.http.R().SetContext(ctx)
	switch method {
	case http.MethodPost:
		req.SetFormDataFromValues(form)
	default:
		if form != nil {
			link.RawQuery = form.Encode()
		}
	}

	res, err := req.Execute(method, link.String())
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s: %w", browser.ErrNavigationTimeout, method, link, err)
		}
		return fmt.Errorf("%s %s: %w", method, link, err)
	}
	if res.IsError() {
		p.tel.ReportWarning(report_page_load, method, link.String(), res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		p.tel.ReportBroken(report_page_load, fmt.Errorf("parse html: %w", err), link.String())
		return fmt.Errorf("parse %s: %w", link, err)
	}

	p.url = link
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		p.url = res.RawResponse.Request.URL
	}
	doc.Url = p.url
	p.doc = doc
	p.generation++
	p.typed = map[*html.Node]string{}
	p.checked = map[*html.Node]bool{}
	return nil
}

// startNavigation runs a navigation triggered by an action, its outcome is
// reported by the next WaitForNavigation.
func (p *Page) startNavigation(ctx context.Context, method, target string, form url.Values) {
	p.pending = &navigation{err: p.load(ctx, method, target, form)}
}
