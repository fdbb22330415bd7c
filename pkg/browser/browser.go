package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"IPOPulse/pkg/logger"
)

// blockedResources are the resource classes never worth downloading for
// table extraction.
var blockedResources = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeMedia:      true,
}

// Fetcher renders JavaScript-driven pages in an isolated headless
// browser instance per call. Instances are expensive (one OS process
// each); callers bound concurrent use themselves.
type Fetcher struct {
	timeout time.Duration
	log     *logger.Logger
}

type Option func(*Fetcher)

func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }
func WithLogger(l *logger.Logger) Option { return func(f *Fetcher) { f.log = l } }

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: 30 * time.Second,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Render navigates to url in a fresh browser, waits best-effort for
// waitSelector (a missing element is logged, not fatal), and returns
// the fully rendered document. The browser is torn down on every exit
// path via the deferred cancels, including navigation failure.
func (f *Fetcher) Render(ctx context.Context, url, waitSelector string) (*goquery.Document, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	runCtx, runCancel := context.WithTimeout(tabCtx, f.timeout)
	defer runCancel()

	f.blockResources(runCtx)

	var html string
	tasks := chromedp.Tasks{
		cdpfetch.Enable(),
		chromedp.Navigate(url),
	}
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if waitSelector != "" {
		waitCtx, waitCancel := context.WithTimeout(runCtx, 10*time.Second)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		waitCancel()
		if err != nil {
			f.log.Warn("wait selector did not appear",
				logger.String("url", url),
				logger.String("selector", waitSelector),
				logger.Error(err),
			)
		}
	}

	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("extract html from %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered document from %s: %w", url, err)
	}
	return doc, nil
}

// blockResources fails paused requests for blocked resource classes and
// continues the rest.
func (f *Fetcher) blockResources(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(ctx)
			ectx := cdp.WithExecutor(ctx, c.Target)
			if blockedResources[e.ResourceType] {
				_ = cdpfetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ectx)
				return
			}
			_ = cdpfetch.ContinueRequest(e.RequestID).Do(ectx)
		}()
	})
}
