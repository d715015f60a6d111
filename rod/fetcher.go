// Package rod provides the rendered-mode implementation of
// eventscrape.Fetcher using Chrome browser automation.
package rod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/eventscrape"
	"github.com/fwojciec/eventscrape/scrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Defaults for the rendered fetcher.
const (
	DefaultNavTimeout       = 45 * time.Second
	DefaultMaxRetries       = 2
	DefaultRetryDelay       = time.Second
	DefaultSettleDelay      = 2 * time.Second
	DefaultSelectorTimeout  = 5 * time.Second
	DefaultMinContentLength = 64
	DefaultViewportWidth    = 1920
	DefaultViewportHeight   = 1080
	DefaultUserAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultLocale           = "en-US"
	DefaultTimezone         = "America/New_York"
)

// stealthScript masks the properties that most readily reveal automated
// control. It runs before any page script.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => false });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'MacIntel' });
`

// Ensure Fetcher implements eventscrape.Fetcher at compile time.
var _ eventscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Every fetch attempt launches an isolated browser that is torn down when the
// attempt finishes, whatever its outcome; sessions are never pooled or shared
// across attempts. Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	navTimeout       time.Duration
	maxRetries       int
	retryDelay       time.Duration
	settleDelay      time.Duration
	selectorTimeout  time.Duration
	minContentLength int
	viewportWidth    int
	viewportHeight   int
	userAgent        string
	locale           string
	timezone         string
	scrollToBottom   bool
	consentSelectors []string
	requiredSels     []string
	blockedSels      []string
	blockedText      []string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithNavTimeout bounds a single attempt, navigation included.
func WithNavTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.navTimeout = d }
}

// WithMaxRetries sets how many times a failed attempt is repeated.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithRetryDelay sets the base delay of the linearly increasing backoff.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.retryDelay = d }
}

// WithSettleDelay sets the extra wait after network quiescence, allowing
// late-arriving dynamic content to land.
func WithSettleDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.settleDelay = d }
}

// WithViewport overrides the default 1920x1080 viewport.
func WithViewport(width, height int) Option {
	return func(f *Fetcher) {
		f.viewportWidth = width
		f.viewportHeight = height
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithLocale overrides the Accept-Language locale.
func WithLocale(locale string) Option {
	return func(f *Fetcher) { f.locale = locale }
}

// WithTimezone overrides the emulated timezone.
func WithTimezone(tz string) Option {
	return func(f *Fetcher) { f.timezone = tz }
}

// WithScrollToBottom scrolls the page to the bottom before reading it,
// triggering lazy-loaded content.
func WithScrollToBottom() Option {
	return func(f *Fetcher) { f.scrollToBottom = true }
}

// WithCookieConsentSelectors clicks the first matching element before
// extraction, best-effort; failures are swallowed.
func WithCookieConsentSelectors(selectors ...string) Option {
	return func(f *Fetcher) { f.consentSelectors = selectors }
}

// WithRequiredSelectors fails the attempt unless every selector appears
// within the selector timeout.
func WithRequiredSelectors(selectors ...string) Option {
	return func(f *Fetcher) { f.requiredSels = selectors }
}

// WithBlockedSelectors fails the attempt immediately, without further
// retries, when any selector is present on the page.
func WithBlockedSelectors(selectors ...string) Option {
	return func(f *Fetcher) { f.blockedSels = selectors }
}

// WithBlockedTextFragments fails the attempt immediately when the rendered
// HTML contains any of the fragments.
func WithBlockedTextFragments(fragments ...string) Option {
	return func(f *Fetcher) { f.blockedText = fragments }
}

// WithSelectorTimeout bounds the wait for required selectors.
func WithSelectorTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.selectorTimeout = d }
}

// WithMinContentLength sets the stripped-length threshold below which the
// rendered page counts as suspiciously empty.
func WithMinContentLength(n int) Option {
	return func(f *Fetcher) { f.minContentLength = n }
}

// NewFetcher creates a new rendered-mode Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		navTimeout:       DefaultNavTimeout,
		maxRetries:       DefaultMaxRetries,
		retryDelay:       DefaultRetryDelay,
		settleDelay:      DefaultSettleDelay,
		selectorTimeout:  DefaultSelectorTimeout,
		minContentLength: DefaultMinContentLength,
		viewportWidth:    DefaultViewportWidth,
		viewportHeight:   DefaultViewportHeight,
		userAgent:        DefaultUserAgent,
		locale:           DefaultLocale,
		timezone:         DefaultTimezone,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch navigates to the URL in a fresh browser and returns the rendered
// HTML, retrying failed attempts with linearly increasing backoff. A blocked
// signal aborts the retry loop immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var html string
	err := scrape.Do(ctx, f.maxRetries+1, scrape.LinearBackoff(f.retryDelay), scrape.Retryable,
		func(ctx context.Context, attempt int) error {
			var attemptErr error
			html, attemptErr = f.fetchOnce(ctx, url, attempt)
			return attemptErr
		})
	if err != nil {
		return "", err
	}
	return html, nil
}

// Close releases resources. Sessions live only within a single attempt, so
// there is nothing to release here.
func (f *Fetcher) Close() error {
	return nil
}

// session is one isolated browser lifetime. close releases the page, the
// browser connection, and the launched process, and is safe to call exactly
// once on every attempt exit path.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *session) close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, attempt int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.navTimeout)
	defer cancel()

	sess, err := f.launch(ctx)
	if err != nil {
		return "", renderErr(url, attempt, "launching browser: %v", err)
	}
	defer sess.close()

	if err := f.preparePage(sess.page); err != nil {
		return "", renderErr(url, attempt, "preparing page: %v", err)
	}

	if err := sess.page.Navigate(url); err != nil {
		return "", renderErr(url, attempt, "navigating: %v", err)
	}
	if err := sess.page.WaitLoad(); err != nil {
		return "", renderErr(url, attempt, "waiting for load: %v", err)
	}

	// Wait for the network to go quiescent, then give late dynamic content
	// a bounded chance to arrive.
	wait := sess.page.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	wait()
	if err := sleepCtx(ctx, f.settleDelay); err != nil {
		return "", renderErr(url, attempt, "settle wait: %v", err)
	}

	f.acceptCookieConsent(sess.page)

	if f.scrollToBottom {
		// Best-effort; a page without a body still renders.
		_, _ = sess.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	}

	if err := f.waitRequiredSelectors(sess.page, url, attempt); err != nil {
		return "", err
	}
	if err := f.checkBlockedSelectors(sess.page, url, attempt); err != nil {
		return "", err
	}

	html, err := sess.page.HTML()
	if err != nil {
		return "", renderErr(url, attempt, "reading rendered HTML: %v", err)
	}

	if err := f.checkBlockedText(html, url, attempt); err != nil {
		return "", err
	}

	if len(strings.TrimSpace(html)) < f.minContentLength {
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindContentTooShort,
			URL:     url,
			Attempt: attempt,
			Message: fmt.Sprintf("rendered content shorter than %d characters", f.minContentLength),
		}
	}

	return html, nil
}

// launch starts an isolated browser and opens a blank page bound to ctx.
func (f *Fetcher) launch(ctx context.Context) (*session, error) {
	lnchr := launcher.New().
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		lnchr.Kill()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	return &session{launcher: lnchr, browser: browser, page: page.Context(ctx)}, nil
}

// preparePage applies the viewport, identity overrides, and the stealth
// script before navigation.
func (f *Fetcher) preparePage(page *rod.Page) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.viewportWidth,
		Height:            f.viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return err
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      f.userAgent,
		AcceptLanguage: f.locale + ",en;q=0.9",
		Platform:       "MacIntel",
	}); err != nil {
		return err
	}

	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: f.timezone}).Call(page); err != nil {
		return err
	}

	_, err := proto.PageAddScriptToEvaluateOnNewDocument{Source: stealthScript}.Call(page)
	return err
}

// acceptCookieConsent clicks the first matching consent element. Best-effort:
// every failure is swallowed.
func (f *Fetcher) acceptCookieConsent(page *rod.Page) {
	for _, sel := range f.consentSelectors {
		has, el, err := page.Has(sel)
		if err != nil || !has {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return
		}
	}
}

func (f *Fetcher) waitRequiredSelectors(page *rod.Page, url string, attempt int) error {
	for _, sel := range f.requiredSels {
		if _, err := page.Timeout(f.selectorTimeout).Element(sel); err != nil {
			return renderErr(url, attempt, "required selector %q did not appear: %v", sel, err)
		}
	}
	return nil
}

func (f *Fetcher) checkBlockedSelectors(page *rod.Page, url string, attempt int) error {
	for _, sel := range f.blockedSels {
		has, _, err := page.Has(sel)
		if err != nil {
			continue
		}
		if has {
			return &eventscrape.FetchError{
				Kind:    eventscrape.KindBlocked,
				URL:     url,
				Attempt: attempt,
				Message: fmt.Sprintf("blocked element %q present", sel),
			}
		}
	}
	return nil
}

func (f *Fetcher) checkBlockedText(html, url string, attempt int) error {
	lower := strings.ToLower(html)
	for _, frag := range f.blockedText {
		if strings.Contains(lower, strings.ToLower(frag)) {
			return &eventscrape.FetchError{
				Kind:    eventscrape.KindBlocked,
				URL:     url,
				Attempt: attempt,
				Message: fmt.Sprintf("blocked text fragment %q present", frag),
			}
		}
	}
	return nil
}

func renderErr(url string, attempt int, format string, args ...any) *eventscrape.FetchError {
	return &eventscrape.FetchError{
		Kind:    eventscrape.KindRender,
		URL:     url,
		Attempt: attempt,
		Message: fmt.Sprintf(format, args...),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
