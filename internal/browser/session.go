package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
)

// ErrWaitTimeout reports that a required page element never became available
// within the configured wait timeout. Crawlers treat this as fatal for the
// browsing window being extracted.
var ErrWaitTimeout = errors.New("timed out waiting for page element")

// Session drives one headless Chrome instance through chromedp. A Session is
// not safe for concurrent use; callers own exactly one session per
// discovery-and-enrichment pass and must Close it on every exit path.
type Session struct {
	ctx             context.Context
	cancel          context.CancelFunc
	allocatorCancel context.CancelFunc
	config          common.BrowserConfig
	logger          arbor.ILogger
	closeOnce       sync.Once
}

var _ interfaces.BrowserSession = (*Session)(nil)

// Factory creates chromedp sessions from a shared configuration.
type Factory struct {
	config common.BrowserConfig
	logger arbor.ILogger
}

var _ interfaces.BrowserFactory = (*Factory)(nil)

// NewFactory creates a browser session factory.
func NewFactory(config common.BrowserConfig, logger arbor.ILogger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// NewSession starts a fresh browser instance and verifies it responds.
func (f *Factory) NewSession(ctx context.Context) (interfaces.BrowserSession, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.config.Headless),
		chromedp.Flag("no-sandbox", f.config.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test: a browser that cannot reach about:blank is unusable.
	startupCtx, startupCancel := context.WithTimeout(browserCtx, f.config.WaitTimeout)
	defer startupCancel()

	if err := chromedp.Run(startupCtx,
		emulation.SetDeviceMetricsOverride(int64(f.config.WindowWidth), int64(f.config.WindowHigh), 1, false),
		chromedp.Navigate("about:blank"),
	); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser instance failed startup test: %w", err)
	}

	f.logger.Debug().
		Bool("headless", f.config.Headless).
		Str("wait_timeout", f.config.WaitTimeout.String()).
		Msg("Browser session started")

	return &Session{
		ctx:             browserCtx,
		cancel:          browserCancel,
		allocatorCancel: allocatorCancel,
		config:          f.config,
		logger:          f.logger,
	}, nil
}

// Navigate loads a URL and waits for the document to finish loading.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitVisible blocks until the selector matches a visible element. A timeout
// surfaces as ErrWaitTimeout so crawlers can classify it.
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	waitCtx, cancel := context.WithTimeout(s.ctx, s.config.WaitTimeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
		}
		return fmt.Errorf("failed waiting for %s: %w", selector, err)
	}
	return nil
}

// OuterHTML returns the serialized markup of the first matching element.
func (s *Session) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", selector, err)
	}
	return html, nil
}

// Text returns the trimmed inner text of the first matching element.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Click scrolls the first matching element into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// SendKeys types a value into the first matching input.
func (s *Session) SendKeys(ctx context.Context, selector, value string) error {
	if err := s.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

// SetSelectValue selects an option by value and dispatches the change event,
// which the chamber pages rely on to reload their result tables.
func (s *Session) SetSelectValue(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); el.value = %q; el.dispatchEvent(new Event('change', {bubbles: true})); })()`,
		selector, value,
	)
	if err := s.run(ctx,
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(script, nil),
	); err != nil {
		return fmt.Errorf("failed to select %s on %s: %w", value, selector, err)
	}
	return nil
}

// AttributeValue reads an attribute from the first matching element.
func (s *Session) AttributeValue(ctx context.Context, selector, attribute string) (string, bool, error) {
	var value string
	var ok bool
	if err := s.run(ctx, chromedp.AttributeValue(selector, attribute, &value, &ok, chromedp.ByQuery)); err != nil {
		return "", false, fmt.Errorf("failed to read %s of %s: %w", attribute, selector, err)
	}
	return value, ok, nil
}

// Exists reports whether any element currently matches the selector.
func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var exists bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	if err := s.run(ctx, chromedp.Evaluate(script, &exists)); err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", selector, err)
	}
	return exists, nil
}

// ExistsText reports whether an element matching the selector contains the
// given text fragment.
func (s *Session) ExistsText(ctx context.Context, selector, contains string) (bool, error) {
	var exists bool
	script := fmt.Sprintf(
		`[...document.querySelectorAll(%q)].some(e => e.textContent.includes(%q))`,
		selector, contains,
	)
	if err := s.run(ctx, chromedp.Evaluate(script, &exists)); err != nil {
		return false, fmt.Errorf("failed to probe %s for %q: %w", selector, contains, err)
	}
	return exists, nil
}

// ClickText polls for an element matching the selector whose text contains
// the fragment, then clicks it. A timeout surfaces as ErrWaitTimeout.
func (s *Session) ClickText(ctx context.Context, selector, contains string) error {
	script := fmt.Sprintf(`(() => {
		const el = [...document.querySelectorAll(%q)].find(e => e.textContent.includes(%q));
		if (!el) { return false; }
		el.scrollIntoView();
		el.click();
		return true;
	})()`, selector, contains)

	pollCtx, cancel := context.WithTimeout(s.ctx, s.config.WaitTimeout)
	defer cancel()

	err := chromedp.Run(pollCtx, chromedp.Poll(script, nil, chromedp.WithPollingInterval(250*time.Millisecond)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("%w: %s containing %q", ErrWaitTimeout, selector, contains)
		}
		return fmt.Errorf("failed to click %s containing %q: %w", selector, contains, err)
	}
	return nil
}

// ClickNth clicks the element at the given index among the selector's
// matches.
func (s *Session) ClickNth(ctx context.Context, selector string, index int) error {
	var clicked bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) { return false; }
		el.scrollIntoView();
		el.click();
		return true;
	})()`, selector, index)

	if err := s.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("failed to click %s[%d]: %w", selector, index, err)
	}
	if !clicked {
		return fmt.Errorf("no element at %s[%d]", selector, index)
	}
	return nil
}

// FillNearLabel sets the value of the form control in the table cell
// following the cell whose text contains the label. The media portals label
// their search form by cell text, with no stable ids on the controls.
func (s *Session) FillNearLabel(ctx context.Context, label, value string) error {
	script := fmt.Sprintf(`(() => {
		const td = [...document.querySelectorAll('td')].find(e => e.textContent.includes(%q));
		if (!td || !td.nextElementSibling) { return false; }
		const ctl = td.nextElementSibling.querySelector('input, select');
		if (!ctl) { return false; }
		ctl.value = %q;
		ctl.dispatchEvent(new Event('input', {bubbles: true}));
		ctl.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, label, value)

	pollCtx, cancel := context.WithTimeout(s.ctx, s.config.WaitTimeout)
	defer cancel()

	err := chromedp.Run(pollCtx, chromedp.Poll(script, nil, chromedp.WithPollingInterval(250*time.Millisecond)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("%w: control near label %q", ErrWaitTimeout, label)
		}
		return fmt.Errorf("failed to fill control near label %q: %w", label, err)
	}
	return nil
}

// HTMLNearLabel returns the markup of the form control in the table cell
// following the cell whose text contains the label.
func (s *Session) HTMLNearLabel(ctx context.Context, label string) (string, error) {
	var html string
	script := fmt.Sprintf(`(() => {
		const td = [...document.querySelectorAll('td')].find(e => e.textContent.includes(%q));
		if (!td || !td.nextElementSibling) { return ''; }
		const ctl = td.nextElementSibling.querySelector('input, select');
		return ctl ? ctl.outerHTML : '';
	})()`, label)

	if err := s.run(ctx, chromedp.Evaluate(script, &html)); err != nil {
		return "", fmt.Errorf("failed to read control near label %q: %w", label, err)
	}
	if html == "" {
		return "", fmt.Errorf("%w: control near label %q", ErrWaitTimeout, label)
	}
	return html, nil
}

// Close shuts down the browser instance. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.allocatorCancel()
		s.logger.Debug().Msg("Browser session closed")
	})
	return nil
}

// run executes chromedp actions against the session's browser context,
// honoring cancellation of the caller's context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
