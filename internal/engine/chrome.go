package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/session"
)

// CDP bindings installed on every document. Page scripts report through
// them; the adapter turns binding calls into engine events.
const (
	mutationBinding = "__revisitMutation"
	customBinding   = "__revisitCustom"
)

// bootstrapScript runs on every new document. It installs a MutationObserver
// feeding the mutation binding and publishes the completion hook custom
// ready conditions call.
const bootstrapScript = `(function() {
	if (window.__revisitObserved) return;
	window.__revisitObserved = true;
	var notify = function() {
		if (window.` + mutationBinding + `) { window.` + mutationBinding + `(''); }
	};
	var start = function() {
		var obs = new MutationObserver(notify);
		obs.observe(document.documentElement, {
			childList: true, subtree: true, attributes: true, characterData: true
		});
	};
	if (document.documentElement) { start(); } else {
		document.addEventListener('DOMContentLoaded', start);
	}
	window.__revisitComplete = function(payload) {
		if (window.` + customBinding + `) {
			window.` + customBinding + `(String(payload == null ? '' : payload));
		}
	};
})();`

// Chrome drives a Chrome instance over the DevTools protocol
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	opts Options
	cb   Callbacks
}

var _ Engine = (*Chrome)(nil)

// NewChrome launches (or attaches to) a Chrome instance and wires its CDP
// events into the given callbacks
func NewChrome(opts Options, cb Callbacks) (*Chrome, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if opts.RemoteURL != "" {
		logging.Info("Attaching to running Chrome at %s", opts.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		chromePath := opts.ChromePath
		if chromePath == "" {
			var err error
			chromePath, err = FindChrome()
			if err != nil {
				return nil, err
			}
		}
		logging.Info("Using Chrome from: %s", chromePath)

		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.ExecPath(chromePath),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		if !opts.Headless {
			logging.Info("Chrome will run in visible mode (headless=false)")
			execOpts = append(execOpts, chromedp.Flag("headless", false))
		}
		if opts.WindowW > 0 && opts.WindowH > 0 {
			execOpts = append(execOpts, chromedp.WindowSize(opts.WindowW, opts.WindowH))
		}
		if opts.UserAgent != "" {
			execOpts = append(execOpts, chromedp.UserAgent(opts.UserAgent))
		}
		if opts.DebugPort > 0 {
			execOpts = append(execOpts,
				chromedp.Flag("remote-debugging-port", strconv.Itoa(opts.DebugPort)),
				chromedp.Flag("remote-debugging-address", "127.0.0.1"),
			)
		}

		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	ctx, cancel := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(func(format string, v ...interface{}) {
			logging.Debug("[Chrome] "+format, v...)
		}),
	)

	c := &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		cb:          cb,
	}

	c.listen()

	// Start the browser and install the event plumbing
	if err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := cdpruntime.AddBinding(mutationBinding).Do(ctx); err != nil {
				return err
			}
			if err := cdpruntime.AddBinding(customBinding).Do(ctx); err != nil {
				return err
			}
			_, err := page.AddScriptToEvaluateOnNewDocument(bootstrapScript).Do(ctx)
			return err
		}),
	); err != nil {
		allocCancel()
		cancel()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}

	return c, nil
}

// listen routes CDP events to the registered callbacks
func (c *Chrome) listen() {
	chromedp.ListenTarget(c.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventFrameNavigated:
			// Only main-frame navigations restart the readiness cycle
			if ev.Frame.ParentID == "" && c.cb.OnNavigated != nil {
				c.cb.OnNavigated(ev.Frame.URL)
			}
		case *page.EventLoadEventFired:
			if c.cb.OnLoad != nil {
				c.cb.OnLoad()
			}
		case *network.EventRequestWillBeSent:
			if c.cb.OnNetwork != nil {
				c.cb.OnNetwork(+1)
			}
		case *network.EventLoadingFinished:
			if c.cb.OnNetwork != nil {
				c.cb.OnNetwork(-1)
			}
		case *network.EventLoadingFailed:
			if c.cb.OnNetwork != nil {
				c.cb.OnNetwork(-1)
			}
		case *cdpruntime.EventBindingCalled:
			switch ev.Name {
			case mutationBinding:
				if c.cb.OnDOMMutate != nil {
					c.cb.OnDOMMutate()
				}
			case customBinding:
				if c.cb.OnCustom != nil {
					c.cb.OnCustom(ev.Payload)
				}
			}
		}
	})
}

// Navigate navigates to a URL. Load completion is reported through the
// callbacks, not awaited here.
func (c *Chrome) Navigate(url string) error {
	err := chromedp.Run(c.ctx, chromedp.Navigate(url))
	if err != nil {
		if c.ctx.Err() != nil {
			return fmt.Errorf("Chrome context was cancelled")
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Evaluate runs a script and normalizes the result to a string. String
// results come back verbatim; everything else is the raw JSON text of the
// value, which callers parse when they expect structure.
func (c *Chrome) Evaluate(script string) (string, error) {
	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	var raw json.RawMessage
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		if strings.Contains(err.Error(), "undefined") {
			return "", nil
		}
		return "", fmt.Errorf("failed to evaluate script: %w", err)
	}

	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, nil
	}
	return string(raw), nil
}

// Click clicks an element
func (c *Chrome) Click(selector string) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// Fill clears a field and types a value into it
func (c *Chrome) Fill(selector, value string) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// Submit submits the form containing the element
func (c *Chrome) Submit(selector string) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Submit(selector, chromedp.ByQuery))
}

// SelectOption sets a select element's value and fires a change event
func (c *Chrome) SelectOption(selector, value string) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

// SetChecked checks or unchecks a checkbox or radio input
func (c *Chrome) SetChecked(selector string, checked bool) error {
	script := fmt.Sprintf(`(function(sel, checked) {
		var el = document.querySelector(sel);
		if (!el) return 'false';
		el.checked = checked;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return 'true';
	})(%s, %v)`, strconv.Quote(selector), checked)

	result, err := c.Evaluate(script)
	if err != nil {
		return err
	}
	if result != "true" {
		return fmt.Errorf("could not find element with selector: %s", selector)
	}
	return nil
}

// Focus focuses an element
func (c *Chrome) Focus(selector string) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Focus(selector, chromedp.ByQuery))
}

// WaitVisible waits for an element to become visible
func (c *Chrome) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitForNavigation waits until the page URL changes from its value at the
// time of the call
func (c *Chrome) WaitForNavigation(timeout time.Duration) error {
	start, err := c.CurrentURL()
	if err != nil {
		return fmt.Errorf("failed to get current page info: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		current, err := c.CurrentURL()
		if err == nil && current != start {
			return nil
		}
	}
	return fmt.Errorf("no navigation observed within %s", timeout)
}

// Cookies reads all cookies visible to the browser
func (c *Chrome) Cookies() ([]session.Cookie, error) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	var cookies []session.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, ck := range raw {
			cookies = append(cookies, session.Cookie{
				Name:     ck.Name,
				Value:    ck.Value,
				Domain:   ck.Domain,
				Path:     ck.Path,
				Expires:  int64(ck.Expires),
				Secure:   ck.Secure,
				HTTPOnly: ck.HTTPOnly,
				SameSite: string(ck.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

// SetCookies installs cookies into the browser
func (c *Chrome) SetCookies(cookies []session.Cookie) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		p := &network.CookieParam{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HTTPOnly,
		}
		if ck.SameSite != "" {
			p.SameSite = network.CookieSameSite(ck.SameSite)
		}
		if ck.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(ck.Expires, 0))
			p.Expires = &expires
		}
		params = append(params, p)
	}

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

// SetViewport emulates a viewport size
func (c *Chrome) SetViewport(width, height int) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// CurrentURL returns the page URL
func (c *Chrome) CurrentURL() (string, error) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to get current page info: %w", err)
	}
	return url, nil
}

// Title returns the page title
func (c *Chrome) Title() (string, error) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	var title string
	if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to get page title: %w", err)
	}
	return title, nil
}

// UserAgent reports the browser's user agent string
func (c *Chrome) UserAgent() (string, error) {
	return c.Evaluate("navigator.userAgent")
}

// PageHTML returns the serialized document
func (c *Chrome) PageHTML() (string, error) {
	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

// Close shuts the browser down and releases resources
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}
