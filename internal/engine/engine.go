// Package engine wraps the external rendering engine behind a typed
// interface. The core never owns the engine's event loop; it issues script
// strings and primitive operations and consumes typed results and events.
package engine

import (
	"time"

	"github.com/ciciliostudio/revisit/internal/session"
)

// Callbacks receives engine events. The struct is passed explicitly at
// construction so no callback ever needs to look its owner up through
// type-erased attachments. Nil members are skipped.
type Callbacks struct {
	OnNavigated func(url string)
	OnLoad      func()
	OnDOMMutate func()
	OnNetwork   func(delta int)
	OnCustom    func(payload string)
}

// Engine is the complete operation surface the core drives. The chromedp
// adapter implements it; tests substitute fakes for the slices they need.
type Engine interface {
	Navigate(url string) error
	Evaluate(script string) (string, error)

	Click(selector string) error
	Fill(selector, value string) error
	Submit(selector string) error
	SelectOption(selector, value string) error
	SetChecked(selector string, checked bool) error
	Focus(selector string) error
	WaitVisible(selector string, timeout time.Duration) error
	WaitForNavigation(timeout time.Duration) error

	Cookies() ([]session.Cookie, error)
	SetCookies(cookies []session.Cookie) error
	SetViewport(width, height int) error
	CurrentURL() (string, error)
	Title() (string, error)
	UserAgent() (string, error)
	PageHTML() (string, error)

	Close() error
}

// Options configures the chrome adapter
type Options struct {
	Headless   bool
	ChromePath string // autodetected when empty
	UserAgent  string
	WindowW    int
	WindowH    int
	DebugPort  int    // remote debugging port exposed by the launched browser
	RemoteURL  string // websocket debugger URL; attach instead of launching
}
