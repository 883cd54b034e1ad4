package state

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciciliostudio/revisit/internal/readiness"
	"github.com/ciciliostudio/revisit/internal/session"
	"github.com/ciciliostudio/revisit/internal/wait"
)

// fakeEngine scripts the page engine for both capture and restore paths
type fakeEngine struct {
	url       string
	userAgent string
	html      string
	cookies   []session.Cookie

	urlErr error

	// log of everything the core asked for, in order
	ops []string

	setCookies []session.Cookie
	viewportW  int
	viewportH  int
	focused    []string

	respond func(script string) (string, error)
}

func (f *fakeEngine) Navigate(url string) error {
	f.ops = append(f.ops, "navigate "+url)
	return nil
}

func (f *fakeEngine) Evaluate(script string) (string, error) {
	f.ops = append(f.ops, "eval "+script)
	if f.respond != nil {
		return f.respond(script)
	}
	return "", nil
}

func (f *fakeEngine) Cookies() ([]session.Cookie, error) {
	return f.cookies, nil
}

func (f *fakeEngine) SetCookies(cookies []session.Cookie) error {
	f.ops = append(f.ops, "set-cookies")
	f.setCookies = cookies
	return nil
}

func (f *fakeEngine) SetViewport(w, h int) error {
	f.viewportW, f.viewportH = w, h
	return nil
}

func (f *fakeEngine) CurrentURL() (string, error) {
	return f.url, f.urlErr
}

func (f *fakeEngine) UserAgent() (string, error) {
	return f.userAgent, nil
}

func (f *fakeEngine) PageHTML() (string, error) {
	return f.html, nil
}

func (f *fakeEngine) Focus(selector string) error {
	f.focused = append(f.focused, selector)
	return nil
}

func newReadyEngine(eng *fakeEngine) *readiness.Engine {
	return readiness.NewEngine(wait.NewBridge(10*time.Millisecond), eng, readiness.Options{
		LoadTimeout:      100 * time.Millisecond,
		DOMQuiet:         10 * time.Millisecond,
		NetworkIdle:      10 * time.Millisecond,
		SettleDelay:      1 * time.Millisecond,
		ConditionTimeout: 100 * time.Millisecond,
	})
}

func captureResponses(script string) (string, error) {
	switch {
	case script == "document.readyState":
		return "complete", nil
	case strings.Contains(script, "localStorage.length"):
		return `{"theme": "dark"}`, nil
	case strings.Contains(script, "sessionStorage.length"):
		return `{"draft": "hello"}`, nil
	case strings.Contains(script, "querySelectorAll('input"):
		return `[{"selector": "#email", "name": "email", "id": "email", "type": "text", "value": "a@b.c", "checked": false}]`, nil
	case strings.Contains(script, "activeElement"):
		return "#email", nil
	case strings.Contains(script, "window.scrollX"):
		return `{"x": 0, "y": 312}`, nil
	case strings.Contains(script, "scrollLeft"):
		return `{"x": 12, "y": 480}`, nil
	case strings.Contains(script, "cart-item"):
		return "3", nil
	case strings.Contains(script, "profile"):
		return `{"plan": "pro"}`, nil
	default:
		return "", nil
	}
}

func TestExtractor_Capture(t *testing.T) {
	eng := &fakeEngine{
		url:       "https://example.com/dashboard",
		userAgent: "Mozilla/5.0 test",
		html:      "<html><body>hi</body></html>",
		cookies: []session.Cookie{
			{Name: "sid", Domain: "example.com", Path: "/", Value: "abc"},
		},
		respond: captureResponses,
	}

	rec := session.NewRecord("cap")
	rec.SetExtractor("cart_count", "document.querySelectorAll('.cart-item').length")
	rec.SetExtractor("profile", "JSON.stringify(window.profile)")

	ex := NewExtractor(eng, newReadyEngine(eng), 200*time.Millisecond)
	require.NoError(t, ex.Capture(rec))

	assert.Equal(t, "https://example.com/dashboard", rec.CurrentURL)
	assert.Equal(t, []string{"https://example.com/dashboard"}, rec.History)
	assert.Equal(t, "complete", rec.DocumentReadyState)
	require.Len(t, rec.Cookies, 1)
	assert.Equal(t, "abc", rec.Cookies[0].Value)
	assert.Equal(t, map[string]string{"theme": "dark"}, rec.LocalStorage)
	assert.Equal(t, map[string]string{"draft": "hello"}, rec.SessionStorage)
	require.Len(t, rec.FormFields, 1)
	assert.Equal(t, "#email", rec.FormFields[0].Selector)
	assert.Equal(t, []string{"#email"}, rec.ActiveElements)
	assert.Equal(t, session.ScrollPosition{X: 0, Y: 312}, rec.ScrollPosition["window"])
	assert.NotEmpty(t, rec.PageHash)
	assert.Equal(t, "Mozilla/5.0 test", rec.UserAgent)

	// Numeric extractor result parses as JSON, object extractor stays structured
	assert.Equal(t, float64(3), rec.ExtractedState["cart_count"])
	assert.Equal(t, map[string]interface{}{"plan": "pro"}, rec.ExtractedState["profile"])
}

func TestExtractor_Capture_IdempotentHistory(t *testing.T) {
	eng := &fakeEngine{url: "https://example.com/a", respond: captureResponses}
	rec := session.NewRecord("cap")

	ex := NewExtractor(eng, newReadyEngine(eng), 100*time.Millisecond)
	require.NoError(t, ex.Capture(rec))
	require.NoError(t, ex.Capture(rec))

	// Capturing the same page twice must not duplicate history
	assert.Equal(t, []string{"https://example.com/a"}, rec.History)
}

func TestExtractor_Capture_RefreshesTrackedElementScroll(t *testing.T) {
	eng := &fakeEngine{url: "https://example.com/a", respond: captureResponses}

	// A seeded entry marks the element as tracked; capture refreshes it
	rec := session.NewRecord("cap")
	rec.SetScroll("#sidebar", 0, 0)

	ex := NewExtractor(eng, newReadyEngine(eng), 100*time.Millisecond)
	require.NoError(t, ex.Capture(rec))

	assert.Equal(t, session.ScrollPosition{X: 12, Y: 480}, rec.ScrollPosition["#sidebar"])
	assert.Equal(t, session.ScrollPosition{X: 0, Y: 312}, rec.ScrollPosition["window"])
}

func TestExtractor_Capture_URLFailureIsFatal(t *testing.T) {
	eng := &fakeEngine{urlErr: errors.New("target closed")}
	rec := session.NewRecord("cap")

	ex := NewExtractor(eng, newReadyEngine(eng), 50*time.Millisecond)
	err := ex.Capture(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current url")
}

func TestRestorer_Apply(t *testing.T) {
	eng := &fakeEngine{respond: func(script string) (string, error) {
		if script == "document.readyState" {
			return "complete", nil
		}
		return "true", nil
	}}

	rec := session.NewRecord("res")
	rec.PushHistory("https://example.com/dashboard")
	rec.SetCookie(session.Cookie{Name: "sid", Domain: "example.com", Path: "/", Value: "abc"})
	rec.LocalStorage["theme"] = "dark"
	rec.FormFields = []session.FormField{{Selector: "#email", Value: "a@b.c"}}
	rec.AddActiveElement("#email")
	rec.SetScroll("window", 0, 100)
	rec.Viewport = session.Viewport{Width: 1280, Height: 800}
	rec.SetVariable("user", "alice")

	res := NewRestorer(eng, newReadyEngine(eng))
	require.NoError(t, res.Apply(rec))

	assert.Equal(t, 1280, eng.viewportW)
	require.Len(t, eng.setCookies, 1)
	assert.Equal(t, []string{"#email"}, eng.focused)

	// Cookies must be installed before navigation
	var cookieIdx, navIdx int
	for i, op := range eng.ops {
		if op == "set-cookies" {
			cookieIdx = i
		}
		if strings.HasPrefix(op, "navigate ") {
			navIdx = i
		}
	}
	assert.Less(t, cookieIdx, navIdx, "cookies should be set before navigating")

	var sawStorage, sawField, sawScroll, sawVars bool
	for _, op := range eng.ops {
		if strings.Contains(op, "localStorage.setItem") || strings.Contains(op, "localStorage") && strings.Contains(op, "theme") {
			sawStorage = true
		}
		if strings.Contains(op, "dispatchEvent") {
			sawField = true
		}
		if strings.Contains(op, "scrollTo") {
			sawScroll = true
		}
		if strings.Contains(op, "__revisitVars") {
			sawVars = true
		}
	}
	assert.True(t, sawStorage, "localStorage restore script should run")
	assert.True(t, sawField, "form field restore script should run")
	assert.True(t, sawScroll, "scroll restore script should run")
	assert.True(t, sawVars, "custom variable script should run")
}

func TestRestorer_Apply_RejectsInvalidURL(t *testing.T) {
	eng := &fakeEngine{}
	rec := session.NewRecord("res")
	rec.CurrentURL = "javascript:alert(1)"

	res := NewRestorer(eng, newReadyEngine(eng))
	err := res.Apply(rec)
	require.Error(t, err)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Empty(t, eng.ops, "nothing must reach the engine on validation failure")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://example.com", true},
		{"http://localhost:3000/app", true},
		{"file:///tmp/page.html", true},
		{"about:blank", true},
		{"", false},
		{"javascript:alert(1)", false},
		{"ftp://example.com", false},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.ok {
			assert.NoError(t, err, tt.url)
		} else {
			assert.Error(t, err, tt.url)
		}
	}
}

func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector("#app .item"))
	assert.Error(t, ValidateSelector(""))
	assert.Error(t, ValidateSelector("   "))
	assert.Error(t, ValidateSelector("#a\n#b"))
}
