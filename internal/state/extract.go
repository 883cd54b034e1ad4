// Package state maps session records onto live pages in both directions: an
// Extractor issues script evaluations to pull browser-visible state into a
// record, a Restorer issues them to push a record's state back into a page.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/readiness"
	"github.com/ciciliostudio/revisit/internal/session"
)

// Engine is the slice of the page engine this package needs
type Engine interface {
	Navigate(url string) error
	Evaluate(script string) (string, error)
	Cookies() ([]session.Cookie, error)
	SetCookies(cookies []session.Cookie) error
	SetViewport(width, height int) error
	CurrentURL() (string, error)
	UserAgent() (string, error)
	PageHTML() (string, error)
	Focus(selector string) error
}

// Extractor pulls browser-visible state out of a live page into a record
type Extractor struct {
	engine  Engine
	ready   *readiness.Engine
	quiesce time.Duration // how long to wait for a quiet page before capture
}

// NewExtractor creates an extractor. quiesce bounds the pre-capture wait for
// a stable DOM and idle network.
func NewExtractor(engine Engine, ready *readiness.Engine, quiesce time.Duration) *Extractor {
	if quiesce <= 0 {
		quiesce = 3 * time.Second
	}
	return &Extractor{engine: engine, ready: ready, quiesce: quiesce}
}

// Capture reads every resumable field from the live page into the record.
// Field-level failures degrade gracefully: the field keeps its previous
// value and a warning is logged. Only losing the page itself is an error.
func (e *Extractor) Capture(rec *session.Record) error {
	if !e.ready.WaitForQuiescence(e.quiesce) {
		logging.Warn("Page did not settle within %s before capture, capturing anyway", e.quiesce)
	}

	url, err := e.engine.CurrentURL()
	if err != nil {
		return fmt.Errorf("failed to read current url: %w", err)
	}
	if url != "" && url != rec.CurrentURL {
		rec.PushHistory(url)
	}

	if state, err := e.engine.Evaluate(scriptReadyState); err == nil {
		rec.DocumentReadyState = state
	} else {
		logging.Warn("Could not read document.readyState: %v", err)
	}

	if cookies, err := e.engine.Cookies(); err == nil {
		rec.Cookies = nil
		for _, c := range cookies {
			rec.SetCookie(c)
		}
	} else {
		logging.Warn("Could not capture cookies: %v", err)
	}

	e.captureStorage(rec)
	e.captureFormFields(rec)
	e.captureActiveElement(rec)
	e.captureScroll(rec)
	e.capturePageHash(rec)

	if ua, err := e.engine.UserAgent(); err == nil && ua != "" {
		rec.UserAgent = ua
	}

	e.runExtractors(rec)

	rec.Touch()
	return nil
}

func (e *Extractor) captureStorage(rec *session.Record) {
	if m, err := e.evaluateStringMap(scriptLocalStorage); err == nil {
		rec.LocalStorage = m
	} else {
		logging.Warn("Could not capture localStorage: %v", err)
	}

	if m, err := e.evaluateStringMap(scriptSessionStorage); err == nil {
		rec.SessionStorage = m
	} else {
		logging.Warn("Could not capture sessionStorage: %v", err)
	}
}

func (e *Extractor) captureFormFields(rec *session.Record) {
	raw, err := e.engine.Evaluate(scriptFormFields)
	if err != nil {
		logging.Warn("Could not capture form fields: %v", err)
		return
	}

	var fields []session.FormField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		logging.Warn("Form field payload was not valid JSON: %v", err)
		return
	}
	rec.FormFields = fields
}

func (e *Extractor) captureActiveElement(rec *session.Record) {
	selector, err := e.engine.Evaluate(scriptActiveElement)
	if err != nil {
		logging.Warn("Could not capture active element: %v", err)
		return
	}

	rec.ActiveElements = nil
	if selector != "" {
		rec.AddActiveElement(selector)
	}
}

func (e *Extractor) captureScroll(rec *session.Record) {
	if raw, err := e.engine.Evaluate(scriptWindowScroll); err == nil {
		var pos session.ScrollPosition
		if json.Unmarshal([]byte(raw), &pos) == nil {
			rec.SetScroll("window", pos.X, pos.Y)
		}
	} else {
		logging.Warn("Could not capture window scroll: %v", err)
	}

	// Refresh offsets for every element selector already tracked
	for selector := range rec.ScrollPosition {
		if selector == "window" {
			continue
		}
		script := fmt.Sprintf(scriptElementScroll, strconv.Quote(selector))
		raw, err := e.engine.Evaluate(script)
		if err != nil || raw == "" {
			continue
		}
		var pos session.ScrollPosition
		if json.Unmarshal([]byte(raw), &pos) == nil {
			rec.SetScroll(selector, pos.X, pos.Y)
		}
	}
}

func (e *Extractor) capturePageHash(rec *session.Record) {
	html, err := e.engine.PageHTML()
	if err != nil {
		logging.Warn("Could not capture page HTML for hashing: %v", err)
		return
	}
	sum := sha256.Sum256([]byte(html))
	rec.PageHash = fmt.Sprintf("%x", sum[:8])
}

// runExtractors evaluates each registered state extractor. Results that
// parse as JSON are stored structured; everything else is kept as the raw
// string.
func (e *Extractor) runExtractors(rec *session.Record) {
	names := make([]string, 0, len(rec.StateExtractors))
	for name := range rec.StateExtractors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		script := rec.StateExtractors[name]
		if err := ValidateScript(script); err != nil {
			logging.Warn("State extractor %q skipped: %v", name, err)
			continue
		}

		raw, err := e.engine.Evaluate(script)
		if err != nil {
			logging.Warn("State extractor %q failed: %v", name, err)
			continue
		}

		var structured interface{}
		if json.Unmarshal([]byte(raw), &structured) == nil {
			rec.ExtractedState[name] = structured
		} else {
			rec.ExtractedState[name] = raw
		}
	}
}

// evaluateStringMap runs a script that returns a JSON object of strings
func (e *Extractor) evaluateStringMap(script string) (map[string]string, error) {
	raw, err := e.engine.Evaluate(script)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("payload was not a string map: %w", err)
	}
	return m, nil
}
