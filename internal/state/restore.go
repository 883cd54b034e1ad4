package state

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/readiness"
	"github.com/ciciliostudio/revisit/internal/session"
)

// Restorer pushes a record's state back into a live page. Navigation is
// gated by the readiness engine before any state write begins.
type Restorer struct {
	engine Engine
	ready  *readiness.Engine
}

// NewRestorer creates a restorer
func NewRestorer(engine Engine, ready *readiness.Engine) *Restorer {
	return &Restorer{engine: engine, ready: ready}
}

// Apply restores the record into the page: cookies and viewport first, then
// navigation, then once the page is ready, storage, form fields, variables,
// scroll, and focus. Losing navigation is an error; individual field writes
// degrade to warnings.
func (r *Restorer) Apply(rec *session.Record) error {
	if err := ValidateURL(rec.CurrentURL); err != nil {
		return fmt.Errorf("cannot restore session %q: %w", rec.Name, err)
	}

	if rec.Viewport.Width > 0 && rec.Viewport.Height > 0 {
		if err := r.engine.SetViewport(rec.Viewport.Width, rec.Viewport.Height); err != nil {
			logging.Warn("Could not restore viewport: %v", err)
		}
	}

	// Cookies go in before navigation so the page loads authenticated
	if len(rec.Cookies) > 0 {
		if err := r.engine.SetCookies(rec.Cookies); err != nil {
			logging.Warn("Could not restore cookies: %v", err)
		}
	}

	if err := r.engine.Navigate(rec.CurrentURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rec.CurrentURL, err)
	}

	r.ready.WaitForPageReady(rec)

	r.restoreStorage(rec)
	r.restoreFormFields(rec)
	r.restoreVariables(rec)
	r.restoreScroll(rec)
	r.restoreFocus(rec)

	rec.Touch()
	return nil
}

func (r *Restorer) restoreStorage(rec *session.Record) {
	r.writeStorage("localStorage", rec.LocalStorage)
	r.writeStorage("sessionStorage", rec.SessionStorage)
}

func (r *Restorer) writeStorage(store string, entries map[string]string) {
	if len(entries) == 0 {
		return
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		logging.Warn("Could not marshal %s entries: %v", store, err)
		return
	}

	script := fmt.Sprintf(scriptRestoreStorage, store, string(payload))
	if _, err := r.engine.Evaluate(script); err != nil {
		logging.Warn("Could not restore %s: %v", store, err)
	}
}

func (r *Restorer) restoreFormFields(rec *session.Record) {
	for _, field := range rec.FormFields {
		if err := ValidateSelector(field.Selector); err != nil {
			logging.Warn("Form field skipped: %v", err)
			continue
		}

		script := fmt.Sprintf(scriptRestoreField,
			strconv.Quote(field.Selector),
			strconv.Quote(field.Value),
			field.Checked,
		)
		result, err := r.engine.Evaluate(script)
		if err != nil {
			logging.Warn("Could not restore field %s: %v", field.Selector, err)
			continue
		}
		if result == "false" {
			logging.Warn("Form field %s not found on restored page", field.Selector)
		}
	}
}

func (r *Restorer) restoreVariables(rec *session.Record) {
	if len(rec.CustomVariables) == 0 {
		return
	}

	payload, err := json.Marshal(rec.CustomVariables)
	if err != nil {
		logging.Warn("Could not marshal custom variables: %v", err)
		return
	}

	script := fmt.Sprintf(scriptSetVariables, string(payload))
	if _, err := r.engine.Evaluate(script); err != nil {
		logging.Warn("Could not restore custom variables: %v", err)
	}
}

func (r *Restorer) restoreScroll(rec *session.Record) {
	// Element offsets first, the window position last so it wins
	for selector, pos := range rec.ScrollPosition {
		if selector == "window" {
			continue
		}
		script := fmt.Sprintf(scriptRestoreElementScroll, strconv.Quote(selector), pos.X, pos.Y)
		if _, err := r.engine.Evaluate(script); err != nil {
			logging.Warn("Could not restore scroll for %s: %v", selector, err)
		}
	}

	if pos, ok := rec.ScrollPosition["window"]; ok {
		script := fmt.Sprintf(scriptRestoreWindowScroll, pos.X, pos.Y)
		if _, err := r.engine.Evaluate(script); err != nil {
			logging.Warn("Could not restore window scroll: %v", err)
		}
	}
}

func (r *Restorer) restoreFocus(rec *session.Record) {
	for _, selector := range rec.ActiveElements {
		if err := r.engine.Focus(selector); err != nil {
			logging.Warn("Could not focus %s: %v", selector, err)
		}
	}
}
