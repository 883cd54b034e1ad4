package session

import (
	"time"
)

// SchemaVersion is the current persisted record version.
//
// Version history:
//
//	1 - singular "url" and "scroll" fields, cookies, storage, form fields
//	2 - history ring, ready conditions, state extractors / extracted state
//	3 - recorded actions, viewport, custom variables
const SchemaVersion = 3

// MaxHistory caps the navigation history kept per record. Pushing past the
// cap evicts the oldest entry.
const MaxHistory = 100

// Record holds all resumable browser-visible state for one named session.
// A Record is exclusively owned by the caller holding it; nothing in this
// package locks.
type Record struct {
	Name    string `json:"name"`
	Version int    `json:"version"`

	CurrentURL   string   `json:"current_url,omitempty"`
	History      []string `json:"history,omitempty"`
	HistoryIndex int      `json:"history_index"`

	Cookies        []Cookie          `json:"cookies,omitempty"`
	LocalStorage   map[string]string `json:"local_storage,omitempty"`
	SessionStorage map[string]string `json:"session_storage,omitempty"`

	FormFields     []FormField               `json:"form_fields,omitempty"`
	ActiveElements []string                  `json:"active_elements,omitempty"`
	ScrollPosition map[string]ScrollPosition `json:"scroll_positions,omitempty"`

	PageHash           string `json:"page_hash,omitempty"`
	DocumentReadyState string `json:"document_ready_state,omitempty"`

	ReadyConditions []ReadyCondition `json:"ready_conditions,omitempty"`

	Viewport  Viewport `json:"viewport"`
	UserAgent string   `json:"user_agent,omitempty"`

	CustomVariables map[string]string      `json:"custom_variables,omitempty"`
	StateExtractors map[string]string      `json:"state_extractors,omitempty"`
	ExtractedState  map[string]interface{} `json:"extracted_state,omitempty"`

	RecordedActions []Action `json:"recorded_actions,omitempty"`
	Recording       bool     `json:"recording"`

	LastAccessed int64 `json:"last_accessed"`
}

// Cookie represents a browser cookie. Identity is (name, domain, path).
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  int64  `json:"expires,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
	SameSite string `json:"same_site,omitempty"`
}

// FormField captures the persisted state of one form control
type FormField struct {
	Selector string `json:"selector"`
	Name     string `json:"name,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Value    string `json:"value,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}

// ScrollPosition is a scroll offset for the window or a scrollable element
type ScrollPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport holds the page viewport dimensions
type Viewport struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ConditionKind enumerates the readiness condition vocabulary
type ConditionKind string

const (
	ConditionSelector     ConditionKind = "selector"
	ConditionJSExpression ConditionKind = "js_expression"
	ConditionCustom       ConditionKind = "custom"
)

// ReadyCondition is a declared criterion that must hold before a restored
// session is considered usable
type ReadyCondition struct {
	Kind      ConditionKind `json:"kind"`
	Value     string        `json:"value"`
	TimeoutMs int           `json:"timeout_ms,omitempty"`
}

// Action is one recorded primitive operation
type Action struct {
	Type     string `json:"type"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	DelayMs  int    `json:"delay_ms,omitempty"`
}

// NewRecord creates a fresh record with the current schema version and a
// default window scroll entry
func NewRecord(name string) *Record {
	return &Record{
		Name:           name,
		Version:        SchemaVersion,
		HistoryIndex:   -1,
		LocalStorage:   make(map[string]string),
		SessionStorage: make(map[string]string),
		ScrollPosition: map[string]ScrollPosition{
			"window": {},
		},
		CustomVariables: make(map[string]string),
		StateExtractors: make(map[string]string),
		ExtractedState:  make(map[string]interface{}),
		LastAccessed:    time.Now().Unix(),
	}
}

// Touch updates the last-accessed timestamp
func (r *Record) Touch() {
	r.LastAccessed = time.Now().Unix()
}

// PushHistory records a navigation. Standard back/forward semantics: when
// the index is not at the tail, forward entries are truncated first; when
// the cap is exceeded, the oldest entry is evicted and the index shifts.
func (r *Record) PushHistory(url string) {
	if url == "" {
		return
	}

	// Truncate forward entries when navigating from a back position
	if r.HistoryIndex < len(r.History)-1 {
		r.History = r.History[:r.HistoryIndex+1]
	}

	r.History = append(r.History, url)
	r.HistoryIndex = len(r.History) - 1

	if over := len(r.History) - MaxHistory; over > 0 {
		r.History = append(r.History[:0:0], r.History[over:]...)
		r.HistoryIndex -= over
	}

	r.CurrentURL = url
}

// Back moves the history index one step back and returns the URL there
func (r *Record) Back() (string, bool) {
	if r.HistoryIndex <= 0 {
		return "", false
	}
	r.HistoryIndex--
	r.CurrentURL = r.History[r.HistoryIndex]
	return r.CurrentURL, true
}

// Forward moves the history index one step forward and returns the URL there
func (r *Record) Forward() (string, bool) {
	if r.HistoryIndex < 0 || r.HistoryIndex >= len(r.History)-1 {
		return "", false
	}
	r.HistoryIndex++
	r.CurrentURL = r.History[r.HistoryIndex]
	return r.CurrentURL, true
}

// SetCookie inserts a cookie, replacing any existing cookie with the same
// (name, domain, path) identity in place
func (r *Record) SetCookie(c Cookie) {
	for i, existing := range r.Cookies {
		if existing.Name == c.Name && existing.Domain == c.Domain && existing.Path == c.Path {
			r.Cookies[i] = c
			return
		}
	}
	r.Cookies = append(r.Cookies, c)
}

// DeleteCookie removes a cookie by identity
func (r *Record) DeleteCookie(name, domain, path string) bool {
	for i, c := range r.Cookies {
		if c.Name == name && c.Domain == domain && c.Path == path {
			r.Cookies = append(r.Cookies[:i], r.Cookies[i+1:]...)
			return true
		}
	}
	return false
}

// AddActiveElement records a focused element selector; duplicates are ignored
func (r *Record) AddActiveElement(selector string) {
	if selector == "" {
		return
	}
	for _, existing := range r.ActiveElements {
		if existing == selector {
			return
		}
	}
	r.ActiveElements = append(r.ActiveElements, selector)
}

// RemoveActiveElement drops a selector from the active set
func (r *Record) RemoveActiveElement(selector string) {
	for i, existing := range r.ActiveElements {
		if existing == selector {
			r.ActiveElements = append(r.ActiveElements[:i], r.ActiveElements[i+1:]...)
			return
		}
	}
}

// SetScroll stores a scroll offset for a selector ("window" for the page)
func (r *Record) SetScroll(selector string, x, y float64) {
	if r.ScrollPosition == nil {
		r.ScrollPosition = make(map[string]ScrollPosition)
	}
	r.ScrollPosition[selector] = ScrollPosition{X: x, Y: y}
}

// AddReadyCondition appends a readiness condition
func (r *Record) AddReadyCondition(kind ConditionKind, value string, timeoutMs int) {
	r.ReadyConditions = append(r.ReadyConditions, ReadyCondition{
		Kind:      kind,
		Value:     value,
		TimeoutMs: timeoutMs,
	})
}

// RecordAction appends an action when recording is enabled. Recording is a
// pure append-only side channel; it never changes replay semantics.
func (r *Record) RecordAction(a Action) {
	if !r.Recording {
		return
	}
	r.RecordedActions = append(r.RecordedActions, a)
}

// SetVariable stores a custom variable on the record
func (r *Record) SetVariable(key, value string) {
	if r.CustomVariables == nil {
		r.CustomVariables = make(map[string]string)
	}
	r.CustomVariables[key] = value
}

// SetExtractor registers a named script expression evaluated at capture time
func (r *Record) SetExtractor(name, script string) {
	if r.StateExtractors == nil {
		r.StateExtractors = make(map[string]string)
	}
	r.StateExtractors[name] = script
}
