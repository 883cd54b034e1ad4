// Package actions records and replays sequences of primitive page
// operations. Replay is fail-fast: the first failing step aborts the whole
// sequence. This is deliberately stricter than the readiness engine's
// best-effort conditions.
package actions

import (
	"strconv"
	"time"
)

// Kind enumerates the fixed action vocabulary
type Kind string

const (
	KindClick   Kind = "click"
	KindType    Kind = "type"
	KindSubmit  Kind = "submit"
	KindSelect  Kind = "select"
	KindCheck   Kind = "check"
	KindUncheck Kind = "uncheck"
	KindFocus   Kind = "focus"
	KindWait    Kind = "wait"
	KindWaitNav Kind = "wait-nav"
)

// ParseKind maps an action type string onto the vocabulary
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindClick, KindType, KindSubmit, KindSelect, KindCheck, KindUncheck, KindFocus, KindWait, KindWaitNav:
		return Kind(s), true
	default:
		return "", false
	}
}

// Runner is the primitive operation surface an action dispatches to. The
// chrome engine adapter implements it; tests use fakes.
type Runner interface {
	Click(selector string) error
	Fill(selector, value string) error
	Submit(selector string) error
	SelectOption(selector, value string) error
	SetChecked(selector string, checked bool) error
	Focus(selector string) error
	WaitVisible(selector string, timeout time.Duration) error
	WaitForNavigation(timeout time.Duration) error
}

// needsSelector reports whether a kind cannot run without a selector
func needsSelector(k Kind) bool {
	switch k {
	case KindWaitNav:
		return false
	default:
		return true
	}
}

// waitTimeout resolves the effective timeout for wait-style actions; the
// action value may carry an override in milliseconds
func waitTimeout(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
