package state

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError rejects malformed input before any engine interaction
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// ValidateURL checks that a URL is non-empty, parsable, and uses a scheme
// the engine can navigate to
func ValidateURL(raw string) error {
	if raw == "" {
		return &ValidationError{Message: "url is empty"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid url %q: %v", raw, err)}
	}

	switch u.Scheme {
	case "http", "https", "file", "data", "about":
		return nil
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported url scheme %q", u.Scheme)}
	}
}

// ValidateSelector checks that a selector is plausible enough to dispatch
func ValidateSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return &ValidationError{Message: "selector is empty"}
	}
	if strings.ContainsAny(selector, "\n\r") {
		return &ValidationError{Message: "selector contains line breaks"}
	}
	return nil
}

// ValidateScript checks that a script expression is non-empty
func ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return &ValidationError{Message: "script is empty"}
	}
	return nil
}
