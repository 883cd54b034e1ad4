package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRecord() *Record {
	rec := NewRecord("full")
	rec.PushHistory("https://example.com/login")
	rec.PushHistory("https://example.com/dashboard")
	rec.SetCookie(Cookie{Name: "sid", Domain: "example.com", Path: "/", Value: "abc", Secure: true, HTTPOnly: true})
	rec.LocalStorage["theme"] = "dark"
	rec.SessionStorage["draft"] = "hello"
	rec.FormFields = []FormField{
		{Selector: "#email", Name: "email", ID: "email", Type: "text", Value: "a@b.c"},
		{Selector: "#tos", Name: "tos", Type: "checkbox", Checked: true},
	}
	rec.AddActiveElement("#email")
	rec.SetScroll("window", 0, 420)
	rec.SetScroll("#sidebar", 0, 80)
	rec.PageHash = "d41d8cd9"
	rec.DocumentReadyState = "complete"
	rec.AddReadyCondition(ConditionSelector, "#app", 3000)
	rec.AddReadyCondition(ConditionJSExpression, "window.appReady === true", 2000)
	rec.Viewport = Viewport{Width: 1280, Height: 800}
	rec.UserAgent = "Mozilla/5.0 test"
	rec.SetVariable("user", "alice")
	rec.SetExtractor("cart_count", "document.querySelectorAll('.cart-item').length")
	rec.ExtractedState["cart_count"] = float64(3)
	rec.Recording = true
	rec.RecordAction(Action{Type: "click", Selector: "#login", DelayMs: 250})
	rec.RecordAction(Action{Type: "type", Selector: "#email", Value: "a@b.c"})
	return rec
}

func TestSerialize_RoundTrip(t *testing.T) {
	rec := fullRecord()

	data, err := rec.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.CurrentURL, got.CurrentURL)
	assert.Equal(t, rec.History, got.History)
	assert.Equal(t, rec.HistoryIndex, got.HistoryIndex)
	assert.Equal(t, rec.Cookies, got.Cookies)
	assert.Equal(t, rec.LocalStorage, got.LocalStorage)
	assert.Equal(t, rec.SessionStorage, got.SessionStorage)
	assert.Equal(t, rec.FormFields, got.FormFields)
	assert.Equal(t, rec.ActiveElements, got.ActiveElements)
	assert.Equal(t, rec.ScrollPosition, got.ScrollPosition)
	assert.Equal(t, rec.PageHash, got.PageHash)
	assert.Equal(t, rec.DocumentReadyState, got.DocumentReadyState)
	assert.Equal(t, rec.ReadyConditions, got.ReadyConditions)
	assert.Equal(t, rec.Viewport, got.Viewport)
	assert.Equal(t, rec.UserAgent, got.UserAgent)
	assert.Equal(t, rec.CustomVariables, got.CustomVariables)
	assert.Equal(t, rec.StateExtractors, got.StateExtractors)
	assert.Equal(t, rec.ExtractedState, got.ExtractedState)
	assert.Equal(t, rec.RecordedActions, got.RecordedActions)
	assert.Equal(t, rec.Recording, got.Recording)
	assert.Equal(t, SchemaVersion, got.Version)
}

func TestSerialize_Deterministic(t *testing.T) {
	rec := fullRecord()

	a, err := rec.Serialize()
	require.NoError(t, err)
	b, err := rec.Serialize()
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestDeserialize_InvalidJSON(t *testing.T) {
	_, err := Deserialize([]byte("{not json"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDeserialize_MissingFieldsDefault(t *testing.T) {
	got, err := Deserialize([]byte(`{"name": "sparse", "version": 3}`))
	require.NoError(t, err)

	assert.Equal(t, "sparse", got.Name)
	assert.Equal(t, -1, got.HistoryIndex)
	assert.NotNil(t, got.LocalStorage)
	assert.NotNil(t, got.SessionStorage)
	assert.NotNil(t, got.CustomVariables)
	assert.NotNil(t, got.StateExtractors)
	assert.NotNil(t, got.ExtractedState)
	assert.Contains(t, got.ScrollPosition, "window")
}

func TestDeserialize_UnknownFieldsIgnored(t *testing.T) {
	got, err := Deserialize([]byte(`{"name": "future", "version": 3, "hover_trails": ["#a"]}`))
	require.NoError(t, err)
	assert.Equal(t, "future", got.Name)
}

func TestDeserialize_LegacyV1URLAndScroll(t *testing.T) {
	legacy := `{
		"name": "old",
		"version": 1,
		"url": "https://example.com/legacy",
		"scroll": {"x": 10, "y": 200}
	}`

	got, err := Deserialize([]byte(legacy))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/legacy", got.CurrentURL)
	assert.Equal(t, ScrollPosition{X: 10, Y: 200}, got.ScrollPosition["window"])
	// Legacy URL seeds the history so back/forward work after migration
	assert.Equal(t, []string{"https://example.com/legacy"}, got.History)
	assert.Equal(t, 0, got.HistoryIndex)
	assert.Equal(t, SchemaVersion, got.Version)
}

func TestDeserialize_CanonicalFieldWinsOverLegacy(t *testing.T) {
	data := `{
		"name": "both",
		"version": 2,
		"url": "https://example.com/old",
		"current_url": "https://example.com/new"
	}`

	got, err := Deserialize([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", got.CurrentURL)
}

func TestDeserialize_VersionGating(t *testing.T) {
	// A v1 file carrying fields introduced in later versions: those fields
	// are dropped rather than trusted.
	data := `{
		"name": "early",
		"version": 1,
		"ready_conditions": [{"kind": "selector", "value": "#app"}],
		"recorded_actions": [{"type": "click", "selector": "#go"}]
	}`

	got, err := Deserialize([]byte(data))
	require.NoError(t, err)

	assert.Empty(t, got.ReadyConditions)
	assert.Empty(t, got.RecordedActions)
}

func TestDeserialize_ClampsHistoryIndex(t *testing.T) {
	data := `{
		"name": "clamped",
		"version": 3,
		"history": ["https://a.example", "https://b.example"],
		"history_index": 9
	}`

	got, err := Deserialize([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1, got.HistoryIndex)
}
