package session

import (
	"encoding/json"
	"fmt"
)

// ParseError reports a structurally invalid session file. Merely missing
// fields never produce a ParseError; they default instead.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse session record: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// recordFile is the on-disk shape. It embeds Record and carries the legacy
// singular fields from version 1 files so they can be migrated on read.
type recordFile struct {
	Record
	LegacyURL    string          `json:"url,omitempty"`
	LegacyScroll *ScrollPosition `json:"scroll,omitempty"`
}

// Serialize encodes the record as indented JSON. Struct field order plus
// Go's sorted map keys keep the output stable enough for diffing. The
// current schema version is always emitted.
func (r *Record) Serialize() ([]byte, error) {
	r.Version = SchemaVersion
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session record: %w", err)
	}
	return data, nil
}

// Deserialize decodes a persisted record. Unknown fields are ignored and
// missing optional fields default; only unparsable JSON fails, with a
// ParseError.
func Deserialize(data []byte) (*Record, error) {
	var file recordFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{Err: err}
	}

	rec := file.Record
	migrateLegacy(&rec, &file)
	normalize(&rec)

	return &rec, nil
}

// migrateLegacy pulls version 1 singular fields into their canonical
// successors when the canonical field is absent
func migrateLegacy(rec *Record, file *recordFile) {
	if rec.CurrentURL == "" && file.LegacyURL != "" {
		rec.CurrentURL = file.LegacyURL
	}
	if len(rec.ScrollPosition) == 0 && file.LegacyScroll != nil {
		rec.ScrollPosition = map[string]ScrollPosition{
			"window": *file.LegacyScroll,
		}
	}
}

// normalize applies version gating and repairs invariants so that records
// written by any older version load into a usable current-version record
func normalize(rec *Record) {
	if rec.Version <= 0 {
		rec.Version = 1
	}

	// Fields introduced after the stored version are ignored even if a
	// foreign writer emitted them early.
	if rec.Version < 2 {
		rec.ReadyConditions = nil
		rec.StateExtractors = nil
		rec.ExtractedState = nil
	}
	if rec.Version < 3 {
		rec.RecordedActions = nil
		rec.Recording = false
		rec.Viewport = Viewport{}
		rec.CustomVariables = nil
	}

	if rec.LocalStorage == nil {
		rec.LocalStorage = make(map[string]string)
	}
	if rec.SessionStorage == nil {
		rec.SessionStorage = make(map[string]string)
	}
	if rec.CustomVariables == nil {
		rec.CustomVariables = make(map[string]string)
	}
	if rec.StateExtractors == nil {
		rec.StateExtractors = make(map[string]string)
	}
	if rec.ExtractedState == nil {
		rec.ExtractedState = make(map[string]interface{})
	}
	if rec.ScrollPosition == nil {
		rec.ScrollPosition = make(map[string]ScrollPosition)
	}
	if _, ok := rec.ScrollPosition["window"]; !ok {
		rec.ScrollPosition["window"] = ScrollPosition{}
	}

	// History invariants: cap, then clamp the index into [-1, len-1]
	if over := len(rec.History) - MaxHistory; over > 0 {
		rec.History = rec.History[over:]
		rec.HistoryIndex -= over
	}
	if len(rec.History) == 0 {
		rec.HistoryIndex = -1
	} else {
		if rec.HistoryIndex < 0 {
			rec.HistoryIndex = 0
		}
		if rec.HistoryIndex > len(rec.History)-1 {
			rec.HistoryIndex = len(rec.History) - 1
		}
	}

	// A current URL with no history seeds the history, so Back/Forward
	// behave after loading a legacy record
	if rec.CurrentURL != "" && len(rec.History) == 0 {
		rec.History = []string{rec.CurrentURL}
		rec.HistoryIndex = 0
	}

	rec.Version = SchemaVersion
}
