package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option: a snapshot written with it can be consumed
// by any JSON reader. Document metadata survives as map[string]any with JSON
// number semantics (float64).
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
//
// Snapshot streams are self-describing (they record the codec name), so
// changing the default never breaks existing snapshots.
var Default Codec = GoJSON{}
