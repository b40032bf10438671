package ingest

import (
	"bytes"
	"encoding/json"
)

// ContainerShape describes the top-level structure of a stored record.
type ContainerShape int

const (
	ShapeUnknown ContainerShape = iota
	ShapeDateMap                // {"2024-05-01": ...}
	ShapeArray                  // [{...}, {...}]
)

// DetectContainerShape inspects the first significant byte of a stored record.
func DetectContainerShape(raw []byte) ContainerShape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeUnknown
	}
	switch trimmed[0] {
	case '{':
		return ShapeDateMap
	case '[':
		return ShapeArray
	default:
		return ShapeUnknown
	}
}

// hydrationField is one way a day's hydration total has been stored.
type hydrationField int

const (
	hydrationTotalOz hydrationField = iota // {"totalOz": 64}
	hydrationTotal                         // {"total": 64}
	hydrationEntries                       // {"entries": [{"amount": 8}, ...]}
	hydrationGlasses                       // {"glasses": 8}
	hydrationLogs                          // {"logs": [...]}
)

// hydrationFallbacks is the order in which hydration fields are tried.
var hydrationFallbacks = []hydrationField{
	hydrationTotalOz,
	hydrationTotal,
	hydrationEntries,
	hydrationGlasses,
	hydrationLogs,
}

// ouncesPerGlass converts glass counts from older hydration records.
const ouncesPerGlass = 8

// hydrationOunces resolves a day's hydration object to ounces using the first
// field in fallback order that is present with a usable value.
func hydrationOunces(day map[string]any) float64 {
	for _, f := range hydrationFallbacks {
		switch f {
		case hydrationTotalOz:
			if v, ok := numberField(day, "totalOz"); ok {
				return v
			}
		case hydrationTotal:
			if v, ok := numberField(day, "total"); ok {
				return v
			}
		case hydrationEntries:
			entries, ok := day["entries"].([]any)
			if !ok || len(entries) == 0 {
				continue
			}
			var sum float64
			var found bool
			for _, e := range entries {
				obj, ok := e.(map[string]any)
				if !ok {
					continue
				}
				for _, name := range []string{"amount", "oz", "ounces"} {
					if v, ok := numberField(obj, name); ok {
						sum += v
						found = true
						break
					}
				}
			}
			if found {
				return sum
			}
		case hydrationGlasses:
			if v, ok := numberField(day, "glasses"); ok {
				return v * ouncesPerGlass
			}
		case hydrationLogs:
			if logs, ok := day["logs"].([]any); ok {
				return float64(len(logs)) * ouncesPerGlass
			}
		}
	}
	return 0
}

func numberField(obj map[string]any, name string) (float64, bool) {
	v, ok := obj[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// decodeDateMap decodes a date-keyed record into per-date raw values.
func decodeDateMap(raw []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeArray decodes an array record into raw elements so one malformed
// element does not reject its neighbours.
func decodeArray(raw []byte) ([]json.RawMessage, error) {
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// decodeAny decodes a raw value into generic JSON types.
func decodeAny(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
