// Package report normalizes the heterogeneous payloads the workflow engine
// writes into job rows. Depending on the workflow version the result is an
// object or an array of objects, and the score hides under several key
// names; everything downstream works with the one canonical Report shape.
package report

import (
	"math"
	"sort"
)

// Report is the canonical form of a terminal analysis result.
type Report struct {
	Score    *int           `json:"score"`
	Summary  string         `json:"summary,omitempty"`
	Sections []Section      `json:"sections"`
	Raw      map[string]any `json:"-"`
}

// Section is one named fragment of the result payload.
type Section struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

// scoreKeys in precedence order.
var scoreKeys = []string{"score", "overall_score", "seo_score"}

// topLevelKeys are payload fields promoted out of the sections list.
var topLevelKeys = map[string]bool{
	"score":         true,
	"overall_score": true,
	"seo_score":     true,
	"summary":       true,
}

// Parse normalizes a raw result payload for the given analysis kind.
// Arrays are merged object-by-object, later entries win on key conflicts.
// A nil payload yields an empty report with no score.
func Parse(raw any, kind string) Report {
	merged := flatten(raw)

	rep := Report{Raw: merged}
	if merged == nil {
		rep.Sections = []Section{}
		return rep
	}

	if s, ok := merged["summary"].(string); ok {
		rep.Summary = s
	}
	rep.Score = ExtractScore(raw, kind)

	// Deterministic section order for rendering and tests.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		if !topLevelKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	rep.Sections = make([]Section, 0, len(keys))
	for _, k := range keys {
		rep.Sections = append(rep.Sections, Section{Title: k, Content: merged[k]})
	}

	return rep
}

// ExtractScore finds a numeric score in a raw payload, or nil if none can
// be derived. Precedence: explicit score keys, then for reviews the positive
// sentiment share, then the average rating scaled to 0-100.
func ExtractScore(raw any, kind string) *int {
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				if s := scoreFromKeys(obj); s != nil {
					return s
				}
			}
		}
		return nil
	case map[string]any:
		if s := scoreFromKeys(v); s != nil {
			return s
		}
		if kind != "reviews" {
			return nil
		}
		if sa, ok := v["sentiment_analysis"].(map[string]any); ok {
			if pos, ok := numeric(sa["positive"]); ok {
				return round(pos)
			}
		}
		if avg, ok := numeric(v["average_rating"]); ok {
			return round(avg / 5 * 100)
		}
	}
	return nil
}

// flatten reduces array payloads to a single object; later entries win.
func flatten(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case []any:
		var merged map[string]any
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if merged == nil {
				merged = make(map[string]any)
			}
			for k, val := range obj {
				merged[k] = val
			}
		}
		return merged
	}
	return nil
}

func scoreFromKeys(obj map[string]any) *int {
	for _, key := range scoreKeys {
		if n, ok := numeric(obj[key]); ok {
			return round(n)
		}
	}
	return nil
}

// numeric accepts the types json.Unmarshal produces for numbers.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func round(f float64) *int {
	i := int(math.Round(f))
	return &i
}
