package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

// FindJSONSpan returns the first balanced [...] or {...} substring of raw that is
// valid JSON. Brackets inside JSON strings are ignored.
func FindJSONSpan(raw string) (string, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '[' && raw[start] != '{' {
			continue
		}
		end, ok := balancedEnd(raw, start)
		if !ok {
			continue
		}
		if span := raw[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// balancedEnd returns the index of the bracket closing raw[start].
func balancedEnd(raw string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseProperties pulls the property list out of a free-form oracle reply.
//
// A single object is treated as a one-element list. Every value is coerced to a
// trimmed string (null becomes ""). Records failing the property schema are
// dropped and counted. A reply with no parsable JSON yields common.ErrMalformedOutput.
func ParseProperties(raw string) ([]entity.PropertyTriple, int, error) {
	span, ok := FindJSONSpan(raw)
	if !ok {
		return nil, 0, fmt.Errorf("%w: no JSON list or object found", common.ErrMalformedOutput)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrMalformedOutput, err)
	}

	var items []any
	switch t := doc.(type) {
	case []any:
		items = t
	case map[string]any:
		items = []any{t}
	default:
		return nil, 0, fmt.Errorf("%w: unexpected top-level JSON type %T", common.ErrMalformedOutput, doc)
	}

	out := make([]entity.PropertyTriple, 0, len(items))
	dropped := 0
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		rec := NormalizeRecord(obj)
		if err := ValidateRecord(rec); err != nil {
			dropped++
			continue
		}
		out = append(out, entity.PropertyTriple{
			Name:  rec[constants.FieldName].(string),
			Value: rec[constants.FieldValue].(string),
			Unit:  stringOr(rec[constants.FieldUnit]),
		})
	}
	return out, dropped, nil
}

// NormalizeRecord lowercases keys (prop_name -> prop-name) and turns every value
// into a trimmed string.
func NormalizeRecord(obj map[string]any) map[string]any {
	rec := make(map[string]any, len(obj))
	for k, v := range obj {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "-")
		rec[key] = CoerceString(v)
	}
	return rec
}

// CoerceString renders any decoded JSON value as a trimmed string. Integers keep
// their digits; other numbers are rendered in shortest decimal form (6.20 -> 6.2).
func CoerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return canonicalNumber(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strings.TrimSpace(fmt.Sprint(t))
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(t))
		}
		return string(b)
	}
}

func canonicalNumber(n json.Number) string {
	s := n.String()
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return s
	}
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func stringOr(v any) string {
	s, _ := v.(string)
	return s
}
