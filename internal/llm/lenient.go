package llm

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reNonNumeric = regexp.MustCompile(`[^0-9.\-]`)
	reHasDigit   = regexp.MustCompile(`[0-9]`)
)

// candidateFromItem converts one products[] entry. Items that are not objects
// yield an empty candidate so the normalizer drops them.
func candidateFromItem(item any) RawCandidate {
	m, ok := item.(map[string]any)
	if !ok {
		return RawCandidate{}
	}
	return RawCandidate{
		Name:  coerceName(m["product_name"]),
		Price: coercePrice(m["price"]),
	}
}

func coerceName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// coercePrice accepts JSON numbers and numeric strings such as "1,500" or "1500원".
// Numbers outside the float64 range come back nil.
func coercePrice(v any) *float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return &t
	case string:
		s := strings.TrimSpace(t)
		if !reHasDigit.MatchString(s) {
			return nil
		}
		s = reNonNumeric.ReplaceAllString(s, "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}
