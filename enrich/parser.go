package enrich

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/c360/codegraph/errors"
)

// ParseResponse extracts and validates an EnrichmentResult from raw model
// output. The model may return bare JSON or JSON inside a fenced code
// block; anything else, or any field that fails validation, is an
// invalid-response failure. The parser never guesses: ambiguity fails
// closed.
func ParseResponse(communityID, raw string) (*EnrichmentResult, error) {
	jsonText, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	if !gjson.Valid(jsonText) {
		return nil, invalidResponse("response is not valid JSON")
	}
	doc := gjson.Parse(jsonText)
	if !doc.IsObject() {
		return nil, invalidResponse("response is not a JSON object")
	}

	functionality := doc.Get("functionality")
	if functionality.Type != gjson.String || strings.TrimSpace(functionality.String()) == "" {
		return nil, invalidResponse("functionality is missing or empty")
	}

	quality := doc.Get("quality_score")
	if !quality.Exists() {
		quality = doc.Get("quality")
	}
	if quality.Type != gjson.Number {
		return nil, invalidResponse("quality_score is missing or not a number")
	}
	score := quality.Float()
	if score != float64(int(score)) || score < 1 || score > 10 {
		return nil, invalidResponse("quality_score must be an integer in 1..10")
	}

	pattern := ""
	if p := doc.Get("architecture_pattern"); p.Exists() {
		if p.Type != gjson.String {
			return nil, invalidResponse("architecture_pattern is not a string")
		}
		pattern = strings.TrimSpace(p.String())
	}

	suggestionList, err := stringList(doc.Get("suggestions"), "suggestions")
	if err != nil {
		return nil, err
	}
	tagList, err := stringList(doc.Get("tags"), "tags")
	if err != nil {
		return nil, err
	}

	return &EnrichmentResult{
		CommunityID:         communityID,
		Functionality:       strings.TrimSpace(functionality.String()),
		QualityScore:        int(score),
		ArchitecturePattern: pattern,
		Suggestions:         suggestionList,
		Tags:                dedupe(tagList),
		Source:              SourceAI,
	}, nil
}

// extractJSON locates the JSON payload: the whole body if it starts with a
// brace, otherwise the content of a ```json or bare ``` fence.
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalidResponse("empty response body")
	}
	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(trimmed, fence)
		if start < 0 {
			continue
		}
		rest := trimmed[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			return "", invalidResponse("unterminated code fence in response")
		}
		inner := strings.TrimSpace(rest[:end])
		if strings.HasPrefix(inner, "{") {
			return inner, nil
		}
	}
	return "", invalidResponse("no JSON object found in response")
}

func stringList(value gjson.Result, field string) ([]string, error) {
	if !value.Exists() {
		return []string{}, nil
	}
	if !value.IsArray() {
		return nil, invalidResponse(field + " is not an array")
	}

	var out []string
	var bad bool
	value.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.String {
			bad = true
			return false
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	if bad {
		return nil, invalidResponse(field + " contains a non-string entry")
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// dedupe removes repeats preserving first occurrence, since tags are a set.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func invalidResponse(reason string) error {
	return errors.WrapInvalid(errors.ErrInvalidResponse, "ParseResponse", "validate", reason)
}
