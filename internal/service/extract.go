package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pageza/nutrichef/backend/internal/types"
)

// fencedBlock matches text that is entirely one markdown code block with an
// optional language tag. Fences inside the block are left alone.
var fencedBlock = regexp.MustCompile("(?s)^\\s*```[A-Za-z0-9_+-]*\\s*(.*?)\\s*```\\s*$")

// parseStrategy recovers a JSON object from model output, or fails
type parseStrategy struct {
	name  string
	parse func(text string) (map[string]json.RawMessage, error)
}

// JSONExtractor turns free-form model output into a validated RecipeResult
type JSONExtractor struct {
	strategies []parseStrategy
}

// NewJSONExtractor creates an extractor with the default fallback chain:
// direct parse, fence stripping, then the outermost brace span.
func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{
		strategies: []parseStrategy{
			{name: "direct", parse: parseObject},
			{name: "fence-strip", parse: func(text string) (map[string]json.RawMessage, error) {
				return parseObject(stripFences(text))
			}},
			{name: "brace-slice", parse: func(text string) (map[string]json.RawMessage, error) {
				return parseBraceSlice(stripFences(text))
			}},
		},
	}
}

// Extract runs the fallback chain over text and validates the first object it recovers
func (x *JSONExtractor) Extract(text string) (*types.RecipeResult, error) {
	obj, err := x.parse(text)
	if err != nil {
		genErr := newError(KindMalformedAIResponse, "could not extract a JSON object from model output", err)
		genErr.Raw = text
		return nil, genErr
	}

	recipe, genErr := decodeRecipe(obj)
	if genErr != nil {
		genErr.Raw = text
		return nil, genErr
	}
	return recipe, nil
}

// parse returns the first strategy's success, or the last strategy's error
func (x *JSONExtractor) parse(text string) (map[string]json.RawMessage, error) {
	var lastErr error
	for _, s := range x.strategies {
		obj, err := s.parse(text)
		if err == nil {
			return obj, nil
		}
		lastErr = fmt.Errorf("%s: %w", s.name, err)
	}
	if lastErr == nil {
		lastErr = ErrNoJSONObject
	}
	return nil, lastErr
}

// parseObject accepts text only if the whole of it is a JSON object
func parseObject(text string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidJSON)
	}
	return obj, nil
}

// stripFences unwraps a single enclosing code block; any other text is returned trimmed
func stripFences(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// parseBraceSlice parses the span from the first '{' to the last '}', inclusive
func parseBraceSlice(text string) (map[string]json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || start >= end {
		return nil, ErrNoJSONObject
	}
	return parseObject(text[start : end+1])
}

// decodeRecipe checks that every required key is present and well typed
func decodeRecipe(obj map[string]json.RawMessage) (*types.RecipeResult, *GenerationError) {
	var missing []string
	for _, key := range types.RequiredFields {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		genErr := newError(KindMissingFields, "model output is missing required fields", nil)
		genErr.Fields = missing
		return nil, genErr
	}

	var (
		recipe  types.RecipeResult
		invalid []string
	)

	if !decodeString(obj["title"], &recipe.Title) || strings.TrimSpace(recipe.Title) == "" {
		invalid = append(invalid, "title")
	}
	if !decodeString(obj["description"], &recipe.Description) {
		invalid = append(invalid, "description")
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"calories", &recipe.Calories},
		{"protein", &recipe.Protein},
		{"carbs", &recipe.Carbs},
		{"fat", &recipe.Fat},
	} {
		n, ok := decodeNutrient(obj[f.key])
		if !ok {
			invalid = append(invalid, f.key)
			continue
		}
		*f.dst = n
	}
	steps, ok := decodeSteps(obj["steps"])
	if !ok {
		invalid = append(invalid, "steps")
	}
	recipe.Steps = steps

	if len(invalid) > 0 {
		genErr := newError(KindInvalidFields, "model output has fields of the wrong type", nil)
		genErr.Fields = invalid
		return nil, genErr
	}
	return &recipe, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage, dst *string) bool {
	if isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// decodeSteps requires a non-empty array whose elements are all non-blank strings
func decodeSteps(raw json.RawMessage) ([]string, bool) {
	if isNull(raw) {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return nil, false
	}

	steps := make([]string, 0, len(elems))
	for _, elem := range elems {
		var step string
		if !decodeString(elem, &step) || strings.TrimSpace(step) == "" {
			return nil, false
		}
		steps = append(steps, step)
	}
	return steps, true
}

// decodeNutrient accepts a JSON number or a numeric string, rounded to the nearest
// whole unit. Negative and non-finite values are rejected.
func decodeNutrient(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	}

	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > math.MaxInt32 {
		return 0, false
	}
	return int(math.Round(value)), true
}
