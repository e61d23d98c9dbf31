package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs decodes content into T.
//
//	in, err := parse.ParseStringAs[webfetch.Input](`{url: 'example.com', mode: "probe",}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T

	content = strings.TrimSpace(content)
	if content == "" {
		return result, fmt.Errorf("empty input")
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(stripFence(content))
	if repairErr != nil {
		return result, fmt.Errorf("failed to decode input as %T: %w (repair failed: %v)", result, err, repairErr)
	}
	if err = json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	unwrapped, unwrapErr := unwrapSchemaValues(repaired)
	if unwrapErr != nil {
		return result, fmt.Errorf("failed to decode input as %T: %w", result, err)
	}
	var retry T
	if err = json.Unmarshal([]byte(unwrapped), &retry); err != nil {
		return result, fmt.Errorf("failed to decode input as %T: %w", result, err)
	}
	return retry, nil
}

// stripFence removes a surrounding ```json ... ``` block.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// unwrapSchemaValues replaces every {"type": T, "value": V} object with V.
func unwrapSchemaValues(s string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return "", err
	}
	out, err := json.Marshal(unwrap(data))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func unwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return unwrap(value)
			}
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = unwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = unwrap(val)
		}
		return out
	default:
		return data
	}
}
