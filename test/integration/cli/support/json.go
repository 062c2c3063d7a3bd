package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// jsonField returns the value at a dotted path such as "box.top_right.x",
// formatted the way a feature file spells it.
func jsonField(data []byte, path string) (string, error) {
	start := strings.IndexAny(string(data), "{[")
	if start == -1 {
		return "", errors.New("no JSON found in output")
	}
	var doc any
	if err := json.Unmarshal(data[start:], &doc); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}

	cur := doc
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return "", fmt.Errorf("field %q not found in JSON", path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return "", fmt.Errorf("index %q out of range in %q", key, path)
			}
			cur = node[i]
		default:
			return "", fmt.Errorf("field %q not found in JSON", path)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "null", nil
	default:
		return fmt.Sprint(v), nil
	}
}

func expectField(data []byte, path, want string) error {
	got, err := jsonField(data, path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("field %q is %q, expected %q", path, got, want)
	}
	return nil
}
