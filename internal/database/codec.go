package database

import (
	"encoding/json"
	"sort"
	"strings"
)

// pairKey identifies the private room of an unordered user pair.
func pairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func encodeInterests(interests []string) string {
	if len(interests) == 0 {
		return "[]"
	}
	data, err := json.Marshal(interests)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeInterests(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

// likePattern escapes % and _ so user input only matches literally.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(query))) + "%"
}
