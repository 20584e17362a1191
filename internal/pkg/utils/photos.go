package utils

import (
	"encoding/json"
	"strings"
)

// EncodePhotos serializes media URLs into a JSON array string for a text column.
// Blank entries are dropped.
func EncodePhotos(urls []string) string {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(clean)
	return string(data)
}

// DecodePhotos is the inverse of EncodePhotos. Legacy comma-separated values
// are accepted.
func DecodePhotos(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(s), &urls); err != nil {
		urls = strings.Split(s, ",")
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
