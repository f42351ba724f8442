package utils

import (
	"strings"
)

// UniqueSlice removes duplicates keeping the first occurrence of every item in place.
func UniqueSlice(slice []string) []string {
	seen := make(map[string]struct{}, len(slice))
	list := make([]string, 0, len(slice))
	for _, entry := range slice {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		list = append(list, entry)
	}
	return list
}

// CleanupSlice trims every item and drops the ones left empty.
func CleanupSlice(slice []string) []string {
	var cleanSlice []string
	for _, item := range slice {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleanSlice = append(cleanSlice, item)
	}
	return cleanSlice
}

// ShellQuote wraps s in single quotes so /bin/sh passes it through verbatim.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FirstLine returns the first non-empty trimmed line, or "".
func FirstLine(lines []string) string {
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return ""
}
