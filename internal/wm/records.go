package wm

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	idPattern    = regexp.MustCompile(`Window ID (\d+):`)
	titlePattern = regexp.MustCompile(`(?m)^\s*Title: "(.*)"\s*$`)
)

// Window is one entry of a listing
type Window struct {
	ID    int    `yaml:"id"`
	Title string `yaml:"title"`
}

// HasTitle reports whether block carries the exact quoted title field
func HasTitle(block, title string) bool {
	return strings.Contains(block, `Title: "`+title+`"`)
}

// ParseID extracts the numeric window id from block
func ParseID(block string) (int, bool) {
	m := idPattern.FindStringSubmatch(block)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseTitle extracts the quoted title from block
func ParseTitle(block string) (string, bool) {
	m := titlePattern.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseRecords converts raw blocks into Windows. Blocks without an id line
// are skipped; a missing title is left empty.
func ParseRecords(blocks []string) []Window {
	windows := make([]Window, 0, len(blocks))
	for _, block := range blocks {
		id, ok := ParseID(block)
		if !ok {
			continue
		}
		title, _ := ParseTitle(block)
		windows = append(windows, Window{ID: id, Title: title})
	}
	return windows
}
