package rules

import (
	"bufio"
	"bytes"
	"regexp"
)

// Pattern is a compiled rule pattern plus the message reported when it fires
// (forbidden) or fails to fire (required). Compilation happens once at rule
// load; scans never recompile.
type Pattern struct {
	re      *regexp.Regexp
	Source  string
	Message string
}

// Match is one occurrence of a pattern within file contents.
type Match struct {
	Line int // 1-based
	Text string
}

func compilePattern(src, msg string) (Pattern, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{re: re, Source: src, Message: msg}, nil
}

// FindAll returns every match in data with its line number. Multiple matches
// on one line are reported individually; multiple occurrences across a file
// are independently actionable.
func (p Pattern) FindAll(data []byte) []Match {
	var out []Match
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		for _, m := range p.re.FindAllString(sc.Text(), -1) {
			out = append(out, Match{Line: line, Text: m})
		}
	}
	return out
}

// Exists reports whether data contains at least one match. It stops at the
// first matching line, so existence checks on large files stay cheap.
func (p Pattern) Exists(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if p.re.MatchString(sc.Text()) {
			return true
		}
	}
	return false
}
