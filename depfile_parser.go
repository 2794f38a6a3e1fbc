package main

import (
	"fmt"
	"strings"
)

// DepfileParserOptions carries the depfile parsing options a DepfileParser
// is built with. Parse does not read its one field,
// AlwaysUseUnixPathSeparator.
type DepfileParserOptions struct {
	AlwaysUseUnixPathSeparator bool
}

// DepfileParser parses a gcc/clang/make-style depfile: one or more
// "target: dep dep dep" rules, continued across lines with a trailing
// backslash, `\ ` escaping a literal space and `$$` escaping a literal
// dollar sign. Parse returns only the dependency side; the target names,
// redundant with the edge that requested the depfile, are collected in
// outs_ and not returned.
type DepfileParser struct {
	options_ DepfileParserOptions
	outs_    []string
	ins_     []string
}

func NewDepfileParser(options DepfileParserOptions) *DepfileParser {
	return &DepfileParser{options_: options}
}

func (this *DepfileParser) Parse(content string) ([]string, error) {
	joined := joinContinuations(content)
	haveTarget := false

	for _, rawLine := range strings.Split(joined, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, fmt.Errorf("expected ':' in depfile")
		}
		haveTarget = true
		deps := line[colon+1:]
		for _, tok := range splitUnescaped(deps) {
			if tok == "" {
				continue
			}
			tok = unescapeDepfileToken(tok)
			if !containsString(this.ins_, tok) {
				this.ins_ = append(this.ins_, tok)
			}
		}
		target := unescapeDepfileToken(strings.TrimSpace(line[:colon]))
		if target != "" && !containsString(this.outs_, target) {
			this.outs_ = append(this.outs_, target)
		}
	}

	if !haveTarget && strings.TrimSpace(content) != "" {
		return nil, fmt.Errorf("expected ':' in depfile")
	}
	return this.ins_, nil
}

// joinContinuations splices a trailing "\\\n" (or "\\\r\n") into the
// following line, the way make treats backslash-newline as whitespace.
func joinContinuations(content string) string {
	content = strings.ReplaceAll(content, "\\\r\n", " ")
	content = strings.ReplaceAll(content, "\\\n", " ")
	return content
}

// splitUnescaped splits on whitespace that isn't preceded by a backslash.
func splitUnescaped(s string) []string {
	var out []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune('\\')
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ' ' || r == '\t':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func unescapeDepfileToken(tok string) string {
	tok = strings.ReplaceAll(tok, `\ `, " ")
	tok = strings.ReplaceAll(tok, `\#`, "#")
	tok = strings.ReplaceAll(tok, "$$", "$")
	return tok
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
