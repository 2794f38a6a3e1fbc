package main

import (
	"fmt"
	"strconv"
	"strings"
)

func (this *ManifestParser) ParseFile(disk DiskInterface, path string) error {
	content, status, err := disk.ReadFile(path)
	if err != nil {
		return err
	}
	if status == NotFound {
		return fmt.Errorf("loading '%s': no such manifest file", path)
	}
	return this.Parse(content)
}

func indentWidth(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// parseValue turns a raw binding value into an EvalString, recognizing
// "$name" and "${name}" variable references the way the teacher's lexer
// does, minus its re2c machinery.
func parseValue(raw string) EvalString {
	var eval EvalString
	i := 0
	for i < len(raw) {
		if raw[i] != '$' || i+1 >= len(raw) {
			j := i
			for j < len(raw) && raw[j] != '$' {
				j++
			}
			eval.AddText(raw[i:j])
			i = j
			continue
		}
		if raw[i+1] == '$' {
			eval.AddText("$")
			i += 2
			continue
		}
		if raw[i+1] == '{' {
			end := strings.IndexByte(raw[i+2:], '}')
			if end < 0 {
				eval.AddText(raw[i:])
				break
			}
			name := raw[i+2 : i+2+end]
			eval.AddSpecial(name)
			i = i + 2 + end + 1
			continue
		}
		j := i + 1
		for j < len(raw) && (isIdentByte(raw[j])) {
			j++
		}
		if j == i+1 {
			eval.AddText("$")
			i++
			continue
		}
		eval.AddSpecial(raw[i+1 : j])
		i = j
	}
	return eval
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// readBlock collects the indented lines directly following lines[start],
// returning them dedented along with the index of the first line after
// the block.
func readBlock(lines []string, start int) ([]string, int) {
	var block []string
	i := start
	for i < len(lines) {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}
		if indentWidth(line) == 0 {
			break
		}
		block = append(block, strings.TrimSpace(line))
		i++
	}
	return block, i
}

func splitBinding(line string) (string, string, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("expected 'name = value' binding, got %q", line)
	}
	return strings.TrimSpace(line[:eq]), strings.TrimSpace(line[eq+1:]), nil
}

// splitPathList splits a whitespace-separated path list honoring "$ "
// as an escaped literal space within a single path.
func splitPathList(s string) []string {
	fields := strings.Fields(strings.ReplaceAll(s, "$ ", "\x00"))
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "\x00", " ")
	}
	return fields
}

func (this *ManifestParser) Parse(content string) error {
	rawLines := strings.Split(content, "\n")
	var lines []string
	for _, l := range rawLines {
		if idx := strings.IndexByte(l, '#'); idx >= 0 && indentWidth(l) == idx {
			continue
		}
		lines = append(lines, l)
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			i++
			continue
		}
		if indentWidth(line) != 0 {
			return fmt.Errorf("unexpected indent: %q", line)
		}

		switch {
		case strings.HasPrefix(trimmed, "rule "):
			name := strings.TrimSpace(trimmed[len("rule "):])
			block, next := readBlock(lines, i+1)
			rule := NewRule(name)
			for _, b := range block {
				key, val, err := splitBinding(b)
				if err != nil {
					return err
				}
				eval := parseValue(val)
				rule.AddBinding(key, eval)
			}
			this.env_.AddRule(rule)
			i = next

		case strings.HasPrefix(trimmed, "pool "):
			name := strings.TrimSpace(trimmed[len("pool "):])
			block, next := readBlock(lines, i+1)
			depth := 0
			for _, b := range block {
				key, val, err := splitBinding(b)
				if err != nil {
					return err
				}
				if key == "depth" {
					depth, err = strconv.Atoi(val)
					if err != nil {
						return fmt.Errorf("pool %s: %w", name, err)
					}
				}
			}
			this.state_.AddPool(NewPool(name, depth))
			i = next

		case strings.HasPrefix(trimmed, "build "):
			block, next := readBlock(lines, i+1)
			if err := this.parseBuild(trimmed[len("build "):], block); err != nil {
				return err
			}
			i = next

		case strings.HasPrefix(trimmed, "default"):
			for _, path := range splitPathList(strings.TrimSpace(trimmed[len("default"):])) {
				canon, _ := CanonicalizePath(path)
				if err := this.state_.AddDefault(canon); err != nil {
					return err
				}
			}
			i++

		case strings.Contains(trimmed, "="):
			key, val, err := splitBinding(trimmed)
			if err != nil {
				return err
			}
			ev := parseValue(val)
			this.env_.AddBinding(key, ev.Evaluate(this.env_))
			i++

		default:
			return fmt.Errorf("unexpected statement: %q", trimmed)
		}
	}
	return nil
}

// parseBuild handles "outs [| implicit-outs] : rule ins [| implicit-ins] [|| order-only-ins]".
func (this *ManifestParser) parseBuild(head string, block []string) error {
	colon := strings.IndexByte(head, ':')
	if colon < 0 {
		return fmt.Errorf("build statement missing ':': %q", head)
	}
	outsPart := head[:colon]
	rest := strings.TrimSpace(head[colon+1:])

	explicitOuts, implicitOuts := splitOnce(outsPart, "|")

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return fmt.Errorf("build statement missing rule name")
	}
	ruleName := fields[0]
	rule := this.env_.LookupRule(ruleName)
	if rule == nil {
		return fmt.Errorf("unknown build rule '%s'", ruleName)
	}
	insPart := strings.TrimSpace(rest[len(ruleName):])
	mainIns, orderIns := splitOnce(insPart, "||")
	explicitIns, implicitIns := splitOnce(mainIns, "|")

	edge := this.state_.AddEdge(rule)
	edge.env_ = this.env_

	for _, p := range splitPathList(explicitIns) {
		canon, sb := CanonicalizePath(p)
		this.state_.AddIn(edge, canon, sb)
	}
	for _, p := range splitPathList(implicitIns) {
		canon, sb := CanonicalizePath(p)
		this.state_.AddIn(edge, canon, sb)
	}
	edge.implicit_deps_ = len(splitPathList(implicitIns))
	for _, p := range splitPathList(orderIns) {
		canon, sb := CanonicalizePath(p)
		this.state_.AddIn(edge, canon, sb)
	}
	edge.order_only_deps_ = len(splitPathList(orderIns))

	for _, p := range splitPathList(explicitOuts) {
		canon, sb := CanonicalizePath(p)
		if err := this.state_.AddOut(edge, canon, sb); err != nil {
			return err
		}
	}
	for _, p := range splitPathList(implicitOuts) {
		canon, sb := CanonicalizePath(p)
		if err := this.state_.AddOut(edge, canon, sb); err != nil {
			return err
		}
	}
	edge.implicit_outs_ = len(splitPathList(implicitOuts))

	edgeEnv := NewBindingEnv(this.env_)
	edge.env_ = edgeEnv
	for _, b := range block {
		key, val, err := splitBinding(b)
		if err != nil {
			return err
		}
		if key == "pool" {
			pool := this.state_.LookupPool(val)
			if pool == nil {
				return fmt.Errorf("unknown pool '%s'", val)
			}
			edge.pool_ = pool
			continue
		}
		ev := parseValue(val)
		edgeEnv.AddBinding(key, ev.Evaluate(NewEdgeEnv(edge, kDoNotEscape)))
	}

	if dyndep := edge.GetUnescapedDyndep(); dyndep != "" {
		canon, sb := CanonicalizePath(dyndep)
		dyndepNode := this.state_.GetNode(canon, sb)
		dyndepNode.set_dyndep_pending(true)
		edge.dyndep_ = dyndepNode
	}
	return nil
}

// splitOnce splits s on the first occurrence of sep, returning the whole
// string and "" if sep does not appear.
func splitOnce(s, sep string) (before, after string) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+len(sep):]
}
