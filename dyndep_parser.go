package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// DyndepParser reads the simple line-oriented dyndep format this module
// uses in place of ninja's own dyndep grammar (manifest-language parsing
// is out of scope per this module's non-goals; a dyndep file here is
// generated by this same toolchain's earlier build step, not hand-authored,
// so it does not need ninja's variable-expansion syntax):
//
//	version 1
//	edge <output-path>
//	  restat true
//	  in <path> <path> ...
//	  out <path> <path> ...
//
// Blank lines and lines starting with # are ignored. Every "edge" block
// must name a path that already has a build statement in state.
type DyndepParser struct {
	state_          *State
	disk_interface_ DiskInterface
}

func NewDyndepParser(state *State, disk DiskInterface) *DyndepParser {
	return &DyndepParser{state_: state, disk_interface_: disk}
}

func (this *DyndepParser) Parse(path string, out DyndepFile) error {
	content, status, err := this.disk_interface_.ReadFile(path)
	if err != nil {
		return err
	}
	if status == NotFound {
		return fmt.Errorf("loading '%s': no such dyndep file", path)
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	sawVersion := false
	var current *Dyndeps
	var currentEdge *Edge

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "version":
			if len(fields) != 2 || fields[1] != "1" {
				return fmt.Errorf("%s: unsupported dyndep version", path)
			}
			sawVersion = true
		case "edge":
			if !sawVersion {
				return fmt.Errorf("%s: expected 'version 1' before any edge block", path)
			}
			if len(fields) != 2 {
				return fmt.Errorf("%s: expected 'edge <output-path>'", path)
			}
			outPath, slashBits := CanonicalizePath(fields[1])
			node := this.state_.LookupNode(outPath)
			if node == nil || node.in_edge() == nil {
				return fmt.Errorf("%s: no build statement exists for '%s'", path, outPath)
			}
			_ = slashBits
			currentEdge = node.in_edge()
			if _, exists := out[currentEdge]; exists {
				return fmt.Errorf("%s: multiple dyndep entries for '%s'", path, outPath)
			}
			current = &Dyndeps{}
			out[currentEdge] = current
		case "restat":
			if current == nil {
				return fmt.Errorf("%s: 'restat' outside an edge block", path)
			}
			if len(fields) != 2 {
				return fmt.Errorf("%s: expected 'restat <bool>'", path)
			}
			v, err := strconv.ParseBool(fields[1])
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			current.restat = v
		case "in":
			if current == nil {
				return fmt.Errorf("%s: 'in' outside an edge block", path)
			}
			for _, raw := range fields[1:] {
				p, slashBits := CanonicalizePath(raw)
				n := this.state_.GetNode(p, slashBits)
				current.implicitInputs = append(current.implicitInputs, n)
			}
		case "out":
			if current == nil {
				return fmt.Errorf("%s: 'out' outside an edge block", path)
			}
			for _, raw := range fields[1:] {
				p, slashBits := CanonicalizePath(raw)
				n := this.state_.GetNode(p, slashBits)
				current.implicitOutputs = append(current.implicitOutputs, n)
			}
		default:
			return fmt.Errorf("%s: unexpected token '%s'", path, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !sawVersion {
		return fmt.Errorf("%s: missing 'version 1'", path)
	}
	return nil
}
