package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func PrintJSONString(in string) {
	var val interface{}
	err := json.Unmarshal([]byte(in), &val)
	if err != nil {
		panic(err)
	}
	out, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		fmt.Println("JSON encoding failed:", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(out))
}

// CompdbEntry is one clang-compatible compilation database record.
type CompdbEntry struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// WriteCompdb serializes edges (in the order CommandCollector produced
// them) as a JSON compilation database, restricted to rules named in
// ruleNames when that filter is non-empty.
func WriteCompdb(w *os.File, directory string, edges []*Edge, ruleNames map[string]bool) error {
	entries := make([]CompdbEntry, 0, len(edges))
	for _, e := range edges {
		if len(ruleNames) > 0 && !ruleNames[e.rule().name()] {
			continue
		}
		for _, in := range e.inputs_ {
			entries = append(entries, CompdbEntry{
				Directory: directory,
				Command:   e.EvaluateCommand(true),
				File:      in.path(),
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
