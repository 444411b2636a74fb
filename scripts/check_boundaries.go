package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "livevote"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer may import besides the standard library.
// Paths are relative to the owning service, e.g. "domain" or "ports".
type layerRule struct {
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain":      {allowed: []string{"domain"}},
	"ports":       {allowed: []string{"domain"}},
	"application": {allowed: []string{"application", "domain", "ports"}},
	"transport":   {allowed: []string{"transport"}},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{
			File: normalizedPath,
			Line: 1,
			Rule: "file must parse",
		}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		violations = append(violations, checkImport(normalizedPath, line, importPath, layer, servicePrefix)...)
	}
	return violations
}

func checkImport(file string, line int, importPath string, layer string, servicePrefix string) []violation {
	var violations []violation
	add := func(rule string) {
		violations = append(violations, violation{
			File:   file,
			Line:   line,
			Import: importPath,
			Rule:   rule,
		})
	}

	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		add("cross-module imports are forbidden")
	}

	rule, guarded := layerRules[layer]
	if !guarded {
		return violations
	}

	if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
		add(layer + " must not import adapters")
	}
	if hasPrefix(importPath, modulePath+"/internal") {
		add(layer + " must not import runtime infrastructure")
	}

	allowed := make([]string, 0, len(rule.allowed))
	for _, rel := range rule.allowed {
		allowed = append(allowed, servicePrefix+"/"+rel)
	}
	if isStdlib(importPath) || isAllowed(importPath, allowed) {
		return violations
	}
	add(layer + " import is outside explicit allowlist")
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
