package scope

import (
	"regexp"
	"strings"

	"github.com/siherrmann/memgraph/model"
)

// ExpansionMetadata is the edge information driving an expansion:
// which names the target calls, which modules it imports and which
// file it lives in.
type ExpansionMetadata struct {
	Calls       []string
	ImportsUsed []string
	FilePaths   []string
}

// callPattern matches identifier call sites in implementation text.
var callPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// importPattern matches import statements at the start of a line.
var importPattern = regexp.MustCompile(`(?m)^\s*(?:from|import)\s+([A-Za-z_][A-Za-z0-9_.]*)`)

// keywords that look like call sites to the pattern but never name an
// entity.
var callStopwords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"return": true, "func": true, "def": true, "new": true,
	"print": true, "len": true, "range": true, "make": true,
}

// DeriveMetadata collects calls, imports and file paths from the given
// implementation chunks. Structured semantic metadata wins when a
// chunk carries it; otherwise the edges are recovered by pattern
// extraction over the implementation text. The fallback is lossy, it
// exists so chunks ingested without analysis still expand usefully.
func DeriveMetadata(chunks []*model.Chunk) *ExpansionMetadata {
	meta := &ExpansionMetadata{}
	seenCalls := map[string]bool{}
	seenImports := map[string]bool{}
	seenFiles := map[string]bool{}

	addCall := func(name string) {
		if name != "" && !seenCalls[name] {
			seenCalls[name] = true
			meta.Calls = append(meta.Calls, name)
		}
	}
	addImport := func(name string) {
		if name != "" && !seenImports[name] {
			seenImports[name] = true
			meta.ImportsUsed = append(meta.ImportsUsed, name)
		}
	}

	for _, chunk := range chunks {
		if chunk.FilePath != "" && !seenFiles[chunk.FilePath] {
			seenFiles[chunk.FilePath] = true
			meta.FilePaths = append(meta.FilePaths, chunk.FilePath)
		}

		if chunk.Semantic != nil {
			for _, call := range chunk.Semantic.Calls {
				addCall(call)
			}
			for _, imported := range chunk.Semantic.ImportsUsed {
				addImport(imported)
			}
			continue
		}

		for _, call := range extractCalls(chunk.Content) {
			addCall(call)
		}
		for _, imported := range extractImports(chunk.Content) {
			addImport(imported)
		}
	}

	return meta
}

func extractCalls(content string) []string {
	var calls []string
	for _, match := range callPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if callStopwords[strings.ToLower(name)] {
			continue
		}
		calls = append(calls, name)
	}
	return calls
}

func extractImports(content string) []string {
	var imports []string
	for _, match := range importPattern.FindAllStringSubmatch(content, -1) {
		imports = append(imports, match[1])
	}
	return imports
}
