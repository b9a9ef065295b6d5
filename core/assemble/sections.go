package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siherrmann/memgraph/model"
)

// Input is the material a view is assembled from: the reconstructed
// graph plus any implementation chunks available for source-level
// sections.
type Input struct {
	Entities        []*model.Entity
	Relations       []*model.Relation
	Implementations []*model.Chunk
}

// relationSampleCap bounds the non-inheritance edge sample in the
// relations section.
const relationSampleCap = 15

// summaryLines renders counts, the entity-type breakdown and the
// largest source files.
func summaryLines(input *Input) []string {
	lines := []string{
		"## Summary",
		fmt.Sprintf("Entities: %d, relations: %d", len(input.Entities), len(input.Relations)),
	}

	typeCounts := map[string]int{}
	for _, entity := range input.Entities {
		typeCounts[entity.EntityType]++
	}
	for _, entityType := range sortedKeys(typeCounts) {
		lines = append(lines, fmt.Sprintf("- %s: %d", entityType, typeCounts[entityType]))
	}

	fileCounts := map[string]int{}
	for _, chunk := range input.Implementations {
		if chunk.FilePath != "" {
			fileCounts[chunk.FilePath]++
		}
	}
	if len(fileCounts) > 0 {
		lines = append(lines, "Main source files:")
		files := sortedKeys(fileCounts)
		sort.SliceStable(files, func(i, j int) bool {
			return fileCounts[files[i]] > fileCounts[files[j]]
		})
		if len(files) > 5 {
			files = files[:5]
		}
		for _, file := range files {
			lines = append(lines, fmt.Sprintf("- %s (%d entities)", file, fileCounts[file]))
		}
	}
	return lines
}

// apiSurfaceLines renders public implementations with their location,
// signature and a short doc excerpt from the owning entity.
func apiSurfaceLines(input *Input) []string {
	observations := map[string][]string{}
	for _, entity := range input.Entities {
		observations[entity.Name] = entity.Observations
	}

	lines := []string{"## API surface"}
	for _, chunk := range input.Implementations {
		if strings.HasPrefix(chunk.EntityName, "_") {
			continue
		}

		line := fmt.Sprintf("- %s (%s:%d)", chunk.EntityName, chunk.FilePath, chunk.LineStart)
		if signature := firstLine(chunk.Content); signature != "" {
			line += " " + signature
		}
		if obs := observations[chunk.EntityName]; len(obs) > 0 {
			line += " — " + excerpt(obs[0], 80)
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		return nil
	}
	return lines
}

// fileStructureLines renders each source file with its entity count.
func fileStructureLines(input *Input) []string {
	counts := map[string]int{}
	for _, chunk := range input.Implementations {
		if chunk.FilePath != "" {
			counts[chunk.FilePath]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	lines := []string{"## File structure"}
	for _, file := range sortedKeys(counts) {
		lines = append(lines, fmt.Sprintf("- %s: %d entities", file, counts[file]))
	}
	return lines
}

// dependencyLines splits recorded import targets into internal (an
// entity of this graph) and external.
func dependencyLines(input *Input) []string {
	known := map[string]bool{}
	for _, entity := range input.Entities {
		known[entity.Name] = true
	}

	internal := map[string]bool{}
	external := map[string]bool{}
	for _, chunk := range input.Implementations {
		if chunk.Semantic == nil {
			continue
		}
		for _, imported := range chunk.Semantic.ImportsUsed {
			if known[imported] {
				internal[imported] = true
			} else {
				external[imported] = true
			}
		}
	}
	if len(internal) == 0 && len(external) == 0 {
		return nil
	}

	lines := []string{"## Dependencies"}
	if len(external) > 0 {
		lines = append(lines, "External: "+strings.Join(sortedKeys(external), ", "))
	}
	if len(internal) > 0 {
		lines = append(lines, "Internal: "+strings.Join(sortedKeys(internal), ", "))
	}
	return lines
}

// relationLines renders inheritance edges in full and a capped sample
// of the remaining edges.
func relationLines(input *Input) []string {
	if len(input.Relations) == 0 {
		return nil
	}

	lines := []string{"## Relations"}
	var other []*model.Relation
	for _, relation := range input.Relations {
		if isInheritance(relation.RelationType) {
			lines = append(lines, relationLine(relation))
		} else {
			other = append(other, relation)
		}
	}

	sampled := other
	if len(sampled) > relationSampleCap {
		sampled = sampled[:relationSampleCap]
	}
	for _, relation := range sampled {
		lines = append(lines, relationLine(relation))
	}
	if len(other) > len(sampled) {
		lines = append(lines, fmt.Sprintf("... and %d more relations", len(other)-len(sampled)))
	}
	return lines
}

func relationLine(relation *model.Relation) string {
	return fmt.Sprintf("- %s -[%s]-> %s", relation.From, relation.RelationType, relation.To)
}

func isInheritance(relationType string) bool {
	lower := strings.ToLower(relationType)
	return strings.Contains(lower, "inherit") || strings.Contains(lower, "extends")
}

// entityLines renders the flat entities view.
func entityLines(entities []*model.Entity) []string {
	lines := make([]string, 0, len(entities))
	for _, entity := range entities {
		line := fmt.Sprintf("- %s (%s)", entity.Name, entity.EntityType)
		if len(entity.Observations) > 0 {
			line += ": " + excerpt(strings.Join(entity.Observations, ". "), 120)
		}
		lines = append(lines, line)
	}
	return lines
}

// relationListLines renders the flat relations view.
func relationListLines(relations []*model.Relation) []string {
	lines := make([]string, 0, len(relations))
	for _, relation := range relations {
		lines = append(lines, relationLine(relation))
	}
	return lines
}

func firstLine(text string) string {
	if n := strings.IndexByte(text, '\n'); n >= 0 {
		return strings.TrimSpace(text[:n])
	}
	return strings.TrimSpace(text)
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
