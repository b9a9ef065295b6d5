// Package assemble shapes a reconstructed graph into a response that
// fits a fixed token budget. Rich views are built section by section in
// priority order; flat views shrink the whole list until it fits.
package assemble

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/memgraph/model"
)

// sectionState tracks what happened to a candidate section during
// assembly.
type sectionState string

const (
	sectionPending   sectionState = "pending"
	sectionFitted    sectionState = "fitted"
	sectionTruncated sectionState = "truncated"
	sectionOmitted   sectionState = "omitted"
)

// slackTokens is the remaining-budget threshold below which a
// non-critical section is no longer worth truncating into place.
const slackTokens = 100

// sectionJoiner separates committed sections in the final content. Its
// bytes count against the budget like any section text.
const sectionJoiner = "\n\n"

// flatShrinkFactor is the fraction of the previous length a flat view
// keeps per backoff round.
const flatShrinkFactor = 0.8

// section is one candidate block of a rich view. Priority orders the
// fit attempts, reserve is the minimum budget the section is worth
// building for, and critical marks the one section that is never
// omitted outright.
type section struct {
	name     string
	priority int
	reserve  int
	critical bool
	build    func(*Input) []string

	state sectionState
	lines []string
}

// richSections returns the candidate sections of a smart view, best
// first.
func richSections() []*section {
	return []*section{
		{name: "summary", priority: 100, reserve: 30, critical: true, build: summaryLines},
		{name: "api_surface", priority: 80, reserve: 120, build: apiSurfaceLines},
		{name: "file_structure", priority: 60, reserve: 60, build: fileStructureLines},
		{name: "dependencies", priority: 40, reserve: 40, build: dependencyLines},
		{name: "relations", priority: 20, reserve: 40, build: relationLines},
	}
}

// Assembler builds token-bounded graph views.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates a new response assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble renders the input according to the view configuration. The
// returned view's estimated size never exceeds the token limit; when
// even a truncated summary cannot fit, the view comes back with empty
// content, flagged truncated, with a diagnostic reason.
func (a *Assembler) Assemble(input *Input, config *model.ViewConfig) *model.GraphView {
	if config == nil {
		defaults := model.DefaultViewConfig()
		config = &defaults
	}
	limit := config.TokenLimit
	if limit <= 0 {
		limit = model.DefaultViewConfig().TokenLimit
	}
	if config.CenterEntity != "" {
		input = focus(input, config.CenterEntity)
	}

	switch config.Mode {
	case model.ViewModeEntities:
		return a.flatView(entityLines(input.Entities), limit, "entities")
	case model.ViewModeRelationships:
		return a.flatView(relationListLines(input.Relations), limit, "relationships")
	case model.ViewModeRaw:
		raw := append(entityLines(input.Entities), relationListLines(input.Relations)...)
		return a.flatView(raw, limit, "raw")
	default:
		return a.richView(input, limit)
	}
}

// richView runs the per-section state machine: each section starts
// Pending and ends Fitted, Truncated or Omitted.
func (a *Assembler) richView(input *Input, limit int) *model.GraphView {
	sections := richSections()
	remaining := limit
	committed := 0

	var reasons []string
	for _, sec := range sections {
		sec.state = sectionPending

		if remaining < sec.reserve && !sec.critical {
			sec.state = sectionOmitted
			reasons = append(reasons, fmt.Sprintf("%s section excluded due to token limit", sec.name))
			continue
		}

		lines := sec.build(input)
		if len(lines) == 0 {
			sec.state = sectionOmitted
			continue
		}

		// Every section after the first enters the content behind a
		// joiner, so its cost includes the joiner's bytes.
		prefix := ""
		if committed > 0 {
			prefix = sectionJoiner
		}

		tokens := EstimateTokens(prefix + strings.Join(lines, "\n"))
		if tokens <= remaining {
			sec.state = sectionFitted
			sec.lines = lines
			remaining -= tokens
			committed++
			continue
		}

		if !sec.critical && remaining <= slackTokens {
			sec.state = sectionOmitted
			reasons = append(reasons, fmt.Sprintf("%s section excluded due to token limit", sec.name))
			continue
		}

		truncated, tokens := truncateLines(lines, remaining, prefix)
		if len(truncated) == 0 {
			sec.state = sectionOmitted
			if sec.critical {
				// Not even a truncated summary fits. Returning an
				// oversized or garbled document is worse than an empty
				// one with a diagnostic.
				return &model.GraphView{
					TokenLimit: limit,
					Truncated:  true,
					Reason:     fmt.Sprintf("%s section alone exceeds the token limit", sec.name),
				}
			}
			reasons = append(reasons, fmt.Sprintf("%s section excluded due to token limit", sec.name))
			continue
		}
		sec.state = sectionTruncated
		sec.lines = truncated
		remaining -= tokens
		committed++
		reasons = append(reasons, fmt.Sprintf("%s section truncated due to token limit", sec.name))
	}

	var parts []string
	var included []string
	for _, sec := range sections {
		switch sec.state {
		case sectionFitted:
			parts = append(parts, strings.Join(sec.lines, "\n"))
			included = append(included, sec.name)
		case sectionTruncated:
			parts = append(parts, strings.Join(sec.lines, "\n"))
			included = append(included, sec.name+" (truncated)")
		}
	}

	content := strings.Join(parts, sectionJoiner)
	view := &model.GraphView{
		Content:         content,
		EstimatedTokens: EstimateTokens(content),
		TokenLimit:      limit,
		Truncated:       len(reasons) > 0,
		Sections:        included,
	}
	if len(reasons) > 0 {
		view.Reason = strings.Join(reasons, "; ")
	}

	a.logger.Debug("Assembled rich view",
		slog.Int("estimated_tokens", view.EstimatedTokens),
		slog.Int("token_limit", limit),
		slog.Bool("truncated", view.Truncated),
	)

	return view
}

// flatView fits a single list by shrinking it to 80% of its previous
// length until it fits the budget or is empty.
func (a *Assembler) flatView(lines []string, limit int, name string) *model.GraphView {
	total := len(lines)
	kept := lines
	for len(kept) > 0 && EstimateTokens(strings.Join(kept, "\n")) > limit {
		next := int(float64(len(kept)) * flatShrinkFactor)
		if next >= len(kept) {
			next = len(kept) - 1
		}
		kept = kept[:next]
	}

	content := strings.Join(kept, "\n")
	view := &model.GraphView{
		Content:         content,
		EstimatedTokens: EstimateTokens(content),
		TokenLimit:      limit,
		Truncated:       len(kept) < total,
		Sections:        []string{name},
	}
	if view.Truncated {
		view.Sections = []string{name + " (truncated)"}
		view.Reason = fmt.Sprintf("%s list truncated from %d to %d items due to token limit", name, total, len(kept))
	}
	return view
}

// truncateLines drops trailing lines until the prefixed joined text
// fits the budget. The first line is a header; a header alone is not
// worth keeping, so fewer than two surviving lines truncates to
// nothing.
func truncateLines(lines []string, budget int, prefix string) ([]string, int) {
	kept := lines
	for len(kept) > 1 {
		tokens := EstimateTokens(prefix + strings.Join(kept, "\n"))
		if tokens <= budget {
			return kept, tokens
		}
		kept = kept[:len(kept)-1]
	}
	return nil, 0
}

// focus keeps the center entity, its direct neighbors and the edges
// touching them.
func focus(input *Input, center string) *Input {
	keep := map[string]bool{center: true}
	var relations []*model.Relation
	for _, relation := range input.Relations {
		if relation.From == center || relation.To == center {
			keep[relation.From] = true
			keep[relation.To] = true
			relations = append(relations, relation)
		}
	}

	focused := &Input{Relations: relations}
	for _, entity := range input.Entities {
		if keep[entity.Name] {
			focused.Entities = append(focused.Entities, entity)
		}
	}
	for _, chunk := range input.Implementations {
		if keep[chunk.EntityName] {
			focused.Implementations = append(focused.Implementations, chunk)
		}
	}
	return focused
}
