package summarizer

import (
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/gitmonhq/gitmon/models"
)

//go:embed fallbacks/fallbacks.yaml
var fallbacksRaw []byte

// cannedContent is one entry of the embedded fallback table.
type cannedContent struct {
	RootCause string `yaml:"root_cause"`
	Impact    string `yaml:"impact"`
	NextSteps string `yaml:"next_steps"`
}

var cannedTable = mustLoadFallbacks()

func mustLoadFallbacks() map[models.EventKind]cannedContent {
	var table map[models.EventKind]cannedContent
	if err := yaml.Unmarshal(fallbacksRaw, &table); err != nil {
		panic(fmt.Sprintf("summarizer: embedded fallback table is invalid: %v", err))
	}
	if _, ok := table[models.KindUnknown]; !ok {
		panic("summarizer: embedded fallback table is missing the unknown entry")
	}
	return table
}

// cannedFor returns the fallback content for an event kind, defaulting to the
// generic entry for kinds without their own.
func cannedFor(kind models.EventKind) cannedContent {
	if c, ok := cannedTable[kind]; ok {
		return c
	}
	return cannedTable[models.KindUnknown]
}

// CannedSummary synthesizes the full fallback summary for evt. It is used
// when the backend call itself fails, guaranteeing that every suspicious
// event yields a complete report even under total backend unavailability.
func CannedSummary(evt *models.Event) Summary {
	c := cannedFor(models.KindOf(evt.Type))
	repo := evt.RepoName
	if repo == "" {
		repo = "unknown repository"
	}
	return Summary{
		Overall:   fmt.Sprintf("Suspicious %s activity detected in %s requiring investigation.", evt.Type, repo),
		RootCause: c.RootCause,
		Impact:    c.Impact,
		NextSteps: c.NextSteps,
	}
}

// fillBlanks tops up empty fields of s from the canned table so a report is
// never persisted with a missing section.
func fillBlanks(s Summary, evt *models.Event) Summary {
	c := cannedFor(models.KindOf(evt.Type))
	if s.RootCause == "" {
		s.RootCause = c.RootCause
	}
	if s.Impact == "" {
		s.Impact = c.Impact
	}
	if s.NextSteps == "" {
		s.NextSteps = c.NextSteps
	}
	if s.Overall == "" {
		s.Overall = genericOverall
	}
	return s
}
