package summarizer

import (
	"regexp"
	"strings"
)

// Summary holds the four extracted text blocks of a model response.
type Summary struct {
	Overall   string
	RootCause string
	Impact    string
	NextSteps string
}

// genericOverall substitutes for a response with no usable overview line.
const genericOverall = "Suspicious activity detected requiring investigation."

// headerRe matches a section header at the start of a line: an ALL_CAPS word
// followed by a colon, possibly wrapped in markdown bold.
var headerRe = regexp.MustCompile(`(?m)^\**([A-Z][A-Z_]+)\**:`)

// Parse extracts the four labeled sections from a model response.
// When any of the three bulleted sections is missing it falls back to bullet
// salvage (see parseFallback); ok reports whether the primary strategy
// succeeded. Parse never fails — worst case every field is empty except
// Overall, and the caller tops up the blanks from the canned table.
func Parse(response string) (s Summary, ok bool) {
	sections := splitSections(response)
	s = Summary{
		Overall:   sections["OVERALL_SUMMARY"],
		RootCause: sections["ROOT_CAUSE"],
		Impact:    sections["IMPACT"],
		NextSteps: sections["NEXT_STEPS"],
	}
	if s.RootCause == "" || s.Impact == "" || s.NextSteps == "" {
		return parseFallback(response), false
	}
	if s.Overall == "" {
		s.Overall = genericOverall
	}
	return s, true
}

// splitSections maps each recognized header to the text between it and the
// next header (or end of input).
func splitSections(text string) map[string]string {
	matches := headerRe.FindAllStringSubmatchIndex(text, -1)
	sections := make(map[string]string, len(matches))
	for i, m := range matches {
		name := text[m[2]:m[3]]
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[name] = strings.TrimSpace(text[start:end])
	}
	return sections
}

// parseFallback salvages an unlabeled response: every bullet line is kept and
// partitioned into three equal chunks (root cause, impact, next steps, the
// final chunk absorbing the remainder), and the first non-bullet line longer
// than 20 characters becomes the overall summary.
func parseFallback(response string) Summary {
	var lines []string
	for _, line := range strings.Split(response, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}

	var bullets []string
	for _, line := range lines {
		if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			bullets = append(bullets, line)
		}
	}

	chunk := (len(bullets) + 2) / 3
	s := Summary{
		RootCause: strings.Join(sliceChunk(bullets, 0, chunk), "\n"),
		Impact:    strings.Join(sliceChunk(bullets, chunk, 2*chunk), "\n"),
		NextSteps: strings.Join(sliceChunk(bullets, 2*chunk, len(bullets)), "\n"),
	}

	for _, line := range lines {
		if !strings.HasPrefix(line, "•") && !strings.HasPrefix(line, "-") &&
			!strings.HasPrefix(line, "*") && len(line) > 20 {
			s.Overall = line
			break
		}
	}
	if s.Overall == "" {
		s.Overall = genericOverall
	}
	return s
}

// sliceChunk is bullets[from:to] clamped to the slice bounds.
func sliceChunk(bullets []string, from, to int) []string {
	if from > len(bullets) {
		from = len(bullets)
	}
	if to > len(bullets) {
		to = len(bullets)
	}
	return bullets[from:to]
}
