// Package parsons converts between the text form of a Parsons problem and
// its ordered code fragments.
//
// A fragment spans consecutive lines joined by a trailing "#continue"
// marker. A trailing "#distractor" marker on any of its lines flags the
// whole fragment. A "// comment" suffix is extracted per line and joined with
// spaces. Indentation is counted in two-space units from the first line.
package parsons

import (
	"regexp"
	"strings"
)

const (
	continueMarker   = "#continue"
	distractorMarker = "#distractor"
	indentUnit       = "  "
)

// Fragment is one reorderable code unit.
type Fragment struct {
	Code       string `json:"code"`
	Comment    string `json:"comment,omitempty"`
	Distractor bool   `json:"distractor,omitempty"`
	Indent     int    `json:"indent"`
}

var commentPattern = regexp.MustCompile(`^(.+?)\s*//(.*)$`)

// Parse splits text into fragments. Blank lines are skipped.
func Parse(text string) []Fragment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		fragments []Fragment
		current   *Fragment
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		leading := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		indent := leading / 2

		hasContinue := strings.HasSuffix(line, continueMarker)
		hasDistractor := strings.HasSuffix(line, distractorMarker)

		code := line
		if hasContinue {
			code = strings.TrimSpace(strings.TrimSuffix(line, continueMarker))
		}
		if hasDistractor {
			code = strings.TrimSpace(strings.TrimSuffix(line, distractorMarker))
		}

		comment := ""
		if m := commentPattern.FindStringSubmatch(code); m != nil {
			code = strings.TrimSpace(m[1])
			comment = strings.TrimSpace(m[2])
		}

		if current == nil {
			current = &Fragment{
				Code:       code,
				Comment:    comment,
				Distractor: hasDistractor,
				Indent:     indent,
			}
		} else {
			current.Code += "\n" + code
			if comment != "" {
				if current.Comment != "" {
					current.Comment += " " + comment
				} else {
					current.Comment = comment
				}
			}
			current.Distractor = current.Distractor || hasDistractor
		}

		if !hasContinue {
			fragments = append(fragments, *current)
			current = nil
		}
	}
	if current != nil {
		fragments = append(fragments, *current)
	}
	return fragments
}

// Format renders fragments back to text. It is the inverse of Parse for
// input without leading or trailing blank lines.
func Format(fragments []Fragment) string {
	blocks := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		lines := strings.Split(fragment.Code, "\n")
		var b strings.Builder
		for i, line := range lines {
			if i == 0 {
				b.WriteString(strings.Repeat(indentUnit, max(fragment.Indent, 0)))
			}
			b.WriteString(line)
			if i == 0 && fragment.Comment != "" {
				b.WriteString(" // ")
				b.WriteString(fragment.Comment)
			}
			if i < len(lines)-1 {
				b.WriteString(" " + continueMarker + "\n")
			} else if fragment.Distractor {
				b.WriteString(" " + distractorMarker)
			}
		}
		blocks = append(blocks, strings.TrimRight(b.String(), " \n"))
	}
	return strings.Join(blocks, "\n\n")
}

// Normalize returns the canonical text form of text.
func Normalize(text string) string {
	return Format(Parse(text))
}
