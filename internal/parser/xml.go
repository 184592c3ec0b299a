package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// ParseXMLField extracts the contents of <tag>...</tag>, preferring a
// <![CDATA[...]]> payload when present. Embedded HTML comments are stripped.
// Returns "" if the tag is absent.
func ParseXMLField(text, tag string) string {
	cdata := regexp.MustCompile(fmt.Sprintf(`(?s)<%s>\s*<!\[CDATA\[(.*?)\]\]>\s*</%s>`, tag, tag))
	if m := cdata.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(commentRe.ReplaceAllString(m[1], ""))
	}

	plain := regexp.MustCompile(fmt.Sprintf(`(?s)<%s>(.*?)</%s>`, tag, tag))
	if m := plain.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(commentRe.ReplaceAllString(m[1], ""))
	}

	return ""
}

// VariationField is one augmented query candidate recovered from a
// <variation_N>...</variation_N> block.
type VariationField struct {
	Question    string
	Context     string
	Constraints string
	Mode        string
}

var variationTagRe = regexp.MustCompile(`(?s)<variation_(\d+)>(.*?)</variation_\d+>`)
var questionTagRe = regexp.MustCompile(`(?s)<question>(.*?)</question>`)

// ParseVariations scans text for <variation_N>...</variation_N> blocks, each
// expected to carry <question>, <context>, and <constraints> children. If no
// variation blocks are found, it falls back to enumerating bare <question>
// tags (one variation per tag, context/constraints left empty).
func ParseVariations(text, mode string) []VariationField {
	matches := variationTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		var out []VariationField
		for _, q := range questionTagRe.FindAllStringSubmatch(text, -1) {
			out = append(out, VariationField{
				Question: strings.TrimSpace(commentRe.ReplaceAllString(q[1], "")),
				Mode:     mode,
			})
		}
		return out
	}

	out := make([]VariationField, 0, len(matches))
	for _, m := range matches {
		body := m[2]
		out = append(out, VariationField{
			Question:    ParseXMLField(body, "question"),
			Context:     ParseXMLField(body, "context"),
			Constraints: ParseXMLField(body, "constraints"),
			Mode:        mode,
		})
	}
	return out
}
