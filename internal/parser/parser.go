// Package parser recovers JSON and XML structures from free-form LLM text:
// reasoning blocks, code fences, and regex-extracted fallbacks. Every parse
// function is pure and never panics; callers turn a non-nil Err into a
// judge's safe-default score rather than propagating it.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Parsed is the uniform result of a parse attempt.
type Parsed struct {
	Value   any
	Thought string
	Raw     string
	Err     error
}

var (
	fenceOpen  = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json)?\s*\n?`)
	fenceClose = regexp.MustCompile("(?s)```\\s*$")
	braceWidest = regexp.MustCompile(`(?s)\{.*\}`)
	bracketWidest = regexp.MustCompile(`(?s)\[.*\]`)
)

const thinkCloseTag = "</think>"

// ParseJSON recovers a JSON value from free-form text.
//
// Procedure: strip leading whitespace; drop everything up to and including
// a "</think>" tag if present (recording it as Thought); strip one leading
// and one trailing code fence; attempt a strict parse; on failure,
// regex-search the widest {...} or [...] span and parse that.
func ParseJSON(text string) Parsed {
	cleaned := strings.TrimLeft(text, " \t\r\n")

	var thought string
	if idx := strings.Index(cleaned, thinkCloseTag); idx >= 0 {
		thought = cleaned[:idx]
		cleaned = cleaned[idx+len(thinkCloseTag):]
		cleaned = strings.TrimLeft(cleaned, " \t\r\n")
	}

	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err == nil {
		return Parsed{Value: value, Thought: thought, Raw: cleaned}
	}

	if candidate, ok := widestSpan(cleaned); ok {
		if err := json.Unmarshal([]byte(candidate), &value); err == nil {
			return Parsed{Value: value, Thought: thought, Raw: candidate}
		}
	}

	return Parsed{Thought: thought, Raw: cleaned, Err: errNoJSON}
}

// widestSpan returns the longer of the widest {...} substring and the widest
// [...] substring, the {...} one on equal length; where each starts is not
// considered.
func widestSpan(s string) (string, bool) {
	obj := braceWidest.FindString(s)
	arr := bracketWidest.FindString(s)
	switch {
	case obj == "" && arr == "":
		return "", false
	case obj == "":
		return arr, true
	case arr == "":
		return obj, true
	case len(obj) >= len(arr):
		return obj, true
	default:
		return arr, true
	}
}

var errNoJSON = jsonParseError("no JSON value could be recovered from text")

type jsonParseError string

func (e jsonParseError) Error() string { return string(e) }

// ParseInto parses text as JSON and decodes it into v, returning the
// underlying Parsed (whose Err reflects either the parse failure or a
// subsequent json.Unmarshal-into-v failure).
func ParseInto(text string, v any) Parsed {
	p := ParseJSON(text)
	if p.Err != nil {
		return p
	}
	raw, err := json.Marshal(p.Value)
	if err != nil {
		p.Err = err
		return p
	}
	if err := json.Unmarshal(raw, v); err != nil {
		p.Err = err
		return p
	}
	return p
}
