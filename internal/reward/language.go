package reward

import "unicode"

// dominantLanguage classifies s as "zh" (Chinese-dominant), "en" (English-
// dominant), or "mixed", by character ratio (§4.12.2: threshold 0.6 for
// Chinese, 0.7 for English). Pure punctuation/whitespace (no CJK or letter
// characters at all) returns "" — treated as consistent with anything, per
// the source behavior noted for this edge case.
func dominantLanguage(s string) string {
	var chinese, letters, total int
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			chinese++
			total++
		case unicode.IsLetter(r):
			letters++
			total++
		}
	}
	if total == 0 {
		return ""
	}

	chineseRatio := float64(chinese) / float64(total)
	englishRatio := float64(letters) / float64(total)
	switch {
	case chineseRatio >= 0.6:
		return "zh"
	case englishRatio >= 0.7:
		return "en"
	default:
		return "mixed"
	}
}

// languagesConsistent reports whether a and b share a dominant language.
// Either side having no classifiable characters counts as consistent.
func languagesConsistent(a, b string) bool {
	la, lb := dominantLanguage(a), dominantLanguage(b)
	if la == "" || lb == "" {
		return true
	}
	return la == lb
}
