package reward

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s)\]}"']+`)

// extractURLs returns every URL substring in s, in order of appearance.
func extractURLs(s string) []string {
	return urlPattern.FindAllString(s, -1)
}

// urlsGroundedInTrajectory reports whether every URL in answer also appears
// somewhere in the trajectory's text (tool results or assistant content) —
// the cheap pre-check before invoking a URL-verification judge (§4.12.3).
func urlsGroundedInTrajectory(answer string, trajectoryText string) bool {
	for _, u := range extractURLs(answer) {
		if !strings.Contains(trajectoryText, u) {
			return false
		}
	}
	return true
}
