package legal

import "strings"

// ApplyDisclaimer appends disclaimer to answer once. An answer that already ends with
// the disclaimer is returned unchanged.
func ApplyDisclaimer(answer, disclaimer string) string {
	answer = strings.TrimRight(answer, " \t\n")
	disclaimer = strings.TrimSpace(disclaimer)
	if disclaimer == "" {
		return answer
	}
	if strings.HasSuffix(answer, disclaimer) {
		return answer
	}
	if answer == "" {
		return disclaimer
	}
	return answer + "\n\n" + disclaimer
}
