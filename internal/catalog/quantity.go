package catalog

import (
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// ExtractQuantity parses a quantity from free text. The first run of digits
// wins; otherwise the first spelled-out numeral from one to ten is used.
// Zero, negative or unparseable values yield false so the caller re-prompts.
func ExtractQuantity(text string) (int, bool) {
	if run := digitRun.FindString(text); run != "" {
		n, err := strconv.Atoi(run)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}

	for _, token := range Tokens(text) {
		if n, ok := spelledNumbers[token]; ok {
			return n, true
		}
	}
	return 0, false
}
