package review

import (
	"fmt"
	"math/rand"
)

// approvalPhrases is the pool a passing review's status description draws
// from.
var approvalPhrases = []string{
	"Excellent",
	"Good job",
	"Great work",
	"Looks good",
	"Nice work",
	"Well done",
}

func approvalPhrase() string {
	return approvalPhrases[rand.Intn(len(approvalPhrases))]
}

// plural renders a count with its noun: "1 issue", "3 issues".
func plural(count int, word string) string {
	if count == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", count, word)
}
