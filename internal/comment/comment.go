// Package comment owns the exact text format of every review comment the
// bot writes, and the parsing that recovers state from comments it finds.
//
// A bot comment body is:
//
//	_[lintbot vX.Y](https://github.com/bkyoung/lintbot)_
//	* first violation message
//	* second violation message
//
// The signature line is the sole self-recognition mechanism: any comment
// whose body starts with the version-independent prefix "_[lintbot " was
// authored by this bot, regardless of which release wrote it.
package comment

import (
	"fmt"
	"strings"

	"github.com/bkyoung/lintbot/internal/version"
)

const (
	prefix  = "_[lintbot "
	repoURL = "https://github.com/bkyoung/lintbot"
)

// Signature returns the first line of every comment this build writes.
func Signature() string {
	return fmt.Sprintf("_[lintbot v%s](%s)_", version.Value(), repoURL)
}

// IsBotComment reports whether body was written by any version of the bot.
func IsBotComment(body string) bool {
	return strings.HasPrefix(body, prefix)
}

// BuildBody renders the comment body for one diff position: the signature
// line followed by one bullet per message.
func BuildBody(messages []string) string {
	var b strings.Builder
	b.WriteString(Signature())
	for _, msg := range messages {
		b.WriteString("\n* ")
		b.WriteString(msg)
	}
	return b.String()
}

// ParseBody recovers the bulleted messages from a bot comment body. Lines
// that are not bullets (the signature line included) are ignored.
func ParseBody(body string) []string {
	var messages []string
	for i, line := range strings.Split(body, "\n") {
		if i == 0 {
			continue
		}
		msg, ok := strings.CutPrefix(line, "* ")
		if !ok || msg == "" {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}
