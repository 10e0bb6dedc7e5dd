package githubhttp

import "regexp"

// Token shapes that must never reach a log line: query-string credentials
// plus GitHub's prefixed token formats.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(token|access_token)=[^&"\s]+`),
	regexp.MustCompile(`(?i)(authorization: *)(?:bearer|token) +\S+`),
	regexp.MustCompile(`\b(?:ghp|gho|ghs|ghu|ghr)_[A-Za-z0-9]{20,}\b`),
	regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{20,}\b`),
}

var redactReplacements = []string{
	"$1=[REDACTED]",
	"$1[REDACTED]",
	"[REDACTED]",
	"[REDACTED]",
}

// RedactSecrets scrubs credentials from text destined for logs or error
// output.
func RedactSecrets(text string) string {
	if text == "" {
		return text
	}
	for i, re := range redactPatterns {
		text = re.ReplaceAllString(text, redactReplacements[i])
	}
	return text
}
