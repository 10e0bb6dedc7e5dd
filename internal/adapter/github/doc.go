// Package github is the REST client for the review platform.
//
// The client is bound to a single owner/repo pair at construction because
// the bot reviews exactly one repository per process. It exposes the
// surfaces the bot needs: pull request metadata, changed files, review
// comments, commit statuses, file contents, and the repository event
// feed. Responses are translated into domain types at the boundary so
// nothing above this package sees wire formats.
package github
