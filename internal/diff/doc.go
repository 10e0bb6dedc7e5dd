// Package diff maps unified-diff hunk text to the position offsets GitHub
// uses to anchor inline review comments.
//
// Positions are 0-based and count every hunk header, context, added, and
// removed line; "no newline at end of file" markers are not counted. Only
// lines introduced by the patch ("+" records) appear in the resulting map,
// keyed by their line number in the post-patch file.
package diff
