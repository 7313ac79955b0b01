// Package transform rewrites raw log text for display: bracketed timestamps
// gain a relative-time annotation, stack-frame paths are resolved against the
// host's root path, and double-space runs become line breaks.
package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// now is overridable in tests for deterministic relative times.
var now = time.Now

// timestampPattern matches bracketed GMT timestamps such as
// "[Thu Jan 01 1970 00:00:00 GMT]".
var timestampPattern = regexp.MustCompile(`\[([^\[\]]*?GMT[^\[\]]*)\]`)

// timestampLayouts are tried in order when parsing a bracketed timestamp.
var timestampLayouts = []string{
	"Mon Jan 02 2006 15:04:05 GMT",
	"Mon Jan 2 2006 15:04:05 GMT",
	"Mon, 02 Jan 2006 15:04:05 GMT",
}

// stackFramePattern matches stack lines of the form "\tat <path>:<line> (".
var stackFramePattern = regexp.MustCompile(`\tat ([^\s:()]+):(\d+) \(`)

// Apply runs the full transformation pipeline in order: timestamp
// relativization, stack-frame path rewriting, then paragraph re-flow.
// The order is fixed for bit-exact compatibility with stored output.
func Apply(text, rootPath string) string {
	text = RelativizeTimestamps(text)
	text = RewriteStackPaths(text, rootPath)
	return Reflow(text)
}

// RelativizeTimestamps replaces every bracketed GMT timestamp with a
// blank-line-separated block pairing a "time ago" rendering with the
// original date. Unparsable dates render "Invalid Date" in place of the
// relative part; this is not an error.
func RelativizeTimestamps(text string) string {
	return timestampPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[1 : len(m)-1]
		return fmt.Sprintf("\n\n[%s/%s]\n", relativeTime(inner), inner)
	})
}

// relativeTime renders a parsed timestamp as a human "time ago" string.
func relativeTime(s string) string {
	var t time.Time
	var err error
	for _, layout := range timestampLayouts {
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			break
		}
	}
	if err != nil {
		return "Invalid Date"
	}

	d := now().UTC().Sub(t)
	if d < 0 {
		d = -d
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

// RewriteStackPaths joins stack-frame file paths onto the configured root
// path and renders them as addressable locations:
// "\tat app/Foo.js:12 (" becomes "\tat /root/app/Foo.js#12 (".
func RewriteStackPaths(text, rootPath string) string {
	return stackFramePattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := stackFramePattern.FindStringSubmatch(m)
		resolved := path.Join(rootPath, sub[1])
		return fmt.Sprintf("\tat %s#%s (", resolved, sub[2])
	})
}

// Reflow replaces every double-space sequence with a newline, compensating
// for servers that emit log messages without real line breaks.
func Reflow(text string) string {
	return strings.ReplaceAll(text, "  ", "\n")
}
