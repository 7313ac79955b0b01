// Package listing parses multi-status directory listings returned by remote
// application servers into log file descriptors.
package listing

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/massimosiani/prophet/internal/types"
)

// instanceQualifier matches per-instance log name qualifiers such as
// "-blade3-1-appserver". Stripping it normalizes logically identical files
// from different backend nodes to a single canonical name.
var instanceQualifier = regexp.MustCompile(`(?i)-blade\d{1,2}-\d{1,2}-appserver`)

// lastModifiedLayouts are tried in order when parsing getlastmodified values.
var lastModifiedLayouts = []string{
	time.RFC1123, // Mon, 02 Jan 2006 15:04:05 MST
	time.RFC1123Z,
	time.ANSIC,
}

// entry accumulates the fields of one response element during decoding.
type entry struct {
	href          string
	displayName   string
	lastModified  string
	contentLength string
}

// Parse decodes a multi-status listing into log file descriptors for the
// given hostname. Only entries whose displayname ends with ".log" are
// retained; entries missing href or displayname are dropped. Unparsable
// modification times degrade to the zero time and unparsable lengths to 0.
// Parse never fails on an empty or truncated listing; it returns whatever
// complete entries were decoded, in document order.
func Parse(data []byte, hostname string) []types.LogFile {
	var files []types.LogFile

	dec := xml.NewDecoder(bytes.NewReader(data))
	var cur *entry

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed XML past this point; keep what was decoded.
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "response":
				cur = &entry{}
			case "href", "displayname", "getlastmodified", "getcontentlength":
				if cur == nil {
					continue
				}
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					continue
				}
				switch strings.ToLower(t.Name.Local) {
				case "href":
					cur.href = strings.TrimSpace(text)
				case "displayname":
					cur.displayName = strings.TrimSpace(text)
				case "getlastmodified":
					cur.lastModified = strings.TrimSpace(text)
				case "getcontentlength":
					cur.contentLength = strings.TrimSpace(text)
				}
			}
		case xml.EndElement:
			if strings.ToLower(t.Name.Local) != "response" || cur == nil {
				continue
			}
			if f, ok := toLogFile(*cur, hostname); ok {
				files = append(files, f)
			}
			cur = nil
		}
	}

	return files
}

// toLogFile converts a decoded entry into a descriptor, applying the
// retention and normalization rules.
func toLogFile(e entry, hostname string) (types.LogFile, bool) {
	if e.href == "" || e.displayName == "" {
		return types.LogFile{}, false
	}

	if !strings.HasSuffix(e.displayName, ".log") {
		return types.LogFile{}, false
	}

	return types.LogFile{
		Filename:   StripInstanceQualifier(e.displayName),
		Modified:   parseLastModified(e.lastModified),
		RemotePath: e.href,
		SizeBytes:  parseContentLength(e.contentLength),
		Hostname:   hostname,
	}, true
}

// StripInstanceQualifier removes any per-instance qualifier from a log
// filename or path, e.g. "site-blade3-1-appserver.log" becomes "site.log".
func StripInstanceQualifier(name string) string {
	return instanceQualifier.ReplaceAllString(name, "")
}

// parseLastModified parses a getlastmodified value. Missing or unparsable
// values yield the zero time rather than an error.
func parseLastModified(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseContentLength parses a getcontentlength value, degrading to 0.
func parseContentLength(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// iconKeywords are checked in order against the lowercased filename.
var iconKeywords = []string{"fatal", "error", "warn", "info", "debug"}

// IconClass derives a display icon class from a log filename.
func IconClass(filename string) string {
	lower := strings.ToLower(filename)
	for _, kw := range iconKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return "log"
}
