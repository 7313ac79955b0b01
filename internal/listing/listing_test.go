package listing

import (
	"fmt"
	"testing"
	"time"
)

// buildListing wraps response entries in a multi-status envelope.
func buildListing(responses ...string) []byte {
	body := ""
	for _, r := range responses {
		body += r
	}
	return []byte(`<?xml version="1.0" encoding="utf-8"?><D:multistatus xmlns:D="DAV:">` + body + `</D:multistatus>`)
}

// buildResponse renders one response entry with the given fields.
func buildResponse(href, displayName, lastModified, contentLength string) string {
	s := "<D:response>"
	if href != "" {
		s += "<D:href>" + href + "</D:href>"
	}
	s += "<D:propstat><D:prop>"
	if displayName != "" {
		s += "<D:displayname>" + displayName + "</D:displayname>"
	}
	if lastModified != "" {
		s += "<D:getlastmodified>" + lastModified + "</D:getlastmodified>"
	}
	if contentLength != "" {
		s += "<D:getcontentlength>" + contentLength + "</D:getcontentlength>"
	}
	s += "</D:prop></D:propstat></D:response>"
	return s
}

func TestParseRetainsOnlyLogFiles(t *testing.T) {
	data := buildListing(
		buildResponse("/logs/error.log", "error.log", "Mon, 02 Jan 2006 15:04:05 GMT", "100"),
		buildResponse("/logs/access.txt", "access.txt", "Mon, 02 Jan 2006 15:04:05 GMT", "50"),
		buildResponse("/logs/ERROR.LOG", "ERROR.LOG", "Mon, 02 Jan 2006 15:04:05 GMT", "25"),
		buildResponse("/logs/folder", "folder", "", ""),
	)

	files := Parse(data, "logs.example.com")

	if len(files) != 1 {
		t.Fatalf("Parse returned %d descriptors, want 1", len(files))
	}
	if files[0].Filename != "error.log" {
		t.Errorf("Filename = %q, want %q", files[0].Filename, "error.log")
	}
	if files[0].Hostname != "logs.example.com" {
		t.Errorf("Hostname = %q, want %q", files[0].Hostname, "logs.example.com")
	}
	if files[0].SizeBytes != 100 {
		t.Errorf("SizeBytes = %d, want 100", files[0].SizeBytes)
	}
}

func TestParseStripsInstanceQualifier(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		want        string
	}{
		{
			name:        "standard qualifier",
			displayName: "site-blade3-1-appserver.log",
			want:        "site.log",
		},
		{
			name:        "two digit blade",
			displayName: "site-blade12-10-appserver.log",
			want:        "site.log",
		},
		{
			name:        "mixed case",
			displayName: "site-BLADE3-1-APPSERVER.log",
			want:        "site.log",
		},
		{
			name:        "no qualifier",
			displayName: "error.log",
			want:        "error.log",
		},
		{
			name:        "qualifier mid-name",
			displayName: "app-blade1-2-appserver-error.log",
			want:        "app-error.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildListing(buildResponse("/logs/"+tt.displayName, tt.displayName, "", ""))
			files := Parse(data, "h")
			if len(files) != 1 {
				t.Fatalf("Parse returned %d descriptors, want 1", len(files))
			}
			if files[0].Filename != tt.want {
				t.Errorf("Filename = %q, want %q", files[0].Filename, tt.want)
			}
		})
	}
}

func TestParseDropsMalformedEntries(t *testing.T) {
	data := buildListing(
		buildResponse("", "orphan.log", "", ""),           // missing href
		buildResponse("/logs/unnamed.log", "", "", ""),    // missing displayname
		buildResponse("/logs/ok.log", "ok.log", "", "10"), // valid
	)

	files := Parse(data, "h")

	if len(files) != 1 {
		t.Fatalf("Parse returned %d descriptors, want 1", len(files))
	}
	if files[0].Filename != "ok.log" {
		t.Errorf("Filename = %q, want %q", files[0].Filename, "ok.log")
	}
}

func TestParseFailSoftFields(t *testing.T) {
	data := buildListing(
		buildResponse("/logs/a.log", "a.log", "not a date", "not a number"),
	)

	files := Parse(data, "h")

	if len(files) != 1 {
		t.Fatalf("Parse returned %d descriptors, want 1", len(files))
	}
	if !files[0].Modified.IsZero() {
		t.Errorf("Modified = %v, want zero time for unparsable date", files[0].Modified)
	}
	if files[0].SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, want 0 for unparsable length", files[0].SizeBytes)
	}
}

func TestParseLastModified(t *testing.T) {
	data := buildListing(
		buildResponse("/logs/a.log", "a.log", "Fri, 13 Feb 2009 23:31:30 GMT", "1"),
	)

	files := Parse(data, "h")
	if len(files) != 1 {
		t.Fatalf("Parse returned %d descriptors, want 1", len(files))
	}

	want := time.Date(2009, 2, 13, 23, 31, 30, 0, time.UTC)
	if !files[0].Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", files[0].Modified, want)
	}
}

func TestParseEmptyListing(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty envelope", data: buildListing()},
		{name: "empty bytes", data: []byte{}},
		{name: "garbage", data: []byte("not xml at all")},
		{name: "truncated", data: []byte(`<D:multistatus xmlns:D="DAV:"><D:response><D:href>/a`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := Parse(tt.data, "h")
			if len(files) != 0 {
				t.Errorf("Parse returned %d descriptors, want 0", len(files))
			}
		})
	}
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	var responses []string
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("file%d.log", i)
		responses = append(responses, buildResponse("/logs/"+name, name, "", ""))
	}
	files := Parse(buildListing(responses...), "h")

	if len(files) != 3 {
		t.Fatalf("Parse returned %d descriptors, want 3", len(files))
	}
	for i, f := range files {
		want := fmt.Sprintf("file%d.log", i)
		if f.Filename != want {
			t.Errorf("files[%d].Filename = %q, want %q", i, f.Filename, want)
		}
	}
}

func TestIconClass(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"fatal.log", "fatal"},
		{"error.log", "error"},
		{"site-warn.log", "warn"},
		{"info.log", "info"},
		{"debug-2024.log", "debug"},
		{"ERROR.LOG", "error"},
		{"access.log", "log"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IconClass(tt.filename); got != tt.want {
				t.Errorf("IconClass(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
