package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "abc", RunID("abc")},
		{"Task", KeyTask, "html", Task("html")},
		{"Step", KeyStep, "{sitemap,jshint}", Step("{sitemap,jshint}")},
		{"Result", KeyResult, "success", Result("success")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Target", KeyTarget, "production", Target("production")},
		{"Remote", KeyRemote, "git@example.com:a/b.git", Remote("git@example.com:a/b.git")},
		{"Branch", KeyBranch, "gh-pages", Branch("gh-pages")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestDurationAndError(t *testing.T) {
	d := Duration(1500 * time.Microsecond)
	if d.Key != KeyDurationMS || d.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", d)
	}
	if Count(3).Value.Int64() != 3 {
		t.Fatalf("unexpected count attr")
	}
	if Error(nil).Value.String() != "" {
		t.Fatalf("nil error should render empty")
	}
	if Error(errors.New("boom")).Value.String() != "boom" {
		t.Fatalf("error should render message")
	}
}
