package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zfogg/dormdesk/pkg/config"
)

func capture(t *testing.T, format string) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	config.Set("output.format", format)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	SetWriters(out, errOut)
	t.Cleanup(func() {
		ResetWriters()
		config.Set("output.format", "text")
	})
	return out, errOut
}

func TestGetOutputFormat(t *testing.T) {
	for _, f := range []string{"json", "table", "text"} {
		capture(t, f)
		if got := GetOutputFormat(); string(got) != f {
			t.Errorf("GetOutputFormat with %q: got %q", f, got)
		}
	}
	capture(t, "yaml")
	if GetOutputFormat() != FormatText {
		t.Error("unknown formats should fall back to text")
	}
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		isValid bool
	}{
		{"json", true},
		{"text", true},
		{"table", true},
		{"invalid", false},
	}

	for _, tt := range tests {
		result := ValidateOutputFormat(tt.format)
		if result != tt.isValid {
			t.Errorf("ValidateOutputFormat(%s): got %v, want %v", tt.format, result, tt.isValid)
		}
	}
}

func TestPrintListTable(t *testing.T) {
	out, _ := capture(t, "table")

	err := PrintList("Rooms", nil, []string{"ID", "NAME"}, [][]string{{"1", "101"}, {"2", "102-long"}})
	if err != nil {
		t.Fatal(err)
	}

	text := out.String()
	if !strings.Contains(text, "Rooms") || !strings.Contains(text, "102-long") {
		t.Errorf("unexpected table output:\n%s", text)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 4 {
		t.Errorf("expected title, header and two rows, got %d lines", len(lines))
	}
}

func TestPrintListJSONUsesItems(t *testing.T) {
	out, _ := capture(t, "json")

	items := []map[string]interface{}{{"id": 1, "name": "101"}}
	if err := PrintList("Rooms", items, []string{"ID"}, [][]string{{"1"}}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), `"name": "101"`) {
		t.Errorf("expected raw items as JSON, got %s", out.String())
	}
	if strings.Contains(out.String(), "Rooms") {
		t.Error("JSON output must not carry the title")
	}
}

func TestPrintListEmpty(t *testing.T) {
	out, _ := capture(t, "text")

	if err := PrintList("Parcels", []int{}, []string{"ID"}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(none)") {
		t.Errorf("expected empty marker, got %q", out.String())
	}
}

func TestPrintRecordSortsKeys(t *testing.T) {
	out, _ := capture(t, "text")

	PrintRecord("Session", map[string]interface{}{"state": "authenticated", "profile": "/tmp/x"})

	text := out.String()
	if strings.Index(text, "profile") > strings.Index(text, "state") {
		t.Errorf("expected sorted keys, got:\n%s", text)
	}
}

func TestMessagesGoToTheRightWriter(t *testing.T) {
	out, errOut := capture(t, "text")

	PrintSuccess("saved %d", 3)
	PrintWarning("session expired")
	PrintError("boom")

	if !strings.Contains(out.String(), "saved 3") {
		t.Errorf("success should go to stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Warning: session expired") || !strings.Contains(errOut.String(), "Error: boom") {
		t.Errorf("warnings and errors should go to stderr, got %q", errOut.String())
	}
}

func TestFormatAsPrettyJSON(t *testing.T) {
	s, err := FormatAsPrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if s != "{\n  \"a\": 1\n}" {
		t.Errorf("unexpected JSON %q", s)
	}
}
