package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConnectionFile(t *testing.T) {
	in := "THINGWORX_BASE_URL=http://host:1234/Thingworx\nTHINGWORX_APP_KEY=abc\n"
	vars, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(vars) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(vars), vars)
	}
	if got := vars[KeyBaseURL]; got != "http://host:1234/Thingworx" {
		t.Errorf("base url = %q", got)
	}
	if got := vars[KeyAppKey]; got != "abc" {
		t.Errorf("app key = %q", got)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	in := strings.Join([]string{
		"",
		"   ",
		"no equals sign here",
		"=orphan value",
		"EMPTY=",
		"  SPACED  =  value with spaces  ",
		"WINDOWS=crlf\r",
		"# COMMENT=kept as a key",
	}, "\n")

	vars, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"SPACED":    "value with spaces",
		"WINDOWS":   "crlf",
		"# COMMENT": "kept as a key",
	}
	if len(vars) != len(want) {
		t.Fatalf("got %v, want %v", vars, want)
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%q = %q, want %q", k, vars[k], v)
		}
	}
	if _, ok := vars["EMPTY"]; ok {
		t.Error("EMPTY should be skipped")
	}
}

func TestParseValueKeepsLaterEquals(t *testing.T) {
	vars, err := Parse(strings.NewReader("URL=http://h/x?a=b\n"))
	if err != nil {
		t.Fatal(err)
	}
	if vars["URL"] != "http://h/x?a=b" {
		t.Errorf("URL = %q", vars["URL"])
	}
}

func TestParseLastDuplicateWins(t *testing.T) {
	vars, err := Parse(strings.NewReader("K=one\nK=two\n"))
	if err != nil {
		t.Fatal(err)
	}
	if vars["K"] != "two" {
		t.Errorf("K = %q, want two", vars["K"])
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.example")
	if err := os.WriteFile(path, []byte("THINGWORX_APP_KEY= key \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	vars, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if vars[KeyAppKey] != "key" {
		t.Errorf("app key = %q", vars[KeyAppKey])
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLongLines(t *testing.T) {
	junk := strings.Repeat("x", 200<<10)
	token := strings.Repeat("k", 100<<10)
	in := junk + "\n" +
		"THINGWORX_APP_KEY=" + token + "\r\n" +
		"THINGWORX_BASE_URL=http://host:1234/Thingworx"

	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got["THINGWORX_APP_KEY"] != token {
		t.Errorf("long value truncated to %d bytes", len(got["THINGWORX_APP_KEY"]))
	}
	if got["THINGWORX_BASE_URL"] != "http://host:1234/Thingworx" {
		t.Errorf("base url = %q", got["THINGWORX_BASE_URL"])
	}
}
