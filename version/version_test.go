package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestVCSHash(t *testing.T) {
	cases := []struct {
		settings []debug.BuildSetting
		expected string
	}{
		{nil, ""},
		{[]debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}, "0123456"},
		{[]debug.BuildSetting{{Key: "vcs.modified", Value: "true"}, {Key: "vcs.revision", Value: "0123456789abcdef"}}, "0123456-dirty"},
		{[]debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "abc"},
	}
	for i, c := range cases {
		if got := vcsHash(c.settings); got != c.expected {
			t.Errorf("case %d: vcsHash = %q, expected %q", i, got, c.expected)
		}
	}
}

func TestString(t *testing.T) {
	if s := String("zr-tempo"); !strings.HasPrefix(s, "zr-tempo ") {
		t.Fatalf("String = %q", s)
	}
}
