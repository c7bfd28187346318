package pathutil

import "testing"

func TestSimplifyPath(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"a/./b", "a/b"},
		{"a/b/../c", "a/c"},
		{"a/b/../../c", "c"},
		{"../a/b", "../a/b"},
		{"/a/../../b", "/b"},
		{"a\\b\\..\\c", "a/c"},
		{"", ""},
		{".", "."},
		{"./", "."},
		{"a//b", "a/b"},
		{"/a/b", "/a/b"},
	} {
		if got := SimplifyPath(tc.in); got != tc.want {
			t.Errorf("SimplifyPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimplifyPathIdempotent(t *testing.T) {
	for _, p := range []string{"a/./b/../c", "../../x/y", "/foo/bar/../baz", "a\\b\\c"} {
		once := SimplifyPath(p)
		twice := SimplifyPath(once)
		if once != twice {
			t.Errorf("SimplifyPath not idempotent for %q: %q vs %q", p, once, twice)
		}
	}
}

func TestConvertCygwinToWindowsPath(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"/cygdrive/c/foo/bar", `C:\foo\bar`},
		{"/cygdrive/d", "D:"},
		{"/c/foo/bar", `C:\foo\bar`},
		{"relative/path", `relative\path`},
		{"/usr/include", `\usr\include`},
	} {
		if got := ConvertCygwinToWindowsPath(tc.in); got != tc.want {
			t.Errorf("ConvertCygwinToWindowsPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
