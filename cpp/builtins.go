package cpp

import (
	"strconv"
	"strings"

	"github.com/gocpp-project/gocpp/token"
)

// builtinNames are recognized by #ifdef/defined(...) and by ordinary macro
// expansion even though they never appear in the macro table: their value
// depends on driver state (current location, invocation count) rather than
// a fixed replacement list installed by #define.
var builtinNames = map[string]bool{
	"__FILE__":         true,
	"__LINE__":         true,
	"__COUNTER__":      true,
	"__DATE__":         true,
	"__TIME__":         true,
	"__STDC_VERSION__": true,
	"__STDC__":         true,
	"__cplusplus":      true,
}

func isCxxStd(std string) bool {
	std = strings.ToLower(std)
	return strings.Contains(std, "++")
}

// isBuiltinDefined reports whether name should be treated as defined for
// #ifdef/defined(...) purposes: __cplusplus only exists under a C++
// -std=, __STDC__/__STDC_VERSION__ only under a C one, everything else in
// builtinNames always exists.
func (p *preprocessor) isBuiltinDefined(name string) bool {
	if !builtinNames[name] {
		return false
	}
	switch name {
	case "__cplusplus":
		return isCxxStd(p.dui.Std)
	case "__STDC_VERSION__", "__STDC__":
		return p.dui.Std == "" || !isCxxStd(p.dui.Std)
	default:
		return true
	}
}

var stdcVersions = map[string]string{
	"c89": "", "c90": "",
	"c99": "199901L",
	"c11": "201112L",
	"c17": "201710L",
	"c18": "201710L",
}

var cxxVersions = map[string]string{
	"c++98": "199711L",
	"c++03": "199711L",
	"c++11": "201103L",
	"c++14": "201402L",
	"c++17": "201703L",
	"c++20": "202002L",
}

// builtinValue returns the current text of the builtin macro name, and
// whether it applies at all under the active DUI.Std.
func (p *preprocessor) builtinValue(name string, loc token.Location) (string, bool) {
	if !p.isBuiltinDefined(name) {
		return "", false
	}
	switch name {
	case "__FILE__":
		return `"` + p.files.Name(loc.File) + `"`, true
	case "__LINE__":
		return strconv.Itoa(loc.Line), true
	case "__COUNTER__":
		v := p.counter
		p.counter++
		return strconv.Itoa(v), true
	case "__DATE__":
		// Deterministic rather than wall-clock, so preprocessing the same
		// input twice always yields the same output.
		return `"Jan  1 1970"`, true
	case "__TIME__":
		return `"00:00:00"`, true
	case "__STDC__":
		return "1", true
	case "__STDC_VERSION__":
		if v, ok := stdcVersions[strings.ToLower(p.dui.Std)]; ok && v != "" {
			return v, true
		}
		return "199409L", true
	case "__cplusplus":
		if v, ok := cxxVersions[strings.ToLower(p.dui.Std)]; ok {
			return v, true
		}
		return "199711L", true
	}
	return "", false
}
