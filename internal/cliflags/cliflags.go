// Package cliflags registers the compiler-style command-line flags a
// preprocessor driver needs (-D, -U, -I, -include, -std) onto a
// flag.FlagSet and builds a cpp.DUI from the parsed result.
package cliflags

import (
	"flag"
	"strings"

	"github.com/gocpp-project/gocpp/cpp"
)

type repeatedFlag []string

func (f *repeatedFlag) String() string { return strings.Join(*f, ",") }
func (f *repeatedFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// DUIFlags holds the flag.Value targets registered by Register; call Build
// after flag.Parse to turn them into a cpp.DUI.
type DUIFlags struct {
	defines  repeatedFlag
	undefs   repeatedFlag
	incPaths repeatedFlag
	includes repeatedFlag
	std      string
	depth    int
}

// Register adds -D, -U, -I, -include, -std and -max-include-depth to fs.
func Register(fs *flag.FlagSet) *DUIFlags {
	d := &DUIFlags{}
	fs.Var(&d.defines, "D", "define NAME or NAME=VALUE (repeatable)")
	fs.Var(&d.undefs, "U", "undefine NAME (repeatable)")
	fs.Var(&d.incPaths, "I", "add DIR to the #include search path (repeatable)")
	fs.Var(&d.includes, "include", "force-include FILE before the main input, searched on the -I path like #include <FILE> (repeatable)")
	fs.StringVar(&d.std, "std", "", "language standard, e.g. c11, c++17")
	fs.IntVar(&d.depth, "max-include-depth", 0, "maximum #include nesting depth (0 = default)")
	return d
}

// Build turns the parsed flags into a cpp.DUI.
func (d *DUIFlags) Build() cpp.DUI {
	dui := cpp.DUI{
		Defines:         make(map[string]string),
		Undefined:       make(map[string]bool),
		IncludePaths:    append([]string(nil), d.incPaths...),
		Includes:        append([]string(nil), d.includes...),
		Std:             d.std,
		MaxIncludeDepth: d.depth,
	}
	for _, raw := range d.defines {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			dui.Defines[name] = ""
			continue
		}
		dui.Defines[name] = value
	}
	for _, name := range d.undefs {
		dui.Undefined[name] = true
	}
	return dui
}
