// Package scandepscmd implements the "scandeps" subcommand: a fast,
// non-expanding pre-scan of a file's #include graph.
package scandepscmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/scandeps"
)

// Cmd returns the "scandeps" subcommand.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scandeps [options] file...",
		ShortDesc: "list a file's #include graph without expanding macros",
		LongDesc:  "Scans one or more files for #include directives (and the single-token #defines needed to resolve #include FOO_H) without running the full preprocessor.",
		CommandRun: func() subcommands.CommandRun {
			c := &scanRun{}
			c.Flags.IntVar(&c.verbosity, "v", 0, "log verbosity")
			return c
		},
	}
}

type scanRun struct {
	subcommands.CommandRunBase
	verbosity int
}

func (c *scanRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	clog.SetVerbosity(c.verbosity)
	if len(args) == 0 {
		fmt.Fprintf(a.GetErr(), "%s: expected at least one file argument\n", a.GetName())
		return 2
	}

	results, err := scandeps.ScanAll(ctx, args, func(_ context.Context, name string) ([]byte, error) {
		return os.ReadFile(name)
	})
	if err != nil {
		clog.Errorf(ctx, "scandeps: %v", err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, fname := range names {
		res := results[fname]
		for _, inc := range res.Includes {
			switch {
			case inc.Macro != "":
				fmt.Fprintf(a.GetOut(), "%s: #include %s\n", fname, inc.Macro)
			case inc.Angled:
				fmt.Fprintf(a.GetOut(), "%s: #include <%s>\n", fname, inc.Target)
			default:
				fmt.Fprintf(a.GetOut(), "%s: #include \"%s\"\n", fname, inc.Target)
			}
		}
		for _, f := range res.Files() {
			fmt.Fprintf(a.GetOut(), "%s: resolves %s\n", fname, f)
		}
	}
	if err != nil {
		return 1
	}
	return 0
}
