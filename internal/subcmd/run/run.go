// Package run implements the "run" subcommand: preprocess a single file
// and print the resulting token stream.
package run

import (
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"github.com/gocpp-project/gocpp/cpp"
	"github.com/gocpp-project/gocpp/internal/cliflags"
	"github.com/gocpp-project/gocpp/internal/hcache"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/o11y/trace"
)

// Cmd returns the "run" subcommand.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "run [options] file",
		ShortDesc: "preprocess a file and print the result",
		LongDesc:  "Runs the lexer, macro expander and directive driver over file and prints the expanded token stream.",
		CommandRun: func() subcommands.CommandRun {
			r := &runRun{}
			r.duiFlags = cliflags.Register(&r.Flags)
			r.Flags.IntVar(&r.verbosity, "v", 0, "log verbosity")
			r.Flags.StringVar(&r.cacheFile, "cache", "", "persistent header cache file")
			r.Flags.BoolVar(&r.showUsage, "show-macro-usage", false, "print macro usage metadata to stderr")
			r.Flags.BoolVar(&r.quiet, "q", false, "suppress all output, including diagnostics")
			r.Flags.BoolVar(&r.errorsOnly, "e", false, "suppress token output, print diagnostics only")
			r.Flags.BoolVar(&r.failOnDiag, "f", false, "exit nonzero if any diagnostic was produced")
			r.Flags.BoolVar(&r.lineMarkers, "l", false, "emit #line markers on file-id changes")
			r.Flags.BoolVar(&r.fromStream, "is", false, "read the input from stdin instead of a file path")
			return r
		},
	}
}

type runRun struct {
	subcommands.CommandRunBase
	duiFlags    *cliflags.DUIFlags
	verbosity   int
	cacheFile   string
	showUsage   bool
	quiet       bool
	errorsOnly  bool
	failOnDiag  bool
	lineMarkers bool
	fromStream  bool
}

func (r *runRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	clog.SetVerbosity(r.verbosity)

	collector := trace.NewCollector()
	ctx = trace.NewContext(ctx, collector)

	fname, data, err := r.readInput(a, args)
	if err != nil {
		if !r.quiet {
			clog.Errorf(ctx, "%v", err)
		}
		return 2
	}

	files := cpp.NewFiles()
	_, lexSpan := trace.Start(ctx, "lex", map[string]string{"file": fname})
	raw, diags, err := lexer.Lex(files.Intern(fname), data)
	lexSpan.Done()
	if err != nil {
		if !r.quiet {
			clog.Errorf(ctx, "lex %s: %v", fname, err)
		}
		return 1
	}
	if !r.quiet {
		for _, d := range diags {
			fmt.Fprintf(a.GetErr(), "%s: %s: %s\n", fname, d.Kind, d.Message)
		}
	}

	fs := fsForRun()
	cache := hcache.New(fs, files, loadDiskCache(ctx, r.cacheFile))
	result := cpp.Preprocess(ctx, files, fname, raw, cache, r.duiFlags.Build())
	clog.Infof(ctx, "%s", fs.IOMetrics)
	if clog.FromContext(ctx).V(2) {
		for _, sp := range collector.Spans() {
			clog.Infof(ctx, "trace: %s took %s", sp.Name, sp.Duration())
		}
	}

	if !r.quiet && !r.errorsOnly {
		if r.lineMarkers {
			fmt.Fprintln(a.GetOut(), result.Output.StringifyLineMarkers(files.Name))
		} else {
			fmt.Fprintln(a.GetOut(), result.Output.Stringify())
		}
	}
	if !r.quiet {
		for _, d := range result.Diagnostics.Entries() {
			fmt.Fprintf(a.GetErr(), "%s: %s\n", d.Kind, d.Message)
		}
		if r.showUsage {
			for _, u := range result.MacroUsage {
				fmt.Fprintf(a.GetErr(), "macro %s used at %s (defined at %s)\n", u.Name, u.UseLocation, u.DefineLocation)
			}
		}
	}
	if r.cacheFile != "" {
		if err := cache.Save(ctx, r.cacheFile); err != nil && !r.quiet {
			clog.Warningf(ctx, "save cache %s: %v", r.cacheFile, err)
		}
	}
	if result.Diagnostics.HasFatal() {
		return 1
	}
	if r.failOnDiag && len(result.Diagnostics.Entries()) > 0 {
		return 1
	}
	return 0
}

// readInput resolves the file to preprocess: a positional path, or stdin
// when -is selects stream mode (the filename recorded against every
// Location is then the literal "<stdin>").
func (r *runRun) readInput(a subcommands.Application, args []string) (fname string, data []byte, err error) {
	if r.fromStream {
		if len(args) != 0 {
			return "", nil, fmt.Errorf("%s: -is takes no file argument", a.GetName())
		}
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", data, nil
	}
	if len(args) != 1 {
		return "", nil, fmt.Errorf("%s: expected exactly one file argument", a.GetName())
	}
	fname = args[0]
	data, err = os.ReadFile(fname)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", fname, err)
	}
	return fname, data, nil
}
