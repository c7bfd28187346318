// Package batchcmd implements the "batch" subcommand: preprocess many
// translation units concurrently, each against its own cpp.Files/FileCache,
// bounded by a semaphore.
package batchcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"golang.org/x/sync/errgroup"

	"github.com/gocpp-project/gocpp/cpp"
	"github.com/gocpp-project/gocpp/filecache"
	"github.com/gocpp-project/gocpp/fileio"
	"github.com/gocpp-project/gocpp/internal/cliflags"
	"github.com/gocpp-project/gocpp/internal/hcache"
	"github.com/gocpp-project/gocpp/internal/semaphore"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/o11y/trace"
)

// Cmd returns the "batch" subcommand.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "batch [options] file...",
		ShortDesc: "preprocess many files concurrently",
		LongDesc:  "Runs an independent Preprocess call per file, each against its own FileCache, bounded by -j concurrent workers.",
		CommandRun: func() subcommands.CommandRun {
			b := &batchRun{}
			b.duiFlags = cliflags.Register(&b.Flags)
			b.Flags.IntVar(&b.verbosity, "v", 0, "log verbosity")
			b.Flags.IntVar(&b.jobs, "j", 4, "maximum concurrent preprocess jobs")
			b.Flags.BoolVar(&b.quiet, "q", false, "suppress token output, print only diagnostics and a summary")
			return b
		},
	}
}

type batchRun struct {
	subcommands.CommandRunBase
	duiFlags  *cliflags.DUIFlags
	verbosity int
	jobs      int
	quiet     bool
}

func (b *batchRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, b, env)
	clog.SetVerbosity(b.verbosity)
	if len(args) == 0 {
		fmt.Fprintf(a.GetErr(), "%s: expected at least one file argument\n", a.GetName())
		return 2
	}
	if b.jobs < 1 {
		b.jobs = 1
	}

	dui := b.duiFlags.Build()
	sem := semaphore.New(b.jobs)
	fs := fileio.New("gocpp-batch")

	collector := trace.NewCollector()
	ctx = trace.NewContext(ctx, collector)

	eg, egCtx := errgroup.WithContext(ctx)
	results := make([]*cpp.Result, len(args))
	names := make([]string, len(args))
	for i, fname := range args {
		i, fname := i, fname
		eg.Go(func() error {
			return sem.Do(egCtx, func(ctx context.Context) error {
				res, name, err := preprocessOne(ctx, fs, fname, dui)
				results[i] = res
				names[i] = name
				return err
			})
		})
	}
	err := eg.Wait()
	clog.Infof(ctx, "batch: %d files, %d/%d workers used, %s", len(args), sem.NumRequests(), sem.Capacity(), fs.IOMetrics)
	if clog.FromContext(ctx).V(2) {
		for _, sp := range collector.Spans() {
			clog.Infof(ctx, "trace: %s %s took %s", sp.Labels["file"], sp.Name, sp.Duration())
		}
	}

	exit := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		if !b.quiet {
			fmt.Fprintf(a.GetOut(), "==> %s <==\n%s\n", names[i], res.Output.Stringify())
		}
		for _, d := range res.Diagnostics.Entries() {
			fmt.Fprintf(a.GetErr(), "%s: %s: %s\n", names[i], d.Kind, d.Message)
		}
		if res.Diagnostics.HasFatal() {
			exit = 1
		}
	}
	if err != nil {
		clog.Errorf(ctx, "batch: %v", err)
		exit = 1
	}
	return exit
}

func preprocessOne(ctx context.Context, fs *fileio.FS, fname string, dui cpp.DUI) (*cpp.Result, string, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fname, err
	}
	files := cpp.NewFiles()
	_, lexSpan := trace.Start(ctx, "lex", map[string]string{"file": fname})
	raw, _, err := lexer.Lex(files.Intern(fname), data)
	lexSpan.Done()
	if err != nil {
		return nil, fname, err
	}
	cache := hcache.New(fs, files, filecache.New())
	return cpp.Preprocess(ctx, files, fname, raw, cache, dui), fname, nil
}
