// Command gocpp preprocesses C/C++ source files: macro expansion,
// conditional inclusion, and #include resolution, independent of any
// particular build system.
package main

import (
	"context"
	"os"
	"runtime"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/system/signals"

	"github.com/gocpp-project/gocpp/internal/subcmd/batchcmd"
	"github.com/gocpp-project/gocpp/internal/subcmd/run"
	"github.com/gocpp-project/gocpp/internal/subcmd/scandepscmd"
	versioncmd "github.com/gocpp-project/gocpp/internal/subcmd/version"
	"github.com/gocpp-project/gocpp/o11y/clog"
)

var version = "dev"

func main() {
	app := &subcommands.DefaultApplication{
		Name:  "gocpp",
		Title: "a standalone C/C++ preprocessor",
		Commands: []*subcommands.Command{
			run.Cmd(),
			batchcmd.Cmd(),
			scandepscmd.Cmd(),
			versioncmd.Cmd(version),
			subcommands.CmdHelp,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer signals.HandleInterrupt(cancel)()

	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			clog.Fatalf(ctx, "panic: %v\n%s", r, buf)
		}
	}()

	os.Exit(subcommands.Run(app, os.Args[1:]))
}
