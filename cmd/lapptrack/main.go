// cmd/lapptrack/main.go

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/fmezou/lappupdate/pkg/config"
	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/tracker"
	"github.com/fmezou/lappupdate/pkg/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	pull := pflag.BoolP("pull", "p", false,
		"Pull the latest product information from the editor channels.")
	fetch := pflag.BoolP("fetch", "f", false,
		"Fetch the installers of the pulled products.")
	approve := pflag.BoolP("approve", "a", false,
		"Approve the fetched products for deployment.")
	yes := pflag.BoolP("yes", "y", false,
		"Approve without prompting (with --approve).")
	makeLists := pflag.BoolP("make", "m", false,
		"Make the applist files from the approved products.")
	testConf := pflag.BoolP("testconf", "t", false,
		"Check the configuration file and exit.")
	configFile := pflag.StringP("configfile", "c", config.DefaultFilename,
		"Path of the configuration file.")
	showVersion := pflag.BoolP("version", "v", false,
		"Print the version and exit.")
	pflag.Parse()

	if *showVersion {
		version.PrintFull()
		return exitOK
	}

	// The operation flags are mutually exclusive; the default, with no flag
	// at all, is the all-in-one run.
	ops := 0
	for _, set := range []bool{*pull, *fetch, *approve, *makeLists, *testConf} {
		if set {
			ops++
		}
	}
	if ops > 1 {
		fmt.Fprintln(os.Stderr,
			"lapptrack: the flags --pull, --fetch, --approve, --make and --testconf are mutually exclusive")
		pflag.Usage()
		return exitUsage
	}
	if *yes && !*approve && ops != 0 {
		fmt.Fprintln(os.Stderr, "lapptrack: --yes only applies to --approve")
		pflag.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lapptrack: %v\n", err)
		return exitError
	}

	if err := logging.Init(logging.Options{
		Dir:     cfg.LogDir(),
		Level:   logging.ParseLevel(cfg.Core.LogLevel),
		Console: true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "lapptrack: failed to initialize logging: %v\n", err)
		return exitError
	}
	defer logging.Close()

	t, err := tracker.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lapptrack: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *testConf:
		err = t.TestConfig(os.Stdout)
	case *pull:
		err = t.Pull(ctx)
	case *fetch:
		err = t.Fetch(ctx)
	case *approve:
		err = t.Approve(*yes)
	case *makeLists:
		err = t.Make()
	default:
		// The all-in-one cycle is meant for scheduled runs, so approval is
		// forced.
		err = t.Run(ctx, true)
	}
	if err != nil {
		logging.Error("The operation completed with errors", "error", err)
		fmt.Fprintf(os.Stderr, "lapptrack: %v\n", err)
		return exitError
	}
	return exitOK
}
