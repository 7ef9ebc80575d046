package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vibely/internal/cli"
	"vibely/internal/config"
)

func main() {
	env, err := config.LoadClient()
	if err != nil {
		exitf("load config: %v", err)
	}

	flag.CommandLine.Usage = func() {
		cli.Usage(os.Stderr)
		fmt.Fprintln(os.Stderr, "\nglobal flags:")
		flag.PrintDefaults()
	}
	cfg, args, err := cli.ParseConfig(flag.CommandLine, env, os.Args[1:])
	if err != nil {
		exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, os.Stdin, os.Stdout)
	if err := app.Run(ctx, args); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		exitf("%v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vibely: "+format+"\n", args...)
	os.Exit(1)
}
