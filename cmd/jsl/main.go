// jsl stores files as Blob-encoded records in a jsl record store and
// inspects Blob files.
//
// Usage:
//
//	jsl [--config file.yaml] [--sqlite path | --dsn url] [--redis addr] <command> [flags]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ldn-softdev/jsl"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	cfg    *fileConfig
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// open builds the store described by the configuration.
func (e *env) open(ctx context.Context) (*jsl.Store, error) {
	cfg, err := e.cfg.storeConfig(e.logger)
	if err != nil {
		return nil, err
	}
	return jsl.NewStore(ctx, cfg)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var g globalFlags
	flagSet := pflag.NewFlagSet("jsl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	g.register(flagSet)
	flagSet.Usage = func() { printUsage(stderr, flagSet) }
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return fmt.Errorf("command required")
	}

	cfg, err := loadConfig(g.config, &g)
	if err != nil {
		return err
	}
	level, err := cfg.level()
	if err != nil {
		return err
	}
	e := &env{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout: stdout,
		stderr: stderr,
	}

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "put":
		return runPut(ctx, e, cmdArgs)
	case "get":
		return runGet(ctx, e, cmdArgs)
	case "ls":
		return runList(ctx, e, cmdArgs)
	case "rm":
		return runRemove(ctx, e, cmdArgs)
	case "migrate":
		return runMigrate(ctx, e, cmdArgs)
	case "dump":
		return runDump(e, cmdArgs)
	case "version":
		fmt.Fprintf(stdout, "jsl %s\n", jsl.Version())
		return nil
	case "help":
		printUsage(stdout, flagSet)
		return nil
	default:
		printUsage(stderr, flagSet)
		return fmt.Errorf("unknown command: %q", command)
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage: jsl [flags] <command> [command flags]

Commands:
  put <id> <file>     Store a file as a record
  get <id>            Write a stored file to stdout or --out
  ls                  List records
  rm <id>...          Delete records
  migrate             Apply the record schema (and --dir SQL files)
  dump <blob-file>    Summarise the file records in a Blob file
  version             Print version information

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
