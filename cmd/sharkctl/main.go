// sharkctl controls Shark robot vacuums from the command line and can run
// an MQTT bridge that mirrors them onto a broker.
//
// Credentials come from a YAML config file (--config), SHARK_* environment
// variables, or a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	shark "github.com/tj-smith47/shark-go"
	"github.com/tj-smith47/shark-go/internal/config"
	"github.com/tj-smith47/shark-go/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if kind := shark.KindOf(err); kind != shark.KindNone {
			fmt.Fprintf(os.Stderr, "error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// env is what every command runs with.
type env struct {
	cfg    *config.Config
	client *shark.Client
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath, logLevel string
	var showVersion bool

	flagSet := pflag.NewFlagSet("sharkctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Fprintf(stdout, "sharkctl %s\n", version)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("no command given")
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q (run sharkctl --help)", rest[0])
	}
	cmdArgs := rest[1:]
	if len(cmdArgs) != len(cmd.args) {
		return fmt.Errorf("usage: sharkctl %s %s", cmd.name, cmd.argUsage())
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, version)
	client, err := shark.NewClient(creds,
		shark.WithLogger(logger),
		shark.WithBaseURL(cfg.API.BaseURL),
		shark.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return err
	}

	e := &env{cfg: cfg, client: client, stdout: stdout, stderr: stderr}
	return cmd.run(ctx, e, cmdArgs)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "sharkctl controls Shark robot vacuums.\n\nUsage:\n  sharkctl [flags] <command> [args]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-32s %s\n", cmd.name+" "+cmd.argUsage(), cmd.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
