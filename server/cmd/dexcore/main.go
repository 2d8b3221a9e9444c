// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// dexcore runs a single order book or asset command against the archive and
// prints the result as JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
)

func main() {
	if err := mainErr(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func mainErr() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	killChan := make(chan os.Signal, 1)
	signal.Notify(killChan, os.Interrupt)
	go func() {
		select {
		case <-killChan:
			log.Infof("Interrupt received, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCommand(ctx, os.Args[1:], os.Stdout)
}

// runCommand parses the configuration and the command line, then opens the
// core and runs the command, writing the result to out.
func runCommand(ctx context.Context, args []string, out io.Writer) error {
	preCfg, err := preParse(args)
	if err != nil {
		return err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Fprintf(out, "%s version %s (Go version %s %s/%s)\n", appName,
			Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	}

	// Special show command to list supported subsystems and exit.
	if preCfg.DebugLevel == "show" {
		fmt.Fprintln(out, "Supported subsystems", supportedSubsystems())
		return nil
	}

	cfg := defaultFlags()
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if err := addCommands(parser); err != nil {
		return err
	}
	configFile, err := loadConfigFile(parser, &cfg, preCfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		cc, ok := cmd.(coreCommand)
		if !ok {
			return errors.New("no command specified")
		}
		if len(args) > 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
		coreCfg, err := finalizeConfig(&cfg, configFile)
		if err != nil {
			return err
		}
		core, err := openCore(ctx, coreCfg, out)
		if err != nil {
			return err
		}
		defer func() {
			if err := core.Close(); err != nil {
				log.Errorf("Error closing the archive: %v", err)
			}
		}()
		log.Debugf("Running %s", parser.Active.Name)
		return cc.run(core)
	}

	_, err = parser.ParseArgs(args)
	if logRotator != nil {
		defer func() {
			logRotator.Close()
			logRotator = nil
		}()
	}
	var flagErr *flags.Error
	if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
		fmt.Fprintln(out, err)
		return nil
	}
	return err
}
