// mcv4fwdd bridges IPv4 multicast services such as mDNS and SSDP between
// layer-2 segments by joining the groups on inbound interfaces and
// re-emitting accepted datagrams on outbound ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"mcv4fwdd/internal/config"
	"mcv4fwdd/internal/daemon"
)

const (
	defaultConfigFile = "/etc/mcv4fwdd.conf"
	defaultPIDFile    = "/var/run/mcv4fwdd.pid"
)

func usage(w io.Writer) {
	self := os.Args[0]
	fmt.Fprintf(w, `
mcv4fwdd: IPv4 Multicast Forwarding Daemon

Usage: %s [-c CONFIGURATION_FILE] [-f] [-n] [-p PID_FILE]
       %s -h
  -c CONFIGURATION_FILE  Specify path to configuration file (default: %s)
  -f                     Run in foreground; do not fork
  -h                     Print this help message
  -n                     Exit after testing configuration
  -p PID_FILE            Specify path to PID file (default: %s)

`, self, self, defaultConfigFile, defaultPIDFile)
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configPath := flags.String("c", defaultConfigFile, "")
	foreground := flags.Bool("f", false, "")
	help := flags.Bool("h", false, "")
	testOnly := flags.Bool("n", false, "")
	pidPath := flags.String("p", defaultPIDFile, "")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 1
	}
	if *help {
		usage(os.Stdout)
		return 0
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "%s: invalid argument -- '%s'\n", os.Args[0], flags.Arg(0))
		usage(os.Stderr)
		return 1
	}
	if !filepath.IsAbs(*pidPath) {
		// The PID file is created after detaching and chdir("/").
		fmt.Fprintf(os.Stderr, "%s: PID file path must be absolute\n", os.Args[0])
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration file '%s': %v\n", *configPath, err)
		return 1
	}

	log := newLogger(cfg.LogLevel, *foreground || *testOnly)
	sup := daemon.New(log, cfg)

	if *testOnly {
		if err := sup.Test(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "Test failed.")
			return 1
		}
		fmt.Println("Test succeeded.")
		return 0
	}

	if !*foreground {
		child, err := daemon.Daemonize()
		if err != nil {
			log.Errorf("failed to daemonize: %v", err)
			return 1
		}
		if !child {
			return 0
		}
		pf, err := daemon.WritePIDFile(*pidPath)
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		defer pf.Close()
	}

	// Cleanly exit on SIGINT (CTRL-C) and SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		log.Errorf("crashed: %v", err)
		return 1
	}
	return 0
}

// newLogger builds the process-wide logger: syslog always, stderr mirrored
// in foreground and test runs.
func newLogger(level string, foreground bool) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			log.SetLevel(parsed)
		}
	}
	attachSyslog(log)
	if !foreground {
		log.SetOutput(io.Discard)
	}
	return log
}
