package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/1broseidon/flashnote/internal/ipc"
	"github.com/1broseidon/flashnote/internal/runtimepath"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	listen := fs.String("listen", "", "Daemon address (default: running daemon, then config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: flashnote status [--listen ADDR]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via its health endpoint.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	addr := resolveListen(*listen)
	health, err := ipc.NewClient(addr).Health(context.Background())
	if err != nil {
		fmt.Printf("daemon_running: false\n")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("daemon_running: %v\n", health.Status == "ok")
	fmt.Printf("listen:         %s\n", addr)
	fmt.Printf("busy:           %v\n", health.Busy)
	fmt.Printf("uptime_seconds: %d\n", health.UptimeSeconds)
	if st, err := runtimepath.ReadState(); err == nil {
		fmt.Printf("pid:            %d\n", st.PID)
		fmt.Printf("display:        %s\n", st.Display)
		if !st.Started.IsZero() {
			fmt.Printf("started:        %s\n", humanize.Time(st.Started))
		}
	}
	return 0
}
