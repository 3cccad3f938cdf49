package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/flashnote/internal/config"
	"github.com/1broseidon/flashnote/internal/ipc"
	"github.com/1broseidon/flashnote/internal/runtimepath"
)

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	listen := fs.String("listen", "", "Daemon address (default: running daemon, then config)")
	timeout := fs.Duration("timeout", 0, "Give up waiting after this long (0 waits for dismissal)")
	jsonOut := fs.Bool("json", false, "Print the daemon response as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: flashnote send [--listen ADDR] [--timeout DUR] [--json] [message...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show a message on every monitor and wait until it is dismissed.")
		fmt.Fprintln(os.Stderr, "Without arguments the message is read from stdin.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	message, err := readMessage(fs.Args(), os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	resp, err := ipc.NewClient(resolveListen(*listen)).Notify(ctx, message)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	fmt.Printf("dismissed: %s (%d windows, %s)\n", resp.Reason, resp.Windows, resp.Elapsed().Round(time.Millisecond))
	return 0
}

// readMessage joins args, or reads stdin when there are none and stdin is
// not a terminal.
func readMessage(args []string, stdin *os.File) (string, error) {
	if len(args) > 0 {
		message := strings.Join(args, " ")
		if message == "" {
			return "", errors.New("message is empty")
		}
		return message, nil
	}

	if term.IsTerminal(int(stdin.Fd())) {
		return "", errors.New("send requires a message argument or piped stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	message := strings.TrimRight(string(data), "\r\n")
	if message == "" {
		return "", errors.New("message is empty")
	}
	return message, nil
}

// resolveListen picks the daemon address: the flag, then the running
// daemon's state file, then the config file.
func resolveListen(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if st, err := runtimepath.ReadState(); err == nil && st.Listen != "" {
		return st.Listen
	}
	if cfg, err := config.Load(); err == nil {
		return cfg.Listen
	}
	return config.DefaultListen
}
