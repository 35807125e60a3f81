package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/use-agent/golbat/config"
	"github.com/use-agent/golbat/engine"
	"github.com/use-agent/golbat/models"
	"github.com/use-agent/golbat/pipeline"
)

// CLI flags
var (
	full        = flag.Bool("full", false, "Also print every <meta>/<link> tag as meta_*/link_* fields")
	interactive = flag.Bool("i", false, "Read URLs from stdin; each new line replaces the fetch in progress")
	verbose     = flag.Bool("v", false, "Log pipeline activity to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: golbat-inspect [-full] [-i] [-v] <url>...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if !*interactive && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	p := pipeline.New(cfg.Fetch, cfg.Probe)

	if *interactive {
		runInteractive(ctx, p, os.Stdin, os.Stdout)
		return
	}

	failed := false
	for _, raw := range flag.Args() {
		if err := inspect(ctx, p, raw, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", raw, models.UserMessage(err))
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// inspect fetches one target and writes its record as indented JSON.
func inspect(ctx context.Context, p *pipeline.Pipeline, raw string, w io.Writer) error {
	target, err := engine.FormatTarget(raw)
	if err != nil {
		return err
	}
	rec, err := p.Run(ctx, target, *full)
	if err != nil {
		return err
	}
	return writeJSON(w, rec)
}

// runInteractive drives a Session from lines of in. Besides URLs it
// understands ":r" (refresh) and ":c" (clear).
func runInteractive(ctx context.Context, p *pipeline.Pipeline, in io.Reader, out io.Writer) {
	s := pipeline.NewSession(p, *full)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	var done <-chan struct{}
	for {
		select {
		case <-ctx.Done():
			s.Clear()
			return

		case line, ok := <-lines:
			if !ok {
				// Input ended; let the last fetch settle before exiting.
				if done != nil {
					<-done
					report(s, out)
				}
				return
			}
			switch line {
			case "":
				continue
			case ":r":
				done = s.Refresh(ctx)
			case ":c":
				s.Clear()
				done = nil
			default:
				done = s.Fetch(ctx, line)
			}

		case <-done:
			done = nil
			report(s, out)
		}
	}
}

// report prints the session's settled outcome.
func report(s *pipeline.Session, out io.Writer) {
	state, rec, err := s.Snapshot()
	switch state {
	case pipeline.StatePopulated:
		if werr := writeJSON(out, rec); werr != nil {
			slog.Error("write record", "error", werr)
		}
	case pipeline.StateError:
		fmt.Fprintf(out, "error: %s\n", models.UserMessage(err))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
