// Command fetch retrieves a single URL and prints its extracted text.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"browser-net/fetch"
	"browser-net/lex"
	"browser-net/transport"

	"github.com/benbjohnson/clock"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	timeout := flag.Duration("timeout", 30*time.Second, "socket timeout for dial and I/O")
	raw := flag.Bool("raw", false, "print body bytes without text extraction")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url>\n", os.Args[0])
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dialer := transport.NewNetDialer(logger, clock.New(), transport.Options{
		DialTimeout: *timeout,
		IOTimeout:   *timeout,
	})
	client := fetch.New(dialer, logger, fetch.Options{})

	_, body, err := client.Fetch(flag.Arg(0))
	if err != nil {
		logger.Error("fetch failed", "url", flag.Arg(0), "err", err)
		os.Exit(1)
	}

	if *raw {
		os.Stdout.Write(body)
		return
	}

	fmt.Print(lex.Extract(body))
}
