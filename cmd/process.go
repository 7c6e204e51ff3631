package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscout/internal/model"
)

var (
	processFile        string
	processConcurrency int
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process visitor events from a JSON or JSON-lines file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := readEventsFile(processFile)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "process", false)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := processConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentEvents
		}

		res, err := env.Pipeline.ProcessBatch(ctx, events, concurrency)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d events: %d succeeded, %d failed\n",
			len(events), res.Succeeded, res.Failed)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "", "path to events file (JSON array or one event per line; - for stdin)")
	processCmd.Flags().IntVar(&processConcurrency, "concurrency", 0, "max events in flight (default from config)")
	_ = processCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(processCmd)
}

func readEventsFile(path string) ([]model.Event, error) {
	if path == "-" {
		return readEvents(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open events file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return readEvents(f)
}

// readEvents decodes either a single JSON array of events or a stream of
// whitespace-separated event objects.
func readEvents(r io.Reader) ([]model.Event, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read events")
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var events []model.Event
		if err := dec.Decode(&events); err != nil {
			return nil, eris.Wrap(err, "decode events array")
		}
		return events, nil
	}

	var events []model.Event
	for {
		var ev model.Event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "decode event %d", len(events)+1)
		}
		events = append(events, ev)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
