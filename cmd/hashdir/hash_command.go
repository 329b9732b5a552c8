package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

type hashOptions struct {
	poll      time.Duration
	stopAfter time.Duration
	summary   string
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	opts := hashOptions{}

	cmd := &cobra.Command{
		Use:   "hash DIR...",
		Short: "Hash all files under each directory and print one line per file",
		Long: `Starts one hashing operation per directory and prints each result as
"<operation_id> <path> <DIGEST>" as soon as it is available.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.summary {
			case summaryAuto, summaryAlways, summaryNever:
			default:
				return fmt.Errorf("invalid --summary %q (expected auto, always or never)", opts.summary)
			}
			if opts.poll <= 0 {
				return fmt.Errorf("--poll must be positive")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runHash(cmd, cfg, args, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Interval between log polls while operations are running")
	cmd.Flags().DurationVar(&opts.stopAfter, "stop-after", 0, "Stop all operations after this long (0 waits for completion)")
	cmd.Flags().StringVar(&opts.summary, "summary", summaryAuto, "Print an operation summary table: auto, always or never")
	return cmd
}

func runHash(cmd *cobra.Command, cfg *hashengine.Config, dirs []string, opts hashOptions) error {
	lib := hashengine.NewLibrary(hashengine.WithConfig(cfg))
	if err := lib.Init(); err != nil {
		return err
	}
	defer func() {
		if lib.State() == hashengine.StateInitialized {
			_ = lib.Terminate()
		}
	}()

	ids := make([]uint64, 0, len(dirs))
	for _, dir := range dirs {
		id, err := lib.StartHashing(dir)
		if err != nil {
			lib.StopAll()
			return fmt.Errorf("hash %s: %w", dir, err)
		}
		hashengine.VerboseLog(1, "operation %d: %s", id, dir)
		ids = append(ids, id)
	}

	shutdown, stopSignals := setupSignalHandler(cmd.ErrOrStderr())
	defer stopSignals()

	var deadline <-chan time.Time
	if opts.stopAfter > 0 {
		timer := time.NewTimer(opts.stopAfter)
		defer timer.Stop()
		deadline = timer.C
	}

	out := newLineWriter(cmd.OutOrStdout())
	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	for {
		if err := drain(lib, out); err != nil {
			lib.StopAll()
			return err
		}

		running, err := anyRunning(lib, ids)
		if err != nil {
			return err
		}
		if !running {
			// Entries published between the drain and the status check
			if err := drain(lib, out); err != nil {
				return err
			}
			break
		}

		select {
		case <-ticker.C:
		case <-shutdown:
			n, _ := lib.StopAll()
			hashengine.VerboseLog(1, "interrupted, stopping %d operations", n)
			shutdown = nil
		case <-deadline:
			n, _ := lib.StopAll()
			hashengine.VerboseLog(1, "stop-after %v reached, stopping %d operations", opts.stopAfter, n)
			deadline = nil
		}
	}

	infos, err := lib.Operations()
	if err != nil {
		return err
	}
	if showSummary(opts.summary, cmd.ErrOrStderr()) {
		fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(infos))
	}

	if err := lib.Terminate(); err != nil {
		return err
	}
	return summaryError(infos)
}

// drain moves every queued line to out, reading through the same boundary buffer
// path C callers use so buffers are always released
func drain(lib *hashengine.Library, out *lineWriter) error {
	for {
		ptr, err := lib.ReadNextLogLineBuffer()
		if errors.Is(err, hashengine.ErrLogEmpty) {
			return out.Flush()
		}
		if err != nil {
			return err
		}

		line, ok := lib.Arena().GoString(ptr)
		lib.Release(ptr)
		if !ok {
			return fmt.Errorf("log buffer %p was not issued by this library", ptr)
		}
		if err := out.Add(line); err != nil {
			return err
		}
	}
}

func anyRunning(lib *hashengine.Library, ids []uint64) (bool, error) {
	for _, id := range ids {
		running, err := lib.Status(id)
		if err != nil {
			return false, err
		}
		if running {
			return true, nil
		}
	}
	return false, nil
}

// summaryError reports failed operations and unreadable files as a non-zero exit
func summaryError(infos []hashengine.OperationInfo) error {
	var failedOps, failedFiles uint64
	for _, info := range infos {
		if info.State == hashengine.OpFailed {
			failedOps++
		}
		failedFiles += info.FilesFailed
	}
	switch {
	case failedOps > 0:
		return fmt.Errorf("%d operations failed", failedOps)
	case failedFiles > 0:
		return fmt.Errorf("%d files could not be hashed", failedFiles)
	}
	return nil
}
