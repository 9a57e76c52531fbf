package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/diagnostic"
	"phptdd/internal/adapter/fs"
	"phptdd/internal/adapter/runner"
	"phptdd/internal/adapter/watcher"
	"phptdd/internal/domain"
	"phptdd/internal/usecase"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Auto-run bound unit tests when token dumps change",
	Long: `Watch a workspace for changed token dumps. Every changed line is mapped to the
entity enclosing it, and that entity's @testFunction is queued. The queue is
flushed at most once per runner.debounce_ms, running each test function once.
Entities annotated with @testDisableAutoRun are skipped.

Commands are printed rather than executed; failures are reported as LSP
publishDiagnostics payloads.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := workspaceArg(args)
	if err != nil {
		return err
	}
	cfg := GetConfig()
	if !cfg.Runner.EnableAutoRun {
		return fmt.Errorf("auto-run is disabled (runner.enable_auto_run)")
	}

	source, err := newSource()
	if err != nil {
		return err
	}
	locate := usecase.NewLocateUseCase(source, analyzer.NewEntityParser())

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes, cfg.Index.RespectGitignore)
	w, err := watcher.New(path, func(p string) bool { return walker.Matches(path, p) })
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer w.Close()

	ctx := cmd.Context()
	events, err := w.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	diagnostics := diagnostic.NewSet()
	dry := runner.NewDryRunner(runner.NewCommandPlan(cfg.Runner), path, out)
	scheduler := usecase.NewScheduler(dry, diagnostics,
		time.Duration(cfg.Runner.DebounceMs)*time.Millisecond, usecase.SystemClock)

	poll := time.NewTicker(cfg.Runner.PollInterval())
	defer poll.Stop()

	previous := make(map[string][]domain.Token)
	published := make(map[string]bool)
	fmt.Fprintf(out, "Watching %s...\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op == watcher.OpRemoved {
				delete(previous, ev.Path)
				continue
			}
			tokens, err := source.Tokens(ctx, ev.Path)
			if err != nil {
				fmt.Fprintln(out, warningStyle.Sprint(err))
				continue
			}
			lines := usecase.ChangedLines(previous[ev.Path], tokens)
			previous[ev.Path] = tokens
			if len(lines) == 0 {
				continue
			}

			infos, err := locate.LineTestFunctions(ctx, ev.Path, lines)
			if err != nil {
				fmt.Fprintln(out, warningStyle.Sprint(err))
				continue
			}
			if scheduler.Enqueue(ev.Path, infos...) > 0 {
				if err := flush(cmd, scheduler, diagnostics, published, out); err != nil {
					return err
				}
			}
		case <-poll.C:
			if scheduler.Pending() == 0 {
				continue
			}
			if err := flush(cmd, scheduler, diagnostics, published, out); err != nil {
				return err
			}
		}
	}
}

// flush runs the queue and publishes diagnostics for every document that
// has or had failures, so that fixed tests clear their markers.
func flush(cmd *cobra.Command, scheduler *usecase.Scheduler, diagnostics *diagnostic.Set, published map[string]bool, out io.Writer) error {
	if _, err := scheduler.Flush(cmd.Context()); err != nil {
		if cmd.Context().Err() != nil {
			return nil
		}
		return err
	}
	for _, uri := range diagnostics.URIs() {
		published[uri] = true
	}
	for uri := range published {
		params := diagnostics.Publish(uri)
		if err := writeJSON(out, params); err != nil {
			return err
		}
		if len(params.Diagnostics) == 0 {
			delete(published, uri)
		}
	}
	return nil
}
