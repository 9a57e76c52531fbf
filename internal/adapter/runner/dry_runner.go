package runner

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tliron/commonlog"

	"phptdd/internal/domain"
)

var log = commonlog.GetLogger("phptdd.runner")

// DryRunner prints the commands it would run instead of spawning them.
type DryRunner struct {
	plan      CommandPlan
	workspace string

	mu  sync.Mutex
	out io.Writer
}

func NewDryRunner(plan CommandPlan, workspace string, out io.Writer) *DryRunner {
	return &DryRunner{plan: plan, workspace: workspace, out: out}
}

func (r *DryRunner) Run(ctx context.Context, info domain.TestFunctionInfo, coverage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := r.plan.For(r.workspace, info.FunctionName, coverage)
	log.Debugf("dry run in %s: %s", cmd.Directory, cmd.Line)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.out, "*** %s ***\nCommand \"%s\"\n", cmd.Message, cmd.Line); err != nil {
		return err
	}
	if cmd.Report != "" {
		if _, err := fmt.Fprintf(r.out, "Report %s\n", cmd.Report); err != nil {
			return err
		}
	}
	return nil
}
