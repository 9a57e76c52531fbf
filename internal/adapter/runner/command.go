// Package runner expands the configured test command templates.
package runner

import (
	"path/filepath"
	"sort"
	"strings"

	"phptdd/config"
)

const (
	PlaceholderFunction           = "__FUNCTION__"
	PlaceholderTestSubdirectory   = "__TEST_SUBDIRECTORY__"
	PlaceholderTestDirectory      = "__TEST_DIRECTORY__"
	PlaceholderWorkspaceDirectory = "__WORKSPACE_DIRECTORY__"
)

// Substitute replaces every occurrence of each key of values in template.
func Substitute(template string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		template = strings.ReplaceAll(template, k, values[k])
	}
	return template
}

// Command is a fully expanded test invocation.
type Command struct {
	Line      string
	Directory string
	// Report is the coverage report to open afterwards, if any.
	Report  string
	Message string
}

// CommandPlan holds the templates for one workspace configuration.
type CommandPlan struct {
	TestSubdirectory string
	Commands         config.CommandsConfig
}

func NewCommandPlan(cfg config.RunnerConfig) CommandPlan {
	return CommandPlan{TestSubdirectory: cfg.TestSubdirectory, Commands: cfg.Commands}
}

// Values returns the placeholder values for a run in workspace.
func (p CommandPlan) Values(workspace, function string) map[string]string {
	workspace = filepath.Clean(workspace)
	return map[string]string{
		PlaceholderFunction:           function,
		PlaceholderTestSubdirectory:   slashed(filepath.Clean(p.TestSubdirectory)),
		PlaceholderTestDirectory:      slashed(filepath.Join(workspace, p.TestSubdirectory)),
		PlaceholderWorkspaceDirectory: workspace,
	}
}

// For expands the command that runs function, or the whole suite when
// function is empty. Coverage only applies to whole-suite runs.
func (p CommandPlan) For(workspace, function string, coverage bool) Command {
	values := p.Values(workspace, function)
	cmd := Command{Directory: Substitute(p.Commands.Directory, values)}

	switch {
	case function != "":
		cmd.Line = Substitute(p.Commands.RunUnitTest, values)
		cmd.Message = "Running unit test " + function
	case coverage:
		cmd.Line = Substitute(p.Commands.RunCodeCoverage, values)
		cmd.Message = "Running all unit tests"
		if p.Commands.CodeCoverageReport != "" {
			cmd.Report = Substitute(p.Commands.CodeCoverageReport, values)
		}
	default:
		cmd.Line = Substitute(p.Commands.RunAllUnitTests, values)
		cmd.Message = "Running all unit tests"
	}
	return cmd
}

func slashed(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
