package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phptdd/config"
	"phptdd/internal/domain"
	"phptdd/internal/port"
)

var _ port.TestRunner = (*DryRunner)(nil)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
	}{
		{"single", "run __A__", map[string]string{"__A__": "x"}, "run x"},
		{"repeated", "__A__ and __A__", map[string]string{"__A__": "x"}, "x and x"},
		{"empty value", "run __A__!", map[string]string{"__A__": ""}, "run !"},
		{"several", "__A__/__B__", map[string]string{"__A__": "1", "__B__": "2"}, "1/2"},
		{"no values", "plain", nil, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.template, tt.values))
		})
	}
}

func testPlan() CommandPlan {
	return CommandPlan{
		TestSubdirectory: "tests/unit/",
		Commands: config.CommandsConfig{
			Directory:          "__WORKSPACE_DIRECTORY__",
			RunUnitTest:        "phpunit --filter __FUNCTION__ __TEST_DIRECTORY__",
			RunAllUnitTests:    "phpunit __TEST_SUBDIRECTORY__",
			RunCodeCoverage:    "phpunit --coverage __TEST_DIRECTORY__",
			CodeCoverageReport: "__TEST_DIRECTORY__/coverage/index.html",
		},
	}
}

func TestCommandPlan_For(t *testing.T) {
	plan := testPlan()

	cmd := plan.For("/work/app/", "testCartTotal", false)
	assert.Equal(t, "phpunit --filter testCartTotal /work/app/tests/unit", cmd.Line)
	assert.Equal(t, "/work/app", cmd.Directory)
	assert.Equal(t, "Running unit test testCartTotal", cmd.Message)
	assert.Empty(t, cmd.Report)

	cmd = plan.For("/work/app", "", false)
	assert.Equal(t, "phpunit tests/unit", cmd.Line)
	assert.Equal(t, "Running all unit tests", cmd.Message)

	cmd = plan.For("/work/app", "", true)
	assert.Equal(t, "phpunit --coverage /work/app/tests/unit", cmd.Line)
	assert.Equal(t, "/work/app/tests/unit/coverage/index.html", cmd.Report)

	// A named function ignores coverage.
	cmd = plan.For("/work/app", "testX", true)
	assert.Equal(t, "phpunit --filter testX /work/app/tests/unit", cmd.Line)
	assert.Empty(t, cmd.Report)
}

func TestNewCommandPlan_Defaults(t *testing.T) {
	plan := NewCommandPlan(config.DefaultConfig().Runner)
	cmd := plan.For("/w", "testFoo", false)
	assert.Contains(t, cmd.Line, "testFoo")
	assert.Contains(t, cmd.Line, "/w/tests")
	assert.Equal(t, "/w", cmd.Directory)
}

func TestDryRunner_Run(t *testing.T) {
	var out bytes.Buffer
	r := NewDryRunner(testPlan(), "/work/app", &out)

	info := domain.TestFunctionInfo{FunctionName: "testCartTotal"}
	require.NoError(t, r.Run(context.Background(), info, false))
	assert.Equal(t,
		"*** Running unit test testCartTotal ***\nCommand \"phpunit --filter testCartTotal /work/app/tests/unit\"\n",
		out.String())

	out.Reset()
	require.NoError(t, r.Run(context.Background(), domain.TestFunctionInfo{}, true))
	assert.Contains(t, out.String(), "Report /work/app/tests/unit/coverage/index.html\n")
}

func TestDryRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := NewDryRunner(testPlan(), "/w", &out)
	assert.ErrorIs(t, r.Run(ctx, domain.TestFunctionInfo{FunctionName: "x"}, false), context.Canceled)
	assert.Empty(t, out.String())
}
