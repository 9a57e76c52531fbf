package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"phptdd/internal/domain"
)

var (
	entitiesTestable bool
	entitiesJSON     bool
	atJSON           bool
	testsJSON        bool
)

var entitiesCmd = &cobra.Command{
	Use:   "entities <dump>",
	Short: "List the entities declared in a token dump",
	Long: `List the use statements, classes, methods and functions declared in a
token dump, in declaration order.

Examples:
  phptdd entities src/Cart.tokens.json
  phptdd entities src/Cart.tokens.json --testable --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEntities,
}

var atCmd = &cobra.Command{
	Use:   "at <dump> <line>",
	Short: "Show the testable entity enclosing a line",
	Args:  cobra.ExactArgs(2),
	RunE:  runAt,
}

var testsCmd = &cobra.Command{
	Use:   "tests <dump> <line>...",
	Short: "List the test functions bound to the entities at the given lines",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTests,
}

func init() {
	rootCmd.AddCommand(entitiesCmd, atCmd, testsCmd)
	entitiesCmd.Flags().BoolVar(&entitiesTestable, "testable", false, "only classes and functions")
	entitiesCmd.Flags().BoolVar(&entitiesJSON, "json", false, "output as JSON")
	atCmd.Flags().BoolVar(&atJSON, "json", false, "output as JSON")
	testsCmd.Flags().BoolVar(&testsJSON, "json", false, "output as JSON")
}

func runEntities(cmd *cobra.Command, args []string) error {
	locate, err := newLocate()
	if err != nil {
		return err
	}

	var entities []*domain.Entity
	if entitiesTestable {
		entities, err = locate.TestableEntities(cmd.Context(), args[0])
	} else {
		entities, err = locate.Entities(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if entitiesJSON {
		views := make([]*entityView, 0, len(entities))
		for _, e := range entities {
			views = append(views, newEntityView(e))
		}
		return writeJSON(out, views)
	}

	if len(entities) == 0 {
		fmt.Fprintln(out, "No entities found.")
		return nil
	}
	for _, e := range entities {
		printEntity(out, e, 0)
	}
	return nil
}

func runAt(cmd *cobra.Command, args []string) error {
	line, err := parseLine(args[1])
	if err != nil {
		return err
	}
	locate, err := newLocate()
	if err != nil {
		return err
	}

	entity, err := locate.EntityAt(cmd.Context(), args[0], line)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if atJSON {
		if entity == nil {
			return writeJSON(out, nil)
		}
		return writeJSON(out, newEntityView(entity))
	}
	if entity == nil {
		fmt.Fprintf(out, "No testable entity encloses line %d.\n", line)
		return nil
	}
	printEntity(out, entity, 0)
	return nil
}

type testView struct {
	Entity       string `json:"entity"`
	TestFunction string `json:"test_function"`
	AutoRun      bool   `json:"auto_run"`
}

func runTests(cmd *cobra.Command, args []string) error {
	lines := make([]int, 0, len(args)-1)
	for _, arg := range args[1:] {
		line, err := parseLine(arg)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	locate, err := newLocate()
	if err != nil {
		return err
	}

	infos, err := locate.LineTestFunctions(cmd.Context(), args[0], lines)
	if err != nil {
		return err
	}

	views := make([]testView, 0, len(infos))
	for _, info := range infos {
		if !info.HasTestFunction() {
			continue
		}
		views = append(views, testView{
			Entity:       info.Entity.FullName(),
			TestFunction: info.FunctionName,
			AutoRun:      !info.DisableAutoRun,
		})
	}

	out := cmd.OutOrStdout()
	if testsJSON {
		return writeJSON(out, views)
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "No bound test functions.")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(out, "%s %s\n", testStyle.Sprint(v.TestFunction), lineStyle.Sprint(v.Entity))
	}
	return nil
}

func parseLine(s string) (int, error) {
	line, err := strconv.Atoi(s)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line number %q", s)
	}
	return line, nil
}
