package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/builder"
	"phptdd/internal/domain"
)

const dumpSuffix = ".tokens.json"

var (
	stubSource   string
	stubTestDump string
	stubPadding  string
	stubJSON     bool
)

var stubCmd = &cobra.Command{
	Use:   "stub <dump> <line>",
	Short: "Plan the unit test for the entity at a line",
	Long: `Work out the unit test for the entity enclosing a line: the test file it
belongs in, the test method to add and the @testFunction annotation that binds
the two. Nothing is written; the edits are printed.

Examples:
  phptdd stub src/Shop/Cart.tokens.json 42
  phptdd stub src/Shop/Cart.tokens.json 42 --test-dump tests/src/Shop/CartTest.tokens.json`,
	Args: cobra.ExactArgs(2),
	RunE: runStub,
}

func init() {
	rootCmd.AddCommand(stubCmd)
	stubCmd.Flags().StringVar(&stubSource, "source", "", "PHP source the dump was made from (default: dump name with .php)")
	stubCmd.Flags().StringVar(&stubTestDump, "test-dump", "", "token dump of the existing test file")
	stubCmd.Flags().StringVar(&stubPadding, "padding", "    ", "indentation of generated code")
	stubCmd.Flags().BoolVar(&stubJSON, "json", false, "output as JSON")
}

type stubPlan struct {
	Entity       string        `json:"entity"`
	TestFunction string        `json:"test_function"`
	TestFile     string        `json:"test_file"`
	TestClass    string        `json:"test_class,omitempty"`
	Exists       bool          `json:"exists"`
	Line         int           `json:"line"`
	Stub         string        `json:"stub,omitempty"`
	BodyLine     int           `json:"body_line,omitempty"`
	Use          string        `json:"use,omitempty"`
	UseLine      int           `json:"use_line,omitempty"`
	Annotation   *builder.Edit `json:"annotation,omitempty"`
}

func runStub(cmd *cobra.Command, args []string) error {
	line, err := parseLine(args[1])
	if err != nil {
		return err
	}
	locate, err := newLocate()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := GetConfig()

	entity, err := locate.EntityAt(ctx, args[0], line)
	if err != nil {
		return err
	}
	if entity == nil {
		return fmt.Errorf("no testable entity encloses line %d", line)
	}

	info := analyzer.ReadTestFunction(entity)
	plan := stubPlan{Entity: entity.FullName(), TestFunction: info.FunctionName}
	if !info.HasTestFunction() {
		plan.TestFunction = analyzer.DefaultTestFunctionName(entity)
		edit := builder.TestFunctionComment(entity, plan.TestFunction, stubPadding, "\n")
		plan.Annotation = &edit
	}

	source := stubSource
	if source == "" {
		source = strings.TrimSuffix(args[0], dumpSuffix) + ".php"
	}
	source, err = filepath.Abs(source)
	if err != nil {
		return err
	}
	testFile, err := builder.TestFileName(source, []string{GetRootDir()}, cfg.Runner.TestSubdirectory)
	if err != nil {
		return err
	}
	plan.TestFile = testFile.Path

	var testEntities []*domain.Entity
	if stubTestDump != "" {
		testEntities, err = locate.Entities(ctx, stubTestDump)
		if err != nil {
			return fmt.Errorf("failed to read test dump: %w", err)
		}
		plan.Line, plan.Exists, err = builder.TestMethodLine(testEntities, plan.TestFunction)
		if err != nil {
			return err
		}
	} else {
		template := ""
		if cfg.Runner.TestClassTemplate != "" {
			data, err := os.ReadFile(cfg.Runner.TestClassTemplate)
			if err != nil {
				return fmt.Errorf("unable to set up test case: %w", err)
			}
			template = string(data)
		}
		plan.TestClass = builder.RenderTestClass(template, source, testFile.RelativePath, cfg.Runner.UseBaseTestCase)
		plan.Line = strings.Count(plan.TestClass, "\n")
	}

	if !plan.Exists {
		stub := builder.TestStub(entity, plan.TestFunction, stubPadding, "\n")
		plan.Stub = stub.Text
		plan.BodyLine = plan.Line + stub.BodyOffset
	}

	var uses []*domain.Entity
	for _, e := range testEntities {
		if e.Kind == domain.KindUse {
			uses = append(uses, e)
		}
	}
	plan.Use, plan.UseLine = builder.UseStatement(entity, uses)

	out := cmd.OutOrStdout()
	if stubJSON {
		return writeJSON(out, plan)
	}

	fmt.Fprintf(out, "%s %s\n", nameStyle.Sprint(plan.Entity), testStyle.Sprint(plan.TestFunction))
	fmt.Fprintf(out, "Test file: %s\n", plan.TestFile)
	if plan.TestClass != "" {
		fmt.Fprintf(out, "\nNew test class:\n%s", plan.TestClass)
	}
	if plan.Exists {
		fmt.Fprintf(out, "\nTest method exists at line %d.\n", plan.Line)
	} else {
		fmt.Fprintf(out, "\nInsert before line %d:%s", plan.Line, plan.Stub)
	}
	if plan.Use != "" {
		fmt.Fprintf(out, "\nInsert at line %d:\n%s\n", plan.UseLine, plan.Use)
	}
	if plan.Annotation != nil {
		fmt.Fprintf(out, "\nAnnotate the source before line %d:\n%s", plan.Annotation.Line, plan.Annotation.Text)
	}
	return nil
}
