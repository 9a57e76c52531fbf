package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/domain"
)

var (
	kindStyle    = color.New(color.FgHiBlue)
	nameStyle    = color.New(color.Bold)
	lineStyle    = color.New(color.FgHiBlack)
	testStyle    = color.New(color.FgHiGreen)
	warningStyle = color.New(color.FgYellow)
)

func disableColor() {
	for _, c := range []*color.Color{kindStyle, nameStyle, lineStyle, testStyle, warningStyle} {
		c.DisableColor()
	}
}

// entityView is the JSON shape of an entity for CLI output.
type entityView struct {
	Kind         string        `json:"kind"`
	Name         string        `json:"name,omitempty"`
	FullName     string        `json:"full_name,omitempty"`
	Namespace    string        `json:"namespace,omitempty"`
	StartLine    int           `json:"start_line"`
	EndLine      int           `json:"end_line"`
	Comment      string        `json:"comment,omitempty"`
	TestFunction string        `json:"test_function,omitempty"`
	AutoRun      *bool         `json:"auto_run,omitempty"`
	Functions    []*entityView `json:"functions,omitempty"`
}

func newEntityView(e *domain.Entity) *entityView {
	v := &entityView{
		Kind:      e.Kind.String(),
		Name:      e.Name,
		Namespace: e.Namespace,
		StartLine: e.StartLine,
		EndLine:   e.EndLine,
	}
	if e.Testable() {
		v.FullName = e.FullName()
		info := analyzer.ReadTestFunction(e)
		if info.HasTestFunction() {
			v.TestFunction = info.FunctionName
			autoRun := !info.DisableAutoRun
			v.AutoRun = &autoRun
		}
	}
	if e.Comment != nil {
		v.Comment = e.Comment.String()
	}
	for _, f := range e.Functions {
		v.Functions = append(v.Functions, newEntityView(f))
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printEntity(w io.Writer, e *domain.Entity, depth int) {
	indent := strings.Repeat("  ", depth)
	name := e.FullName()
	if e.Kind == domain.KindUse {
		name = e.Namespace
	}
	fmt.Fprintf(w, "%s%s %s %s",
		indent,
		kindStyle.Sprintf("%-8s", e.Kind),
		nameStyle.Sprint(name),
		lineStyle.Sprintf("L%d-%d", e.StartLine, e.EndLine),
	)
	if e.Testable() {
		if info := analyzer.ReadTestFunction(e); info.HasTestFunction() {
			fmt.Fprintf(w, " -> %s", testStyle.Sprint(info.FunctionName))
			if info.DisableAutoRun {
				fmt.Fprint(w, warningStyle.Sprint(" (no auto-run)"))
			}
		}
	}
	fmt.Fprintln(w)
	for _, f := range e.Functions {
		printEntity(w, f, depth+1)
	}
}
