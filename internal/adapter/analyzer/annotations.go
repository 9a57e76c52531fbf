package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"phptdd/internal/domain"
)

var (
	testFunctionPattern   = regexp.MustCompile(`@testFunction[ \t]*(\S*)`)
	disableAutoRunPattern = regexp.MustCompile(`@testDisableAutoRun`)
)

// ReadTestFunction extracts the test binding from the entity's comment.
// When several @testFunction lines are present the last one wins.
func ReadTestFunction(e *domain.Entity) domain.TestFunctionInfo {
	info := domain.TestFunctionInfo{Entity: e}
	if e == nil || e.Comment == nil {
		return info
	}
	for _, line := range strings.Split(e.Comment.Text, "\n") {
		if m := testFunctionPattern.FindStringSubmatch(line); m != nil {
			info.FunctionName = m[1]
		}
		if disableAutoRunPattern.MatchString(line) {
			info.DisableAutoRun = true
		}
	}
	return info
}

// DefaultTestFunctionName proposes a test function name for an entity that
// has none yet.
func DefaultTestFunctionName(e *domain.Entity) string {
	if e.IsMethod() {
		return "test" + capitalize(e.Class.Name) + capitalize(e.Name)
	}
	return "test" + capitalize(e.Name)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
