package builder

import (
	_ "embed"
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrNoWorkspace = errors.New("unable to determine unit test directory, the document is not inside a workspace")

//go:embed templates/TestCase.php.tmpl
var DefaultTemplate string

// TestFile locates the unit test for a source document.
type TestFile struct {
	Path string
	// RelativePath is the document's directory relative to its workspace,
	// with a trailing separator.
	RelativePath string
}

// TestFileName maps documentPath to <root>/<testSubdir>/<relative dir>/<name>Test.php
// using the first workspace root that contains it. Documents directly in a
// root have no test location.
func TestFileName(documentPath string, workspaceRoots []string, testSubdir string) (TestFile, error) {
	sep := string(filepath.Separator)
	dir := filepath.Dir(documentPath)
	if !strings.HasSuffix(dir, sep) {
		dir += sep
	}

	for _, root := range workspaceRoots {
		if !strings.HasPrefix(dir, root) {
			continue
		}
		segment := dir[len(root):]
		if segment == "" {
			continue
		}
		from := 0
		if strings.HasPrefix(segment, sep) {
			from = 1
		}
		if !strings.Contains(segment[from:], sep) {
			continue
		}

		testDir := filepath.Join(root, testSubdir, segment)
		name := filepath.Base(documentPath)
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "Test.php"
		return TestFile{Path: filepath.Join(testDir, name), RelativePath: segment}, nil
	}
	return TestFile{}, ErrNoWorkspace
}

// TestCaseClassName names the test class for a source file.
func TestCaseClassName(sourcePath string) string {
	name := filepath.Base(sourcePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	r, size := utf8.DecodeRuneInString(name)
	if size > 0 {
		name = string(unicode.ToUpper(r)) + name[size:]
	}
	return name + "Test"
}

// RenderTestClass fills a test class template. An empty template renders
// DefaultTemplate.
func RenderTestClass(template, sourcePath, relativeDir string, useBaseTestCase bool) string {
	if template == "" {
		template = DefaultTemplate
	}
	useClass, baseClass := `PHPUnit\Framework\TestCase`, "TestCase"
	if useBaseTestCase {
		useClass, baseClass = `PHPTDD\BaseTestCase`, "BaseTestCase"
	}
	r := strings.NewReplacer(
		"__TestNamespace__", TestNamespace(relativeDir),
		"__TestCaseClassName__", TestCaseClassName(sourcePath),
		"__TestUseClass__", useClass,
		"__TestClass__", baseClass,
	)
	return r.Replace(template)
}
