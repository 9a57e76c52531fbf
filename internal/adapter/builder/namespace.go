package builder

import (
	"regexp"
	"strings"

	"phptdd/internal/domain"
)

var (
	invalidNamespaceChars = regexp.MustCompile(`[^a-zA-Z0-9_\x{7f}-\x{ff}]`)
	namespacePartStart    = regexp.MustCompile(`^[a-zA-Z_\x{7f}-\x{ff}]`)
)

// ValidateNamespace rewrites each part of a backslash separated namespace
// into a legal PHP identifier.
func ValidateNamespace(namespace string) string {
	parts := strings.Split(namespace, `\`)
	for i, part := range parts {
		if part == "" {
			continue
		}
		part = invalidNamespaceChars.ReplaceAllString(part, "_")
		if !namespacePartStart.MatchString(part) {
			part = "ns_" + part
		}
		parts[i] = part
	}
	return strings.Join(parts, `\`)
}

// TestNamespace derives the namespace of a test file from its directory
// relative to the test root.
func TestNamespace(relativeDir string) string {
	ns := strings.ReplaceAll(relativeDir, "/", `\`)
	ns = strings.ReplaceAll(ns, "-", "_")
	if !strings.HasPrefix(ns, `\`) {
		ns = `\` + ns
	}
	ns = ValidateNamespace(ns)
	return strings.TrimSuffix(ns, `\`)
}

// UseStatement returns the use statement the test file needs to reference
// entity, or "" when one of uses already imports it. line is where the
// statement goes: after the last existing use, and never before line 1.
func UseStatement(entity *domain.Entity, uses []*domain.Entity) (stmt string, line int) {
	target := entity
	if entity.IsMethod() {
		target = entity.Class
	}
	name := target.Name
	if target.Namespace != "" {
		name = target.Namespace + `\` + target.Name
	}

	line = 1
	needed := true
	for _, u := range uses {
		if u.Kind != domain.KindUse {
			continue
		}
		if u.EndLine > line {
			line = u.EndLine
		}
		if u.Namespace == name {
			needed = false
		}
	}
	if !needed {
		return "", line
	}
	return "use " + name + ";", line
}
