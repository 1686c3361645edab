package artifacts

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Env File Encoding
// =============================================================================

// envFileHeader is written at the top of every generated environment file.
const envFileHeader = `# Generated by labctl. Edit with care: rebuilds preserve
# generated secrets read back from this file.`

// EncodeEnvFile renders the environment mapping as a dotenv document with
// keys sorted and grouped by their leading prefix segment.
func EncodeEnvFile(env map[string]string) []byte {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(envFileHeader)
	b.WriteString("\n")

	prevGroup := ""
	for _, k := range keys {
		group, _, _ := strings.Cut(k, "_")
		if group != prevGroup {
			b.WriteString("\n")
			prevGroup = group
		}
		fmt.Fprintf(&b, "%s=%s\n", k, quoteEnvValue(env[k]))
	}
	return []byte(b.String())
}

// quoteEnvValue double-quotes values that dotenv parsers would otherwise
// mangle: whitespace, comment markers, quotes, or shell metacharacters.
func quoteEnvValue(v string) string {
	if v == "" {
		return v
	}
	if !strings.ContainsAny(v, " \t#'\"\\$`") {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
	return `"` + escaped + `"`
}

// =============================================================================
// Env File Parsing
// =============================================================================

// ParseEnvFile parses dotenv content into a flat mapping. Blank lines and
// comments are skipped; surrounding quotes on values are stripped. Malformed
// lines are ignored, mirroring how docker compose treats env files.
func ParseEnvFile(content []byte) map[string]string {
	env := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		env[key] = unquoteEnvValue(strings.TrimSpace(value))
	}
	return env
}

func unquoteEnvValue(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		inner := v[1 : len(v)-1]
		return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(inner)
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}
