package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/umwelt/internal/node"
)

// layouts lists the files each node kind renders to, per semantic. <dir> is
// the snake_case path of the node's ancestors.
var layouts = map[string][3]string{
	node.SemanticPlain:    {"<dir>/<root>/doc.go", "<dir>/<space>/doc.go", "<dir>/<member>.go"},
	node.SemanticMarkdown: {"<dir>/<root>/README.md", "<dir>/<space>/README.md", "<dir>/<member>.md"},
	node.SemanticHTML:     {"<dir>/<root>/index.html", "<dir>/<space>/index.html", "<dir>/<member>.html"},
}

// SemanticsContract describes the available semantics for LLM consumers.
func SemanticsContract() string {
	var b strings.Builder
	b.WriteString("# Umwelt Semantics\n\n")
	b.WriteString("An imprint renders every node of a phase with one semantic and writes\n")
	b.WriteString("one file per node below the target directory. The target must be empty.\n\n")
	b.WriteString("| semantic | root | space | member |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, s := range node.Semantics() {
		l := layouts[s]
		fmt.Fprintf(&b, "| %s | `%s` | `%s` | `%s` |\n", s, l[0], l[1], l[2])
	}
	b.WriteString("\nLabels are converted to snake_case for paths and CamelCase for Go type names.\n")
	return b.String()
}
