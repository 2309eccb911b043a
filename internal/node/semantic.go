package node

import (
	"bytes"
	"fmt"
	"go/token"
	"html"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"mvdan.cc/gofumpt/format"
)

// Semantic names a node can render for.
const (
	SemanticPlain    = "plain"
	SemanticMarkdown = "markdown"
	SemanticHTML     = "html"
)

// Semantics returns every supported semantic name.
func Semantics() []string {
	return []string{SemanticPlain, SemanticMarkdown, SemanticHTML}
}

// IsSemantic reports whether name has a renderer.
func IsSemantic(name string) bool {
	for _, s := range Semantics() {
		if s == name {
			return true
		}
	}
	return false
}

type renderer struct {
	plain    func() (Artifact, error)
	markdown func() Artifact
	// html returns the relative path of the page; the content is the
	// markdown rendering converted to HTML.
	html func() string
}

func render(name string, r renderer) (Artifact, error) {
	switch name {
	case SemanticPlain:
		return r.plain()
	case SemanticMarkdown:
		return r.markdown(), nil
	case SemanticHTML:
		md := r.markdown()
		code, err := toHTML(md.Code)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Rel: r.html(), Code: code}, nil
	default:
		return Artifact{}, &UnknownSemanticError{Name: name}
	}
}

// formatGo formats generated Go source with gofumpt. Source that does not
// parse, for example a package named after a Go keyword, is an error.
func formatGo(src []byte) ([]byte, error) {
	formatted, err := format.Source(src, format.Options{})
	if err != nil {
		return nil, &InvalidGoError{Err: err}
	}
	return formatted, nil
}

func toHTML(md []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("node: convert markdown: %w", err)
	}

	title := ""
	if first, _, ok := strings.Cut(string(md), "\n"); ok {
		title = strings.TrimPrefix(first, "# ")
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// Snake converts a label to its lower snake_case path form:
// "ProjectRoot" and "Project_root" both become "project_root".
func Snake(label string) string {
	var b strings.Builder
	runes := []rune(label)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Reserved reports whether label cannot name a Go package because its
// snake_case form is a Go keyword.
func Reserved(label string) bool {
	return token.IsKeyword(Snake(label))
}

// Camel converts a label to an exported Go identifier:
// "member_thing" becomes "MemberThing".
func Camel(label string) string {
	var b strings.Builder
	for _, part := range strings.Split(label, "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
