package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/umwelt/internal/models"
)

// Root is the top of a project tree. It renders as the project's top-level
// package or index page.
type Root struct {
	base
}

func (r *Root) Kind() string { return models.KindRoot }

func (r *Root) Semantic(name string) (Artifact, error) {
	dir := path.Join(append(r.segments(), Snake(r.label))...)
	return render(name, renderer{
		plain: func() (Artifact, error) {
			code, err := packageDoc(Snake(r.label), r.note, "is the root of "+r.label+".")
			if err != nil {
				return Artifact{}, err
			}
			return Artifact{Rel: path.Join(dir, "doc.go"), Code: code}, nil
		},
		markdown: func() Artifact {
			return Artifact{
				Rel:  path.Join(dir, "README.md"),
				Code: page(r.label, r.Kind(), "", r.note),
			}
		},
		html: func() string { return path.Join(dir, "index.html") },
	})
}

// Space is a namespace inside the tree. It becomes a directory.
type Space struct {
	base
}

func (s *Space) Kind() string { return models.KindSpace }

func (s *Space) Semantic(name string) (Artifact, error) {
	dir := path.Join(append(s.segments(), Snake(s.label))...)
	return render(name, renderer{
		plain: func() (Artifact, error) {
			code, err := packageDoc(Snake(s.label), s.note, "groups the "+s.label+" space.")
			if err != nil {
				return Artifact{}, err
			}
			return Artifact{Rel: path.Join(dir, "doc.go"), Code: code}, nil
		},
		markdown: func() Artifact {
			return Artifact{
				Rel:  path.Join(dir, "README.md"),
				Code: page(s.label, s.Kind(), s.trail(), s.note),
			}
		},
		html: func() string { return path.Join(dir, "index.html") },
	})
}

// Member is a leaf entity inside a space. It becomes a single file in its
// parent's directory.
type Member struct {
	base
}

func (m *Member) Kind() string { return models.KindMember }

func (m *Member) Semantic(name string) (Artifact, error) {
	dir := path.Join(m.segments()...)
	file := Snake(m.label)
	return render(name, renderer{
		plain: func() (Artifact, error) {
			pkg := file
			if len(m.ancestry) > 0 {
				pkg = Snake(m.ancestry[len(m.ancestry)-1])
			}
			code, err := typeDecl(pkg, Camel(m.label), m.note)
			if err != nil {
				return Artifact{}, err
			}
			return Artifact{Rel: path.Join(dir, file+".go"), Code: code}, nil
		},
		markdown: func() Artifact {
			return Artifact{
				Rel:  path.Join(dir, file+".md"),
				Code: page(m.label, m.Kind(), m.trail(), m.note),
			}
		},
		html: func() string { return path.Join(dir, file+".html") },
	})
}

func packageDoc(pkg, note, fallback string) ([]byte, error) {
	var b strings.Builder
	lines := noteLines(note)
	if len(lines) == 0 {
		fmt.Fprintf(&b, "// Package %s %s\n", pkg, fallback)
	} else {
		fmt.Fprintf(&b, "// Package %s %s\n", pkg, lines[0])
		writeComment(&b, lines[1:])
	}
	fmt.Fprintf(&b, "package %s\n", pkg)
	return formatGo([]byte(b.String()))
}

func typeDecl(pkg, typ, note string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	lines := noteLines(note)
	if len(lines) == 0 {
		fmt.Fprintf(&b, "// %s is a member of package %s.\n", typ, pkg)
	} else {
		fmt.Fprintf(&b, "// %s %s\n", typ, lines[0])
		writeComment(&b, lines[1:])
	}
	fmt.Fprintf(&b, "type %s struct{}\n", typ)
	return formatGo([]byte(b.String()))
}

func writeComment(b *strings.Builder, lines []string) {
	for _, l := range lines {
		if l == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// " + l + "\n")
	}
}

func page(title, kind, trail, note string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Kind: %s\n", kind)
	if trail != "" {
		fmt.Fprintf(&b, "\nPath: %s\n", trail)
	}
	if lines := noteLines(note); len(lines) > 0 {
		b.WriteString("\n" + strings.Join(lines, "\n") + "\n")
	}
	return []byte(b.String())
}

func noteLines(note string) []string {
	note = strings.TrimSpace(strings.ReplaceAll(note, "\r\n", "\n"))
	if note == "" {
		return nil
	}
	lines := strings.Split(note, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}
