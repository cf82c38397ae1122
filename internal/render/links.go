package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nieveai/content-crew/internal/tools"
)

// Links returns the distinct http(s) links a markdown document points at,
// in document order: link destinations, autolinks and bare URLs in text
// such as [Source: URL] citations. Code is ignored.
func Links(source string) []string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var out []string
	seen := make(map[string]bool)
	add := func(u string) {
		lower := strings.ToLower(u)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return
		}
		if seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	// Text runs of one block are joined before scanning, the inline parser
	// splits them at delimiters like '_'.
	var run strings.Builder
	flush := func() {
		for _, u := range tools.ExtractURLs(run.String()) {
			add(u)
		}
		run.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				run.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					run.WriteByte('\n')
				}
			}
		case *ast.Link:
			if entering {
				flush()
				add(string(node.Destination))
				return ast.WalkSkipChildren, nil
			}
		case *ast.AutoLink:
			if entering {
				flush()
				for _, u := range tools.ExtractURLs(string(node.URL(src))) {
					add(u)
				}
				return ast.WalkSkipChildren, nil
			}
		case *ast.CodeSpan:
			if entering {
				flush()
				return ast.WalkSkipChildren, nil
			}
		default:
			if n.Type() == ast.TypeBlock {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	flush()
	return out
}
