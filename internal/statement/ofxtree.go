package statement

import (
	"iter"
	"strings"
)

// ofxNode is one element of the loosely structured OFX document tree. Real
// exports mix SGML (unclosed leaf tags) and XML styles and nest the same
// elements at different depths per bank, so the tree is dynamic rather than
// a fixed schema.
type ofxNode struct {
	Name     string
	Value    string
	Children []*ofxNode
}

// Child returns the first direct child with the given name, or nil.
func (n *ofxNode) Child(name string) *ofxNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Text returns the trimmed value of the first direct child with the given
// name, or "".
func (n *ofxNode) Text(name string) string {
	if c := n.Child(name); c != nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Descendants yields every node with the given name at any depth, in
// document order. The walk is unbounded on purpose: banks nest statement
// and transaction-list elements differently.
func (n *ofxNode) Descendants(name string) iter.Seq[*ofxNode] {
	return func(yield func(*ofxNode) bool) {
		n.walk(name, yield)
	}
}

func (n *ofxNode) walk(name string, yield func(*ofxNode) bool) bool {
	for _, c := range n.Children {
		if c.Name == name {
			if !yield(c) {
				return false
			}
		}
		if !c.walk(name, yield) {
			return false
		}
	}
	return true
}

// firstDescendantText returns the trimmed value of the first descendant
// with the given name, or "".
func (n *ofxNode) firstDescendantText(name string) string {
	for d := range n.Descendants(name) {
		return strings.TrimSpace(d.Value)
	}
	return ""
}

// parseOFXTree builds a tolerant tree from OFX body bytes. Tag names are
// uppercased. SGML leaf tags without closing tags are closed implicitly
// when the next tag starts; explicit closing tags pop back to the matching
// open element and are ignored when nothing matches.
func parseOFXTree(data []byte) *ofxNode {
	doc := string(data)
	root := &ofxNode{Name: "ROOT"}
	stack := []*ofxNode{root}
	top := func() *ofxNode { return stack[len(stack)-1] }

	// A leaf with text is implicitly closed as soon as another tag starts.
	closeLeaf := func() {
		if len(stack) > 1 && strings.TrimSpace(top().Value) != "" && len(top().Children) == 0 {
			stack = stack[:len(stack)-1]
		}
	}

	i := 0
	for i < len(doc) {
		open := strings.IndexByte(doc[i:], '<')
		if open < 0 {
			top().Value += doc[i:]
			break
		}
		open += i

		// Text between tags belongs to the current element.
		if open > i {
			top().Value += doc[i:open]
		}

		end := strings.IndexByte(doc[open:], '>')
		if end < 0 {
			break // truncated tag, ignore the tail
		}
		end += open
		tag := strings.TrimSpace(doc[open+1 : end])
		i = end + 1

		switch {
		case tag == "" || strings.HasPrefix(tag, "?") || strings.HasPrefix(tag, "!"):
			// Processing instruction or comment, skip.
		case strings.HasPrefix(tag, "/"):
			name := strings.ToUpper(strings.TrimSpace(tag[1:]))
			closeLeaf()
			for depth := len(stack) - 1; depth >= 1; depth-- {
				if stack[depth].Name == name {
					stack = stack[:depth]
					break
				}
			}
		default:
			name := strings.ToUpper(strings.Fields(tag)[0])
			closeLeaf()
			node := &ofxNode{Name: name}
			top().Children = append(top().Children, node)
			stack = append(stack, node)
		}
	}

	return root
}
