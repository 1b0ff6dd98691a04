package content

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// blockMarks records what the AST leaves out: where a block opened, which
// matters for empty headings that carry no text segment, and whether a
// fenced code block saw its closing fence.
type blockMarks struct {
	start  map[ast.Node]int
	closed map[ast.Node]bool
}

var blockMarksKey = parser.NewContextKey()

func marksOf(pc parser.Context) *blockMarks {
	return pc.ComputeIfAbsent(blockMarksKey, func() interface{} {
		return &blockMarks{start: make(map[ast.Node]int), closed: make(map[ast.Node]bool)}
	}).(*blockMarks)
}

// trackedParser wraps a goldmark block parser and fills in blockMarks.
type trackedParser struct {
	parser.BlockParser
}

func (p trackedParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	_, seg := reader.PeekLine()
	node, state := p.BlockParser.Open(parent, reader, pc)
	if node != nil {
		marksOf(pc).start[node] = seg.Start
	}
	return node, state
}

func (p trackedParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	state := p.BlockParser.Continue(node, reader, pc)
	if state&parser.Close != 0 {
		marksOf(pc).closed[node] = true
	}
	return state
}

// blockParsers returns goldmark's default block parsers with headings and
// fenced code tracked.
func blockParsers() []util.PrioritizedValue {
	defaults := parser.DefaultBlockParsers()
	out := make([]util.PrioritizedValue, 0, len(defaults))
	for _, v := range defaults {
		switch v.Priority {
		case 600:
			v = util.Prioritized(trackedParser{parser.NewATXHeadingParser()}, v.Priority)
		case 700:
			v = util.Prioritized(trackedParser{parser.NewFencedCodeBlockParser()}, v.Priority)
		}
		out = append(out, v)
	}
	return out
}

func newParser() parser.Parser {
	return parser.NewParser(
		parser.WithBlockParsers(blockParsers()...),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}
