// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func markdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParserInstance
}

// renderMarkdown renders a command description for the terminal.
// Paragraphs are reflowed to width; soft line breaks become spaces so
// descriptions can be hard-wrapped in source. Fenced code blocks are
// highlighted with chroma when color is on.
func renderMarkdown(input string, styles *Styles, width int) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	renderer := &markdownRenderer{source: source, styles: styles, width: width}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST, accumulating inline content
// per block and wrapping it when the block closes.
type markdownRenderer struct {
	source []byte
	styles *Styles
	width  int

	output strings.Builder
	inline strings.Builder

	// indent is the prefix of continuation lines inside list items;
	// bullet replaces it on an item's first line.
	indent string
	bullet string

	bold, italic, strikethrough int

	lists []listState
}

type listState struct {
	ordered bool
	counter int
	tight   bool

	// indent is the prefix in effect outside the current item.
	indent string
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushParagraph()
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
		} else {
			content := ansi.Strip(r.inline.String())
			r.inline.Reset()
			r.blankLine()
			r.output.WriteString(r.styles.Heading.Render(content) + "\n\n")
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			r.renderCode(r.lines(block), string(block.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			r.renderCode(r.lines(node), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		list := node.(*ast.List)
		if entering {
			r.lists = append(r.lists, listState{ordered: list.IsOrdered(), counter: list.Start, tight: list.IsTight})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if len(r.lists) == 0 {
				r.blankLine()
			}
		}

	case ast.KindListItem:
		if len(r.lists) == 0 {
			break
		}
		top := &r.lists[len(r.lists)-1]
		if entering {
			bullet := "- "
			if top.ordered {
				bullet = fmt.Sprintf("%d. ", top.counter)
				top.counter++
			}
			top.indent = r.indent
			r.bullet = r.indent + bullet
			r.indent += strings.Repeat(" ", len(bullet))
		} else {
			r.indent = top.indent
		}

	case ast.KindText:
		if entering {
			node := node.(*ast.Text)
			r.inline.WriteString(r.styledText(string(node.Segment.Value(r.source))))
			if node.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
			if node.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &r.italic
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &r.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case extast.KindStrikethrough:
		if entering {
			r.strikethrough++
		} else {
			r.strikethrough--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.styles.Code.Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			destination := string(node.(*ast.Link).Destination)
			if destination != "" {
				r.inline.WriteString(" " + r.styles.Faint.Render("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			r.inline.WriteString(r.styles.Faint.Render(string(node.(*ast.AutoLink).URL(r.source))))
		}
	}
	return ast.WalkContinue, nil
}

func (r *markdownRenderer) styledText(content string) string {
	style := r.styles.newStyle()
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	if r.strikethrough > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (r *markdownRenderer) flushParagraph() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	width := max(r.width-len(r.indent), 10)
	for i, line := range strings.Split(ansi.Wrap(content, width, " ,.;-+|"), "\n") {
		prefix := r.indent
		if i == 0 && r.bullet != "" {
			prefix, r.bullet = r.bullet, ""
		}
		r.output.WriteString(prefix + line + "\n")
	}
	if len(r.lists) == 0 || !r.lists[len(r.lists)-1].tight {
		r.output.WriteString("\n")
	}
}

func (r *markdownRenderer) lines(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for i := range lines.Len() {
		segment := lines.At(i)
		code.Write(segment.Value(r.source))
	}
	return code.String()
}

// renderCode writes a code block indented by two spaces.
func (r *markdownRenderer) renderCode(code, language string) {
	rendered := r.styles.Faint.Render(strings.TrimRight(code, "\n"))
	if r.styles.Color && language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			rendered = buffer.String()
		}
	}
	r.blankLine()
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		r.output.WriteString(r.indent + "  " + line + "\n")
	}
	r.output.WriteString("\n")
}

// blankLine ends the output with an empty line unless it is empty or
// already does.
func (r *markdownRenderer) blankLine() {
	current := r.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	if strings.HasSuffix(current, "\n") {
		r.output.WriteString("\n")
		return
	}
	r.output.WriteString("\n\n")
}
