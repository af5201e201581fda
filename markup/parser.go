package markup

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 富文本标签集合：<color=...> </color> <size=.n> </size> <b> </b> <i> </i>。
// 其余以 '<' 开头的内容一律按普通文本处理。
var (
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Tag", Pattern: `<color=[^>\n]*>|</color>|<size=.n>|</size>|</?[bi]>`},
		{Name: "Text", Pattern: `[^<]+|<`},
	})

	textParser = participle.MustBuild[Text](
		participle.Lexer(markupLexer),
	)
)

// Text is the parsed form of a rich-text string: tags and plain text in source order.
type Text struct {
	Segments []*Segment `parser:"@@*"`
}

// Segment is either a recognised tag or a stretch of plain text.
type Segment struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Tag  *Tag           `parser:"  @Tag"`
	Text *string        `parser:"| @Text"`
}

// Tag 记录一个标签的名称、参数与原文。
type Tag struct {
	Name    string // color / size / b / i
	Value   string // color= 与 size= 之后的参数
	Closing bool
	Raw     string
}

// Capture implements participle.Capture.
func (t *Tag) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("tag capture requires value")
	}
	raw := values[0]
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	closing := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	name, value, _ := strings.Cut(body, "=")
	*t = Tag{Name: name, Value: value, Closing: closing, Raw: raw}
	return nil
}

// Parse splits s into tags and plain text.
func Parse(s string) (*Text, error) {
	return textParser.ParseString("", s)
}

// Strip 去掉 s 中的富文本标签，仅保留用于测量宽度的可见文本。
func Strip(s string) (string, error) {
	if !strings.ContainsRune(s, '<') {
		return s, nil
	}
	t, err := Parse(s)
	if err != nil {
		return "", fmt.Errorf("解析富文本标签失败: %w", err)
	}
	return t.Plain(), nil
}

// Plain returns the visible text with every tag removed.
func (t *Text) Plain() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		if seg.Text != nil {
			b.WriteString(*seg.Text)
		}
	}
	return b.String()
}

// String reassembles the original source.
func (t *Text) String() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		switch {
		case seg.Tag != nil:
			b.WriteString(seg.Tag.Raw)
		case seg.Text != nil:
			b.WriteString(*seg.Text)
		}
	}
	return b.String()
}

// Tags returns the tags in source order.
func (t *Text) Tags() []Tag {
	var tags []Tag
	for _, seg := range t.Segments {
		if seg.Tag != nil {
			tags = append(tags, *seg.Tag)
		}
	}
	return tags
}
