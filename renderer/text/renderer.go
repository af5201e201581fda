// Package textrenderer measures text in terminal cells and renders layout
// results as plain text.
package textrenderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/kinsoku/layout"
	"github.com/ByLCY/kinsoku/markup"
	"github.com/ByLCY/kinsoku/renderer"
)

// Options configures the text renderer.
type Options struct {
	// EastAsian 为 true 时，East Asian Ambiguous 字符按 2 格计算。
	EastAsian bool
	// Frame 在输出外围画一个宽度等于可用宽度的边框。
	Frame bool
}

// Renderer is a cell-based width oracle and plain text renderer.
// 宽度单位为终端格，Style 被忽略。
type Renderer struct {
	cond  *runewidth.Condition
	frame bool
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

func NewRenderer(opts Options) *Renderer {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = opts.EastAsian
	return &Renderer{cond: cond, frame: opts.Frame}
}

// MeasureChar implements layout.Oracle. It never fails.
func (r *Renderer) MeasureChar(ch rune, _ layout.Style) (float64, error) {
	return float64(r.cond.RuneWidth(ch)), nil
}

// TextHeight implements layout.Typesetter: one terminal row.
func (r *Renderer) TextHeight(layout.Style) (float64, error) { return 1, nil }

// Render 输出排版后的文本，每行以 '\n' 结尾；富文本模式下去掉标签。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	lines := make([]string, 0, len(result.Lines))
	for _, line := range result.Lines {
		content := line.Content
		if result.RichText {
			plain, err := markup.Strip(content)
			if err != nil {
				return nil, fmt.Errorf("去除富文本标签失败: %w", err)
			}
			content = plain
		}
		lines = append(lines, content)
	}

	var b strings.Builder
	if !r.frame {
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	}

	width := r.frameWidth(result, lines)
	border := strings.Repeat("─", width)
	b.WriteString("┌" + border + "┐\n")
	for _, l := range lines {
		b.WriteString("│")
		b.WriteString(r.cond.FillRight(l, width))
		b.WriteString("│\n")
	}
	b.WriteString("└" + border + "┘\n")
	return []byte(b.String()), nil
}

// frameWidth 取可用宽度与最宽行中的较大者
func (r *Renderer) frameWidth(result *layout.Result, lines []string) int {
	width := 0
	if result.Width > 0 && !math.IsInf(result.Width, 1) {
		width = int(math.Ceil(result.Width))
	}
	for _, l := range lines {
		if w := r.cond.StringWidth(l); w > width {
			width = w
		}
	}
	return width
}
