package layout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ByLCY/kinsoku/markup"
)

// ErrMissingGlyph is wrapped by oracles when a code point has no glyph for the requested style.
var ErrMissingGlyph = errors.New("glyph not available")

// Style 描述测量字宽所需的字体上下文。对换行核心而言是不透明的值，只原样传给 Oracle。
type Style struct {
	Font   string  `json:"font"`
	Size   float64 `json:"size"` // 单位由 Oracle 约定（canvas 后端为 pt）
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// Oracle 返回单个码点在给定样式下的前进宽度。
// 无法解析的字形必须返回包装了 ErrMissingGlyph 的错误，不得以替代字形代之。
type Oracle interface {
	MeasureChar(r rune, style Style) (float64, error)
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(r rune, style Style) (float64, error)

// MeasureChar implements Oracle.
func (f OracleFunc) MeasureChar(r rune, style Style) (float64, error) { return f(r, style) }

type glyphKey struct {
	r     rune
	style Style
}

// CachedOracle memoizes widths per code point and style. It is safe for concurrent use
// as long as the wrapped oracle is. Errors are not cached.
type CachedOracle struct {
	oracle Oracle

	mu     sync.RWMutex
	widths map[glyphKey]float64
}

var _ Oracle = (*CachedOracle)(nil)

// NewCachedOracle wraps o with a width cache.
func NewCachedOracle(o Oracle) *CachedOracle {
	return &CachedOracle{oracle: o, widths: map[glyphKey]float64{}}
}

// MeasureChar implements Oracle.
func (c *CachedOracle) MeasureChar(r rune, style Style) (float64, error) {
	key := glyphKey{r: r, style: style}
	c.mu.RLock()
	w, ok := c.widths[key]
	c.mu.RUnlock()
	if ok {
		return w, nil
	}

	w, err := c.oracle.MeasureChar(r, style)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.widths[key] = w
	c.mu.Unlock()
	return w, nil
}

// Len returns the number of cached widths.
func (c *CachedOracle) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.widths)
}

// MeasureRun 返回 s 最后一个物理行的宽度；rich 为 true 时先去掉富文本标签。
func MeasureRun(o Oracle, s string, style Style, rich bool, mode NewlineMode) (float64, error) {
	last, _, err := measureLines(o, s, style, rich, mode)
	return last, err
}

// MeasureLine 返回 s 中最宽物理行的宽度。
func MeasureLine(o Oracle, s string, style Style, rich bool, mode NewlineMode) (float64, error) {
	_, widest, err := measureLines(o, s, style, rich, mode)
	return widest, err
}

func measureLines(o Oracle, s string, style Style, rich bool, mode NewlineMode) (last, widest float64, err error) {
	if rich {
		if s, err = markup.Strip(s); err != nil {
			return 0, 0, err
		}
	}
	for _, r := range s {
		if mode.IsNewline(r) {
			widest = max(widest, last)
			last = 0
			continue
		}
		w, err := o.MeasureChar(r, style)
		if err != nil {
			return 0, 0, fmt.Errorf("字符 %q: %w", r, err)
		}
		last += w
	}
	return last, max(widest, last), nil
}

// Prepare 预先测量 text 中出现的每个不同字符，返回遇到的第一个测量错误。
// 富文本模式下标签不参与测量，也不需要字形。
// 搭配 CachedOracle 使用时，后续换行计算不再重复访问底层 Oracle。
func Prepare(o Oracle, text string, opts Options) error {
	if opts.RichText {
		stripped, err := markup.Strip(text)
		if err != nil {
			return err
		}
		text = stripped
	}
	seen := map[rune]struct{}{}
	for _, r := range text {
		if opts.Newlines.IsNewline(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		if _, err := o.MeasureChar(r, opts.Style); err != nil {
			return fmt.Errorf("字符 %q: %w", r, err)
		}
	}
	return nil
}
