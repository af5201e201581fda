package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Breaks 计算 text 的换行位置，返回严格递增的字节偏移。
// 偏移总是落在单元边界上；只有宽度超过整行的纯文本 Run 会在内部按字素簇断开。
func Breaks(text string, opts Options, oracle Oracle) ([]int, error) {
	if text == "" {
		return nil, nil
	}
	if oracle == nil {
		return nil, errors.New("layout: 缺少字宽测量 Oracle")
	}
	f := &fitter{opts: opts, oracle: oracle}
	for _, u := range Segment(text) {
		if err := f.place(u); err != nil {
			return nil, err
		}
	}
	return f.breaks, nil
}

// Format 返回在换行位置插入 '\n' 之后的文本。
func Format(text string, opts Options, oracle Oracle) (string, error) {
	breaks, err := Breaks(text, opts, oracle)
	if err != nil {
		return "", err
	}
	return ApplyBreaks(text, breaks)
}

// ApplyBreaks inserts a newline at every offset. Offsets must be strictly increasing
// rune boundaries within [0, len(text)].
func ApplyBreaks(text string, breaks []int) (string, error) {
	if len(breaks) == 0 {
		return text, nil
	}
	var b strings.Builder
	b.Grow(len(text) + len(breaks))
	prev := 0
	for i, off := range breaks {
		if off < prev || (i > 0 && off == prev) || off > len(text) {
			return "", fmt.Errorf("layout: 换行偏移 %d 无效（前一个 %d，文本长度 %d）", off, prev, len(text))
		}
		if off < len(text) && !utf8.RuneStart(text[off]) {
			return "", fmt.Errorf("layout: 换行偏移 %d 不在字符边界上", off)
		}
		b.WriteString(text[prev:off])
		b.WriteByte('\n')
		prev = off
	}
	b.WriteString(text[prev:])
	return b.String(), nil
}

// fitter 持有单次调用内的行宽累计状态，不跨调用共享。
type fitter struct {
	opts      Options
	oracle    Oracle
	lineWidth float64
	breaks    []int
}

func (f *fitter) overflows(w float64) bool {
	return f.lineWidth != 0 && f.lineWidth+w > f.opts.Width
}

func (f *fitter) breakAt(pos int) {
	f.breaks = append(f.breaks, pos)
	f.lineWidth = 0
}

func (f *fitter) place(u Unit) error {
	mode := f.opts.Newlines
	switch {
	case u.EndsWithNewline(mode):
		// 原文已有换行，不再插入
		f.lineWidth = 0
		return nil
	case u.Kind == Character:
		w, err := f.oracle.MeasureChar(u.Rune, f.opts.Style)
		if err != nil {
			return fmt.Errorf("测量字符 %q（偏移 %d）失败: %w", u.Rune, u.Start, err)
		}
		if f.overflows(w) {
			f.breakAt(u.Start)
		}
		f.lineWidth += w
		return nil
	case f.opts.RichText:
		return f.placeRich(u)
	default:
		return f.placePlain(u)
	}
}

// placeRich 只用去掉标签后的最后一行宽度做判断；超宽的 Run 允许溢出。
func (f *fitter) placeRich(u Unit) error {
	w, err := MeasureRun(f.oracle, u.Text, f.opts.Style, true, f.opts.Newlines)
	if err != nil {
		return fmt.Errorf("测量片段 %q（偏移 %d）失败: %w", u.Text, u.Start, err)
	}
	if u.StartsWithNewline(f.opts.Newlines) {
		f.lineWidth = 0
	} else if f.overflows(w) {
		f.breakAt(u.Start)
	}
	f.lineWidth += w
	return nil
}

func (f *fitter) placePlain(u Unit) error {
	w, err := MeasureRun(f.oracle, u.Text, f.opts.Style, false, f.opts.Newlines)
	if err != nil {
		return fmt.Errorf("测量片段 %q（偏移 %d）失败: %w", u.Text, u.Start, err)
	}
	newline := u.StartsWithNewline(f.opts.Newlines)
	switch {
	case f.lineWidth+w <= f.opts.Width:
		if newline {
			f.lineWidth = 0
		}
		f.lineWidth += w
	case w <= f.opts.Width:
		if !newline {
			f.breaks = append(f.breaks, u.Start)
		}
		f.lineWidth = w
	default:
		return f.placeClusters(u)
	}
	return nil
}

// placeClusters 处理比整行还宽的 Run：放弃禁则，按字素簇逐个装入。
func (f *fitter) placeClusters(u Unit) error {
	pos := u.Start
	rest := u.Text
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if f.hasNewline(cluster) {
			f.lineWidth = 0
			pos += len(cluster)
			continue
		}
		var w float64
		for _, r := range cluster {
			cw, err := f.oracle.MeasureChar(r, f.opts.Style)
			if err != nil {
				return fmt.Errorf("测量字符 %q（偏移 %d）失败: %w", r, pos, err)
			}
			w += cw
		}
		if f.overflows(w) {
			f.breakAt(pos)
		}
		f.lineWidth += w
		pos += len(cluster)
	}
	return nil
}

func (f *fitter) hasNewline(cluster string) bool {
	for _, r := range cluster {
		if f.opts.Newlines.IsNewline(r) {
			return true
		}
	}
	return false
}
