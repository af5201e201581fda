package layout

import (
	"fmt"
	"math"
	"strings"
)

// Build 对 text 做禁则换行，并按行测量宽度、回填行高，生成可直接渲染的结果。
func Build(text string, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	o := opts.Options
	oracle := NewCachedOracle(opts.Typesetter)

	// 先确认所有字形都可用，再开始换行
	if err := Prepare(oracle, text, o); err != nil {
		return nil, fmt.Errorf("字形预检失败: %w", err)
	}

	breaks, err := Breaks(text, o, oracle)
	if err != nil {
		return nil, err
	}
	formatted, err := ApplyBreaks(text, breaks)
	if err != nil {
		return nil, err
	}

	textHeight, err := opts.Typesetter.TextHeight(o.Style)
	if err != nil {
		return nil, fmt.Errorf("读取字体度量失败: %w", err)
	}
	lineHeight := opts.LineHeight
	if lineHeight <= 0 {
		lineHeight = textHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)

	res := &Result{
		Source:     text,
		Formatted:  formatted,
		Breaks:     breaks,
		Width:      o.Width,
		Style:      o.Style,
		RichText:   o.RichText,
		LineHeight: lineHeight,
	}
	for i, content := range splitLines(formatted, o.Newlines) {
		w, err := MeasureLine(oracle, content, o.Style, o.RichText, o.Newlines)
		if err != nil {
			return nil, fmt.Errorf("测量第 %d 行失败: %w", i+1, err)
		}
		line := TextLine{Content: content, Width: w, Height: textHeight}
		if i > 0 {
			line.GapBefore = leading
		}
		res.Lines = append(res.Lines, line)
		res.Height += line.GapBefore + line.Height
	}
	if opts.Debug.Units {
		res.Debug = &ResultDebug{Units: Segment(text)}
	}
	return res, nil
}

// splitLines 按换行拆分；NewlineAny 下 "\r\n" 视为一个换行。
func splitLines(s string, mode NewlineMode) []string {
	if mode == NewlineAny {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	return strings.Split(s, "\n")
}
