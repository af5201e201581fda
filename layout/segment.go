package layout

import (
	"unicode"
	"unicode/utf8"
)

const zeroWidthJoiner = '\u200d'

// UnitKind distinguishes single characters from multi-character runs.
type UnitKind int

const (
	Character UnitKind = iota // 单个码点
	Run                       // 原文中连续的一段，排版时不会被拆开
)

func (k UnitKind) String() string {
	switch k {
	case Character:
		return "character"
	case Run:
		return "run"
	default:
		return "unknown"
	}
}

// Unit 是换行算法的最小不可分割单元。
// 所有单元按顺序拼接后与原文完全一致。
type Unit struct {
	Kind  UnitKind `json:"kind"`
	Text  string   `json:"text"`
	Rune  rune     `json:"-"`     // 仅 Character 有效
	Start int      `json:"start"` // 在原文中的字节偏移
}

// Len returns the number of bytes of the original string the unit consumes.
func (u Unit) Len() int { return len(u.Text) }

// End returns the byte offset just past the unit.
func (u Unit) End() int { return u.Start + len(u.Text) }

// StartsWithNewline reports whether the first code point is a newline under mode.
func (u Unit) StartsWithNewline(mode NewlineMode) bool {
	r, _ := utf8.DecodeRuneInString(u.Text)
	return mode.IsNewline(r)
}

// EndsWithNewline reports whether the last code point is a newline under mode.
func (u Unit) EndsWithNewline(mode NewlineMode) bool {
	r, _ := utf8.DecodeLastRuneInString(u.Text)
	return mode.IsNewline(r)
}

// Segment 将 text 切分为可换行单元。
//
// 单遍扫描，前后各看一个字符。满足以下任一条件时在当前字符之后结束单元：
//   - 当前字符非拉丁类，前一个字符是开括号（开括号总与其后一个字符粘连），
//     且当前字符不是开括号、下一个字符可以出现在行首；
//   - 下一个字符非拉丁类、可以出现在行首，且当前字符不是开括号；
//   - 当前字符是最后一个字符。
//
// 行头禁则字符、组合附加符号以及 ZWJ 前后的字符都不能出现在行首。
// 因此单元边界之后不会是行头禁则字符，之前不会是开括号。
// 连续的拉丁类字符自然形成一个 Run，不会在内部断开。
func Segment(text string) []Unit {
	if text == "" {
		return nil
	}

	units := make([]Unit, 0, utf8.RuneCountInString(text))
	start := 0
	var prev rune
	for i, cur := range text {
		// 非法 UTF-8 字节按单字节处理
		_, size := utf8.DecodeRuneInString(text[i:])
		end := i + size
		var next rune
		if end < len(text) {
			next, _ = utf8.DecodeRuneInString(text[end:])
		}

		last := end == len(text)
		held := holdsNext(cur, next)
		closeUnit := (!IsLatin(cur) && IsBackForbidden(prev) && !IsBackForbidden(cur) && !held) ||
			(!IsLatin(next) && !IsBackForbidden(cur) && !held) ||
			last

		if closeUnit {
			units = append(units, newUnit(text[start:end], start))
			start = end
		}
		prev = cur
	}
	return units
}

// holdsNext reports whether next must stay on the same line as cur.
func holdsNext(cur, next rune) bool {
	return IsFrontForbidden(next) ||
		next == zeroWidthJoiner || cur == zeroWidthJoiner ||
		unicode.In(next, unicode.Mn, unicode.Me)
}

func newUnit(s string, start int) Unit {
	r, size := utf8.DecodeRuneInString(s)
	if size == len(s) {
		return Unit{Kind: Character, Text: s, Rune: r, Start: start}
	}
	return Unit{Kind: Run, Text: s, Start: start}
}
