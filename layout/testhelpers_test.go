package layout

import (
	"fmt"
	"sync/atomic"
	"unicode"
)

// missingGlyph 在测试 Oracle 中没有字形。
const missingGlyph = '☒'

// fixedOracle 是测试用的等宽 Oracle：ASCII 宽 1，其余宽 2，控制字符宽 0。
type fixedOracle struct {
	calls atomic.Int64
}

func (o *fixedOracle) MeasureChar(r rune, style Style) (float64, error) {
	o.calls.Add(1)
	switch {
	case r == missingGlyph:
		return 0, fmt.Errorf("fixed oracle %q: %w", r, ErrMissingGlyph)
	case unicode.IsControl(r):
		return 0, nil
	case r < 0x80:
		return 1, nil
	default:
		return 2, nil
	}
}

func unitTexts(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const sampleJapanese = "吾輩は猫である。名前はまだ無い。どこで生れたかとんと見当がつかぬ。" +
	"「何でも薄暗いじめじめした所で」ニャーニャー泣いていた事だけは記憶している。" +
	"（これは『テスト』です）ちょっと待って！本当？「「二重」」の括弧も。"
