package layout

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func format(t *testing.T, text string, opts Options) string {
	t.Helper()
	out, err := Format(text, opts, &fixedOracle{})
	if err != nil {
		t.Fatalf("Format(%q) error: %v", text, err)
	}
	return out
}

func breaks(t *testing.T, text string, opts Options) []int {
	t.Helper()
	got, err := Breaks(text, opts, &fixedOracle{})
	if err != nil {
		t.Fatalf("Breaks(%q) error: %v", text, err)
	}
	return got
}

func TestFormatLatinRunFits(t *testing.T) {
	if got := format(t, "ABC", Options{Width: 3}); got != "ABC" {
		t.Fatalf("expected ABC unchanged, got %q", got)
	}
	if got := breaks(t, "ABC", Options{Width: 10}); got != nil {
		t.Fatalf("expected no breaks, got %v", got)
	}
}

// 开括号与其后的字符不可分开，换行放在括号之前。
func TestFormatBreaksBeforeOpeningBracket(t *testing.T) {
	got := breaks(t, "a（b）c", Options{Width: 6})
	if !equalInts(got, []int{1}) {
		t.Fatalf("plain: expected break before （ at 1, got %v", got)
	}
	got = breaks(t, "a（b）c", Options{Width: 4, RichText: true})
	if !equalInts(got, []int{1}) {
		t.Fatalf("rich: expected break before （ at 1, got %v", got)
	}
}

func TestFormatRespectsExistingNewlines(t *testing.T) {
	if got := format(t, "あいう\nえお", Options{Width: 4}); got != "あい\nう\nえお" {
		t.Fatalf("unexpected output %q", got)
	}
	// 行宽恰好用尽后紧跟换行时不会再插入一次
	if got := breaks(t, "あい\nう", Options{Width: 4}); got != nil {
		t.Fatalf("expected no inserted break next to existing newline, got %v", got)
	}
	if got := format(t, "abc\ndef", Options{Width: 3}); got != "abc\ndef" {
		t.Fatalf("run starting with newline must not get a second break, got %q", got)
	}
	if got := format(t, "abc\ndef", Options{Width: 3, RichText: true}); got != "abc\ndef" {
		t.Fatalf("rich: run starting with newline must not get a second break, got %q", got)
	}
}

// 比整行还宽的纯文本 Run 放弃禁则，逐字断开。
func TestFormatOversizeRunFallsBackToCharacters(t *testing.T) {
	if got := format(t, "ABCDEFGH", Options{Width: 3}); got != "ABC\nDEF\nGH" {
		t.Fatalf("unexpected latin fallback %q", got)
	}
	if got := breaks(t, "ーーーー", Options{Width: 3}); !equalInts(got, []int{3, 6, 9}) {
		t.Fatalf("unexpected dash fallback breaks %v", got)
	}
	if got := format(t, "ちょっと待って。", Options{Width: 4}); got != "ちょ\nっと\n待っ\nて。" {
		t.Fatalf("unexpected kana fallback %q", got)
	}
	// 富文本模式不拆 Run，允许溢出
	if got := format(t, "ちょっと待って。", Options{Width: 4, RichText: true}); got != "ちょっ\nと\n待っ\nて。" {
		t.Fatalf("unexpected rich output %q", got)
	}
}

func TestFormatOversizeRunResetsOnEmbeddedNewline(t *testing.T) {
	// "\nABCDE" 是一个以换行开头的 Run，宽度 5 超过 3
	got := breaks(t, "あ\nABCDE", Options{Width: 3})
	want := []int{len("あ\nABC")}
	if !equalInts(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFormatKeepsCombiningMarksTogether(t *testing.T) {
	// ッ + 结合浊点 U+3099 是一个字素簇，整段都是行头禁则字符，构成一个超宽 Run
	text := "ーーッ\u3099ーー"
	got := breaks(t, text, Options{Width: 3})
	if want := []int{3, 6, 12, 15}; !equalInts(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// 富文本模式只按去掉标签后的宽度判断，标签原样保留。
func TestFormatRichTextIgnoresTagWidth(t *testing.T) {
	text := "あい <b>foo</b>"
	if got := format(t, text, Options{Width: 8, RichText: true}); got != text {
		t.Fatalf("rich text should fit, got %q", got)
	}
	if got := format(t, text, Options{Width: 7, RichText: true}); got != "あい\n <b>foo</b>" {
		t.Fatalf("unexpected rich output %q", got)
	}
	plain := format(t, text, Options{Width: 8})
	if plain == text {
		t.Fatalf("plain mode counts tag width and must break, got %q", plain)
	}
	if got := format(t, "<b>foo</b>", Options{Width: 2, RichText: true}); got != "<b>foo</b>" {
		t.Fatalf("single rich run must stay intact, got %q", got)
	}
}

func TestFormatCarriageReturnMode(t *testing.T) {
	text := "あい\rう"
	if got := format(t, text, Options{Width: 4}); got != "あい\r\nう" {
		t.Fatalf("LF mode should treat \\r as a zero-width character, got %q", got)
	}
	if got := format(t, text, Options{Width: 4, Newlines: NewlineAny}); got != text {
		t.Fatalf("Any mode should treat \\r as a line break, got %q", got)
	}
}

func TestFormatEmptyInput(t *testing.T) {
	b, err := Breaks("", Options{Width: 10}, nil)
	if err != nil || b != nil {
		t.Fatalf("expected nil breaks and nil error, got %v %v", b, err)
	}
	if got := format(t, "", Options{Width: 10}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestBreaksRequiresOracle(t *testing.T) {
	if _, err := Breaks("あ", Options{Width: 10}, nil); err == nil {
		t.Fatalf("expected error without oracle")
	}
}

func TestBreaksNonPositiveWidthTerminates(t *testing.T) {
	for _, w := range []float64{0, -5} {
		if got := breaks(t, "あいう", Options{Width: w}); !equalInts(got, []int{3, 6}) {
			t.Fatalf("width %g: expected one character per line, got %v", w, got)
		}
		if got := breaks(t, "ABC", Options{Width: w}); !equalInts(got, []int{1, 2}) {
			t.Fatalf("width %g: expected latin fallback per character, got %v", w, got)
		}
		if got := breaks(t, "ABC", Options{Width: w, RichText: true}); got != nil {
			t.Fatalf("width %g: rich run must overflow alone, got %v", w, got)
		}
	}
}

func TestBreaksMissingGlyph(t *testing.T) {
	for _, rich := range []bool{false, true} {
		_, err := Breaks("あい"+string(missingGlyph)+"AB", Options{Width: 10, RichText: rich}, &fixedOracle{})
		if !errors.Is(err, ErrMissingGlyph) {
			t.Fatalf("rich=%v: expected ErrMissingGlyph, got %v", rich, err)
		}
	}
}

func TestBreaksAreStrictlyIncreasing(t *testing.T) {
	inputs := []string{
		sampleJapanese,
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		"あ\nABCDEFG\n\n「\nい」\r\nう",
		"<color=red>赤い</color>とても長い<b>boldboldbold</b>テキスト",
	}
	for _, in := range inputs {
		for w := -1.0; w <= 20; w++ {
			for _, rich := range []bool{false, true} {
				got := breaks(t, in, Options{Width: w, RichText: rich})
				prev := 0
				for i, off := range got {
					if off <= prev || off >= len(in) {
						t.Fatalf("%q w=%g rich=%v: offset %d invalid in %v", in, w, rich, off, got)
					}
					if !utf8.RuneStart(in[off]) {
						t.Fatalf("%q w=%g: offset %d is not a rune boundary", in, w, off)
					}
					if in[off] == '\n' || in[off-1] == '\n' {
						t.Fatalf("%q w=%g: break %d (#%d) adjacent to existing newline", in, w, off, i)
					}
					prev = off
				}
			}
		}
	}
}

func TestFormatPreservesText(t *testing.T) {
	for w := 1.0; w <= 30; w++ {
		text := sampleJapanese + "\n改行の後\nも続く"
		got, err := Format(text, Options{Width: w}, &fixedOracle{})
		if err != nil {
			t.Fatalf("Format error: %v", err)
		}
		b := breaks(t, text, Options{Width: w})
		if strings.Count(got, "\n") != strings.Count(text, "\n")+len(b) {
			t.Fatalf("w=%g: newline count mismatch", w)
		}
		if strings.ReplaceAll(got, "\n", "") != strings.ReplaceAll(text, "\n", "") {
			t.Fatalf("w=%g: content changed", w)
		}
	}
}

// 行头不出现行头禁则字符，行尾不出现开括号。
func TestFormatKinsokuCompliance(t *testing.T) {
	// sampleJapanese 中最宽的单元宽度为 6，从 6 起纯文本模式不会触发逐字回退
	for w := 6.0; w <= 40; w++ {
		for _, rich := range []bool{false, true} {
			out := format(t, sampleJapanese, Options{Width: w, RichText: rich})
			lines := strings.Split(out, "\n")
			for i, line := range lines {
				if line == "" {
					t.Fatalf("w=%g rich=%v: empty line %d", w, rich, i)
				}
				runes := []rune(line)
				if i > 0 && IsFrontForbidden(runes[0]) {
					t.Fatalf("w=%g rich=%v: line %d %q starts with %q", w, rich, i, line, runes[0])
				}
				if i < len(lines)-1 && IsBackForbidden(runes[len(runes)-1]) {
					t.Fatalf("w=%g rich=%v: line %d %q ends with %q", w, rich, i, line, runes[len(runes)-1])
				}
			}
		}
	}
}

// 富文本模式下每行宽度不超过限制，除非该行只有一个本身就超宽的单元。
func TestFormatRichWidthContainment(t *testing.T) {
	o := &fixedOracle{}
	units := map[string]bool{}
	for _, u := range Segment(sampleJapanese) {
		units[u.Text] = true
	}
	for w := 1.0; w <= 40; w++ {
		out := format(t, sampleJapanese, Options{Width: w, RichText: true})
		for _, line := range strings.Split(out, "\n") {
			lw, err := MeasureLine(o, line, Style{}, true, NewlineLF)
			if err != nil {
				t.Fatalf("measure error: %v", err)
			}
			if lw > w && !units[line] {
				t.Fatalf("w=%g: line %q width %g overflows and is not a single unit", w, line, lw)
			}
		}
	}
}

func TestApplyBreaks(t *testing.T) {
	got, err := ApplyBreaks("あいう", []int{3, 6})
	if err != nil || got != "あ\nい\nう" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
	bad := [][]int{{6, 3}, {3, 3}, {10}, {-1}, {1}}
	for _, b := range bad {
		if _, err := ApplyBreaks("あいう", b); err == nil {
			t.Fatalf("expected error for offsets %v", b)
		}
	}
	if got, err := ApplyBreaks("abc", nil); err != nil || got != "abc" {
		t.Fatalf("nil breaks should be identity, got %q %v", got, err)
	}
}
