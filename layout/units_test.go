package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		back := Length{Value: Length{Value: pt, Unit: UnitPT}.ToMM(), Unit: UnitMM}.ToPT()
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt back=%g diff=%g", pt, back, diff)
		}
	}
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want Length
		mm   float64
	}{
		{"60mm", Length{60, UnitMM}, 60},
		{"2.54cm", Length{2.54, UnitCM}, 25.4},
		{"1in", Length{1, UnitIN}, 25.4},
		{" 12PT ", Length{12, UnitPT}, 12 * PtToMm},
		{"40", Length{40, UnitNone}, 40},
	}
	for _, tc := range cases {
		got, err := ParseLength(tc.in)
		if err != nil {
			t.Fatalf("ParseLength(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLength(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if diff := math.Abs(got.ToMM() - tc.mm); diff > 1e-9 {
			t.Fatalf("%q 转 mm 期望 %g，实际 %g", tc.in, tc.mm, got.ToMM())
		}
	}
	for _, bad := range []string{"", "mm", "abc", "12px"} {
		if _, err := ParseLength(bad); err == nil {
			t.Fatalf("ParseLength(%q) expected error", bad)
		}
	}
}

// TestLineHeightResolve 验证行高解析：倍数与绝对值两种语义在目标单位（mm）下的解析结果。
func TestLineHeightResolve(t *testing.T) {
	fontSize := Length{Value: 12, Unit: UnitPT}
	cases := []struct {
		in   string
		want float64
	}{
		{"1.2", 12 * 1.2 * PtToMm},
		{"1.5x", 12 * 1.5 * PtToMm},
		{"18pt", 18 * PtToMm},
		{"6mm", 6},
	}
	for _, tc := range cases {
		spec, err := ParseLineHeight(tc.in)
		if err != nil {
			t.Fatalf("ParseLineHeight(%q) error: %v", tc.in, err)
		}
		if diff := math.Abs(spec.Resolve(fontSize, UnitMM) - tc.want); diff > 1e-9 {
			t.Fatalf("%q 解析为 mm 错误: got=%g want=%g", tc.in, spec.Resolve(fontSize, UnitMM), tc.want)
		}
	}
}

func TestLengthString(t *testing.T) {
	if s := (Length{Value: 60, Unit: UnitMM}).String(); s != "60mm" {
		t.Fatalf("unexpected string %q", s)
	}
	if s := (Length{Value: 1.5}).String(); s != "1.5" {
		t.Fatalf("unexpected string %q", s)
	}
}

// 长度单位与断行单元共存于同一个包中。
func TestParseLengthFromSegmentUnit(t *testing.T) {
	units := Segment("60mm")
	if len(units) != 1 || units[0].Kind != Run {
		t.Fatalf("expected a single run, got %+v", units)
	}
	l, err := ParseLength(units[0].Text)
	if err != nil {
		t.Fatalf("ParseLength error: %v", err)
	}
	var want LengthUnit = UnitMM
	if l.Unit != want || l.String() != "60mm" {
		t.Fatalf("unexpected length %+v (%s)", l, l)
	}
}
