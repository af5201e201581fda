package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by the CLI for widths, font sizes and line heights.

// LengthUnit represents the original unit of a length value.
type LengthUnit int

const (
	UnitNone LengthUnit = iota // unit-less numbers: factors, terminal cells
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u LengthUnit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64    `json:"value"`
	Unit  LengthUnit `json:"unit"`
}

// To converts this length to target unit. Unit-less lengths are returned as-is.
func (l Length) To(target LengthUnit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		mm = l.Value * PtToMm
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64) + l.Unit.String()
}

// ParseLength parses "60mm", "12pt", "2.5cm", "1in" or a bare number.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u LengthUnit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: a factor (1.4, 1.4x) or an absolute length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight parses a factor ("1.4", "1.4x") or an absolute length ("18pt").
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "x")
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	if l.Unit == UnitNone {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, nil
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// Resolve computes the absolute line height in target unit using the given fontSize.
func (s LineHeightSpec) Resolve(fontSize Length, target LengthUnit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.To(target)
	default:
		return fontSize.To(target) * 1.4
	}
}
