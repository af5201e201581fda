package layout

// NewlineMode 决定哪些控制字符被视为文本中已有的换行。
type NewlineMode int

const (
	NewlineLF  NewlineMode = iota // 仅 '\n'
	NewlineAny                    // '\n' 与 '\r'
)

// IsNewline reports whether r resets the line under this mode.
func (m NewlineMode) IsNewline(r rune) bool {
	if r == '\n' {
		return true
	}
	return m == NewlineAny && r == '\r'
}

// Options 描述一次换行计算的参数。Width 与 Oracle 返回的宽度使用同一单位。
type Options struct {
	Width    float64
	Style    Style
	RichText bool // 文本中的富文本标签只参与输出，不参与宽度测量
	Newlines NewlineMode
}

// BuildOptions 配置 Build 阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	Options    Options
	// LineHeight 为绝对行高（与宽度同单位）；<=0 时使用 Typesetter 给出的文字高度。
	LineHeight float64
	Debug      DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	Units bool // 在结果中保留切分单元，便于调试 JSON 输出
}

// Typesetter 负责提供字宽与行高度量，由渲染后端实现。
type Typesetter interface {
	Oracle
	TextHeight(style Style) (float64, error)
}
