package layout

// 该文件定义换行结果，供排版计算、渲染与调试 JSON 共用。

// Result 保存一次换行排版的输入、换行位置与逐行信息。
type Result struct {
	Source     string       `json:"source"`
	Formatted  string       `json:"formatted"`
	Breaks     []int        `json:"breaks"`
	Width      float64      `json:"width"`
	Style      Style        `json:"style"`
	RichText   bool         `json:"richText"`
	LineHeight float64      `json:"lineHeight"`
	Height     float64      `json:"height"`
	Lines      []TextLine   `json:"lines"`
	Debug      *ResultDebug `json:"debug,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
// 富文本模式下 Content 保留标签，Width 按去掉标签后的文本测量。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ResultDebug holds optional debug info populated only when enabled by BuildOptions.
type ResultDebug struct {
	Units []Unit `json:"units,omitempty"`
}

// MaxLineWidth returns the width of the widest line.
func (r *Result) MaxLineWidth() float64 {
	w := 0.0
	for _, ln := range r.Lines {
		w = max(w, ln.Width)
	}
	return w
}

// MarshalText renders the kind by name in debug JSON.
func (k UnitKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
