package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/kinsoku/fonts"
	"github.com/ByLCY/kinsoku/layout"
	"github.com/ByLCY/kinsoku/markup"
	"github.com/ByLCY/kinsoku/renderer"
)

const (
	defaultMargin   = 10.0 // mm
	guideLineWidth  = 0.2
	defaultFontSize = 12.0 // pt
)

var defaultTextColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}

// Renderer measures glyphs and draws layout results via github.com/tdewolff/canvas.
// 宽度单位为 mm，Style.Size 为 pt。
type Renderer struct {
	baseDir string
	margin  float64
	meta    Meta

	// injected resources
	fontBlobs map[string][]byte // by unique name
	fontErrs  map[string]error  // 读取失败的注入字体，首次使用时报告

	fontMu   sync.Mutex
	families map[familyKey]*fontFamilyEntry
	faces    map[faceKey]*canvas.FontFace

	// canvas 的文本整形不保证并发安全，测量串行化
	measureMu sync.Mutex
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type familyKey struct {
	font   string
	bold   bool
	italic bool
}

type faceKey struct {
	style layout.Style
	color color.RGBA
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Margin  float64             // page margin in mm, <=0 uses the default
	Meta    Meta
}

// Meta 保存 PDF 元信息。
type Meta struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		margin:    opts.Margin,
		meta:      opts.Meta,
		fontBlobs: map[string][]byte{},
		fontErrs:  map[string]error{},
		families:  map[familyKey]*fontFamilyEntry{},
		faces:     map[faceKey]*canvas.FontFace{},
	}
	if r.margin <= 0 {
		r.margin = defaultMargin
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				r.fontErrs[name] = err
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// MeasureChar implements layout.Oracle：返回字符的前进宽度（mm）。
// 字体中没有该字符时返回包装了 layout.ErrMissingGlyph 的错误；控制字符宽度为 0。
func (r *Renderer) MeasureChar(ch rune, style layout.Style) (float64, error) {
	if unicode.IsControl(ch) {
		return 0, nil
	}
	face, err := r.fontFace(style, defaultTextColor)
	if err != nil {
		return 0, err
	}
	r.measureMu.Lock()
	defer r.measureMu.Unlock()
	if face.Font.SFNT.GlyphIndex(ch) == 0 {
		return 0, fmt.Errorf("字体 %s 缺少字符 %q: %w", fontLabel(style), ch, layout.ErrMissingGlyph)
	}
	return face.TextWidth(string(ch)), nil
}

// TextHeight implements layout.Typesetter：单行文字高度（mm）。
func (r *Renderer) TextHeight(style layout.Style) (float64, error) {
	face, err := r.fontFace(style, defaultTextColor)
	if err != nil {
		return 0, err
	}
	return face.Metrics().LineHeight, nil
}

// Layout 使用该渲染器的字体度量对 text 做禁则换行。
// opts.Width 为 mm；lineHeight 为 mm，<=0 时使用字体自身行高。
func (r *Renderer) Layout(text string, opts layout.Options, lineHeight float64) (*layout.Result, error) {
	return layout.Build(text, layout.BuildOptions{
		Typesetter: r,
		Options:    opts,
		LineHeight: lineHeight,
	})
}

// Render renders the result into a single-page PDF sized to the text block.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Lines) == 0 {
		return nil, fmt.Errorf("缺少可渲染的行")
	}

	blockWidth := math.Max(result.Width, result.MaxLineWidth())
	pageW := blockWidth + 2*r.margin
	pageH := result.Height + 2*r.margin

	var buf bytes.Buffer
	writer := pdf.New(&buf, pageW, pageH, nil)
	writer.SetInfo(r.meta.Title, r.meta.Subject, "kinsoku", r.meta.Author, r.meta.Creator)

	c := canvas.New(pageW, pageH)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

	r.drawGuide(ctx, result, pageH)
	if err := r.drawLines(ctx, result); err != nil {
		return nil, err
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawGuide 在可用宽度的右边界画一条参考线
func (r *Renderer) drawGuide(ctx *canvas.Context, result *layout.Result, pageH float64) {
	if result.Width <= 0 {
		return
	}
	ctx.SetStrokeColor(canvas.Hex("#d0d0d0"))
	ctx.SetStrokeWidth(guideLineWidth)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(0, pageH-2*r.margin)
	ctx.DrawPath(r.margin+result.Width, r.margin, p)
}

func (r *Renderer) drawLines(ctx *canvas.Context, result *layout.Result) error {
	cursorY := r.margin
	for _, line := range result.Lines {
		cursorY += line.GapBefore
		spans, err := lineSpans(line.Content, result.RichText)
		if err != nil {
			return err
		}
		x := r.margin
		for _, sp := range spans {
			face, err := r.fontFace(result.Style, sp.color)
			if err != nil {
				return err
			}
			// 基线位置：以行顶部加上字体上升部
			baseline := cursorY + face.Metrics().Ascent
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, sp.text, canvas.Left))
			r.measureMu.Lock()
			x += face.TextWidth(sp.text)
			r.measureMu.Unlock()
		}
		cursorY += line.Height
	}
	return nil
}

type span struct {
	text  string
	color color.RGBA
}

// lineSpans 把一行拆成同色片段；富文本模式下只解释 <color>，其余标签不影响绘制。
func lineSpans(content string, rich bool) ([]span, error) {
	content = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, content)
	if !rich {
		return []span{{text: content, color: defaultTextColor}}, nil
	}
	text, err := markup.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("解析富文本标签失败: %w", err)
	}
	stack := []color.RGBA{defaultTextColor}
	var spans []span
	for _, seg := range text.Segments {
		switch {
		case seg.Tag != nil && seg.Tag.Name == "color":
			if seg.Tag.Closing {
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
				continue
			}
			stack = append(stack, parseColor(seg.Tag.Value))
		case seg.Text != nil:
			spans = append(spans, span{text: *seg.Text, color: stack[len(stack)-1]})
		}
	}
	return spans, nil
}

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
	"grey":  {128, 128, 128, 255},
}

func parseColor(value string) color.RGBA {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(value), `"'`))
	if c, ok := namedColors[v]; ok {
		return c
	}
	if strings.HasPrefix(v, "#") {
		return canvas.Hex(v)
	}
	return defaultTextColor
}

func (r *Renderer) fontFace(style layout.Style, col color.RGBA) (*canvas.FontFace, error) {
	key := faceKey{style: style, color: col}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	entry, err := r.ensureFontFamily(style)
	if err != nil {
		return nil, err
	}
	size := style.Size
	if size <= 0 {
		size = defaultFontSize
	}
	face := entry.family.Face(size, col, entry.style, canvas.FontNormal)
	r.faces[key] = face
	return face, nil
}

// ensureFontFamily 需在持有 fontMu 时调用。
func (r *Renderer) ensureFontFamily(style layout.Style) (*fontFamilyEntry, error) {
	key := familyKey{font: style.Font, bold: style.Bold, italic: style.Italic}
	if entry, ok := r.families[key]; ok {
		return entry, nil
	}

	cstyle := canvasStyle(style)
	family := canvas.NewFontFamily(fontLabel(style))
	data, err := r.loadFontBytes(style)
	if err != nil {
		return nil, err
	}
	if err := family.LoadFont(data, 0, cstyle); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", fontLabel(style), err)
	}
	entry := &fontFamilyEntry{family: family, style: cstyle}
	r.families[key] = entry
	return entry, nil
}

// loadFontBytes 解析 Style.Font：空值或 embed: 前缀为内置字体，built-in: 为注入字体，其余按文件路径处理。
func (r *Renderer) loadFontBytes(style layout.Style) ([]byte, error) {
	src := style.Font
	if src == "" || strings.HasPrefix(src, "embed:") || isEmbeddedName(src) {
		data, _, err := fonts.Load(src, fonts.Variant{Bold: style.Bold, Italic: style.Italic})
		return data, err
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		if err, ok := r.fontErrs[name]; ok {
			return nil, fmt.Errorf("读取内置字体 built-in:%s 失败: %w", name, err)
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

func isEmbeddedName(name string) bool {
	for _, n := range fonts.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func canvasStyle(style layout.Style) canvas.FontStyle {
	result := canvas.FontRegular
	if style.Bold {
		result = canvas.FontBold
	}
	if style.Italic {
		result |= canvas.FontItalic
	}
	return result
}

func fontLabel(style layout.Style) string {
	if style.Font == "" {
		return fonts.Default
	}
	return style.Font
}
