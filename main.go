package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/kinsoku/layout"
	"github.com/ByLCY/kinsoku/renderer"
	canvasrenderer "github.com/ByLCY/kinsoku/renderer/canvas"
	textrenderer "github.com/ByLCY/kinsoku/renderer/text"
)

// config 汇总命令行参数。
type config struct {
	input      string
	output     string
	format     string
	width      string
	font       string
	size       string
	lineHeight string
	debugPath  string
	bold       bool
	italic     bool
	rich       bool
	cr         bool
	offsets    bool
	cells      bool
	eastAsian  bool
	frame      bool
	nfc        bool
	debugUnits bool
}

func main() {
	var cfg config
	flag.StringVarP(&cfg.input, "in", "i", "", "输入文本路径（默认读取参数或标准输入）")
	flag.StringVarP(&cfg.output, "out", "o", "", "输出路径（text 默认标准输出，pdf 默认 output/kinsoku.pdf）")
	flag.StringVar(&cfg.format, "format", "text", "输出格式：text 或 pdf")
	flag.StringVarP(&cfg.width, "width", "w", "40", "可用行宽：text 以格为单位，pdf 默认 mm，可写 60mm/2in/120pt")
	flag.StringVarP(&cfg.font, "font", "f", "", "字体：内置名称（go、go-mono、latin-modern）或字体文件路径")
	flag.StringVarP(&cfg.size, "size", "s", "12pt", "字号")
	flag.StringVar(&cfg.lineHeight, "line-height", "1.4", "行高：倍数（1.4、1.4x）或长度（18pt）")
	flag.BoolVar(&cfg.bold, "bold", false, "粗体")
	flag.BoolVar(&cfg.italic, "italic", false, "斜体")
	flag.BoolVarP(&cfg.rich, "rich", "r", false, "富文本模式：<color> <size> <b> <i> 标签不计宽度")
	flag.BoolVar(&cfg.cr, "cr", false, "把 '\\r' 也视为换行")
	flag.BoolVar(&cfg.offsets, "offsets", false, "只输出换行位置（字节偏移）")
	flag.BoolVar(&cfg.cells, "cells", false, "按终端格测量（等同 --format text）")
	flag.BoolVar(&cfg.eastAsian, "east-asian", false, "East Asian Ambiguous 字符按 2 格计算")
	flag.BoolVar(&cfg.frame, "frame", false, "text 输出时画出行宽边框")
	flag.BoolVar(&cfg.nfc, "nfc", false, "排版前做 NFC 规范化")
	flag.StringVar(&cfg.debugPath, "debug", "", "排版调试 JSON 输出路径")
	flag.BoolVar(&cfg.debugUnits, "debug-units", false, "在调试 JSON 中输出断行单元")
	flag.Parse()

	text, err := readInput(cfg.input, flag.Args(), os.Stdin)
	if err != nil {
		log.Fatalf("读取输入失败: %v", err)
	}
	if err := run(cfg, text, os.Stdout); err != nil {
		log.Fatalf("排版失败: %v", err)
	}
	if cfg.format == "pdf" && !cfg.cells && !cfg.offsets {
		fmt.Printf("已生成 PDF：%s\n", pdfOutput(cfg))
	}
}

// readInput 依次尝试 --in、位置参数、标准输入。
func readInput(path string, args []string, stdin io.Reader) (string, error) {
	switch {
	case path != "" && path != "-":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("无法打开文件 %s: %w", path, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// run 串联参数解析、排版与渲染。
func run(cfg config, text string, stdout io.Writer) error {
	if cfg.nfc {
		text = norm.NFC.String(text)
	}
	pdfMode := false
	switch cfg.format {
	case "text":
	case "pdf":
		pdfMode = !cfg.cells
	default:
		return fmt.Errorf("未知输出格式 %q", cfg.format)
	}

	opts, lineHeight, err := buildOptions(cfg, pdfMode)
	if err != nil {
		return err
	}

	var r interface {
		renderer.Renderer
		layout.Typesetter
	}
	if pdfMode {
		baseDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("获取工作目录失败: %w", err)
		}
		r = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir: baseDir,
			Meta:    canvasrenderer.Meta{Title: "kinsoku", Creator: "kinsoku"},
		})
	} else {
		r = textrenderer.NewRenderer(textrenderer.Options{EastAsian: cfg.eastAsian, Frame: cfg.frame})
	}

	if cfg.offsets {
		breaks, err := layout.Breaks(text, opts, layout.NewCachedOracle(r))
		if err != nil {
			return fmt.Errorf("计算换行位置失败: %w", err)
		}
		parts := make([]string, len(breaks))
		for i, b := range breaks {
			parts[i] = strconv.Itoa(b)
		}
		_, err = fmt.Fprintln(stdout, strings.Join(parts, ","))
		return err
	}

	result, err := layout.Build(text, layout.BuildOptions{
		Typesetter: r,
		Options:    opts,
		LineHeight: lineHeight,
		Debug:      layout.DebugOptions{Units: cfg.debugUnits},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	if cfg.debugPath != "" {
		if err := layout.WriteDebugJSON(result, cfg.debugPath); err != nil {
			return err
		}
	}

	data, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if !pdfMode && cfg.output == "" {
		_, err = stdout.Write(data)
		return err
	}
	out := cfg.output
	if pdfMode {
		out = pdfOutput(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func pdfOutput(cfg config) string {
	if cfg.output != "" {
		return cfg.output
	}
	return filepath.Join("output", "kinsoku.pdf")
}

// buildOptions 把字符串参数换算成排版选项；pdf 模式下宽度与行高为 mm，text 模式下为格。
func buildOptions(cfg config, pdfMode bool) (layout.Options, float64, error) {
	width, err := layout.ParseLength(cfg.width)
	if err != nil {
		return layout.Options{}, 0, fmt.Errorf("解析 --width 失败: %w", err)
	}
	size, err := layout.ParseLength(cfg.size)
	if err != nil {
		return layout.Options{}, 0, fmt.Errorf("解析 --size 失败: %w", err)
	}
	if size.Unit == layout.UnitNone {
		size.Unit = layout.UnitPT
	}

	opts := layout.Options{
		Style: layout.Style{
			Font:   cfg.font,
			Size:   size.ToPT(),
			Bold:   cfg.bold,
			Italic: cfg.italic,
		},
		RichText: cfg.rich,
	}
	if cfg.cr {
		opts.Newlines = layout.NewlineAny
	}

	if !pdfMode {
		if width.Unit != layout.UnitNone {
			return layout.Options{}, 0, fmt.Errorf("text 模式下 --width 以格为单位，不能带单位 %q", cfg.width)
		}
		opts.Width = width.Value
		return opts, 0, nil
	}

	opts.Width = width.ToMM()
	lh, err := layout.ParseLineHeight(cfg.lineHeight)
	if err != nil {
		return layout.Options{}, 0, fmt.Errorf("解析 --line-height 失败: %w", err)
	}
	return opts, lh.Resolve(size, layout.UnitMM), nil
}
