package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Default 是未指定字体时使用的内置字体族。
const Default = "go"

// Variant 选择字体族中的字重与倾斜。
type Variant struct {
	Bold   bool
	Italic bool
}

var families = map[string]map[Variant][]byte{
	"go": {
		{}:                         goregular.TTF,
		{Bold: true}:               gobold.TTF,
		{Italic: true}:             goitalic.TTF,
		{Bold: true, Italic: true}: gobolditalic.TTF,
	},
	"go-mono": {
		{}: gomono.TTF,
	},
	"latin-modern": {
		{}:                         lmroman10regular.TTF,
		{Bold: true}:               lmroman10bold.TTF,
		{Italic: true}:             lmroman10italic.TTF,
		{Bold: true, Italic: true}: lmroman10bolditalic.TTF,
	},
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go" 或直接 "go"。
// 字体族缺少所需变体时退回常规体，第二个返回值报告是否精确命中。
func Load(name string, v Variant) ([]byte, bool, error) {
	name = strings.TrimPrefix(name, "embed:")
	if name == "" {
		name = Default
	}
	family, ok := families[name]
	if !ok {
		return nil, false, fmt.Errorf("读取内置字体 %s 失败: 可用字体为 %s", name, strings.Join(Names(), ", "))
	}
	if data, ok := family[v]; ok {
		return data, true, nil
	}
	return family[Variant{}], false, nil
}

// Names lists the embedded font families.
func Names() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
