package layout

// 禁則処理用の文字クラス表。进程内只读，包初始化时构建一次。

const (
	// 行头禁则：闭括号、小写假名、连字符类、分隔标点、中点类、句号类。
	frontForbiddenChars = ",)]｝、。）〕〉》」』】〙〗〟’”｠»" +
		"ァィゥェォッャュョヮヵヶっぁぃぅぇぉっゃゅょゎ" +
		"‐゠–〜ー" +
		"?!！？‼⁇⁈⁉" +
		"・:;" +
		"。."

	// 行尾禁则：开括号。
	backForbiddenChars = "(（[｛〔〈《「『【〘〖〝‘“｟«"

	// 拉丁类字符连续出现时合并为一个不可拆分的单元。'#' 用于保持 <color=#rrggbb> 完整。
	latinChars = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789" +
		"<>=/().,#"
)

var (
	frontForbidden = runeSet(frontForbiddenChars)
	backForbidden  = runeSet(backForbiddenChars)
	latin          = runeSet(latinChars)
)

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

// IsLatin reports whether r belongs to the Latin run class.
func IsLatin(r rune) bool {
	_, ok := latin[r]
	return ok
}

// IsFrontForbidden reports whether r must not start a line.
func IsFrontForbidden(r rune) bool {
	_, ok := frontForbidden[r]
	return ok
}

// IsBackForbidden reports whether r must not end a line.
func IsBackForbidden(r rune) bool {
	_, ok := backForbidden[r]
	return ok
}
