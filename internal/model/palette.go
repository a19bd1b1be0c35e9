package model

// Palette はユーザーが選択できる表示色の一覧。
var Palette = []string{
	"#fecaca",
	"#fed7aa",
	"#fef08a",
	"#d9f99d",
	"#bfdbfe",
	"#e9d5ff",
}

// DefaultTaskColor は色未選択ユーザーのタスクに使うニュートラル色。
const DefaultTaskColor = "#e5e7eb"

// IsPaletteColor は指定色がパレットに含まれるかを判定する。
func IsPaletteColor(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// TaskColorFor はタスク作成時に記録する色を返す。
// 色が未選択の場合はDefaultTaskColorにフォールバックする。
func TaskColorFor(color string) string {
	if color == "" {
		return DefaultTaskColor
	}
	return color
}
