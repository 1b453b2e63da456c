package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidPathChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	underscoreRuns   = regexp.MustCompile(`_+`)
)

// SanitizeComponent はユーザー入力をパスの1要素として安全な形に整えます。
// 不正文字と空白の連続を '_' へ置き換え、'_' の連続を潰し、先頭末尾の '.' と '_'
// を取り除きます。結果が空になった場合は fallback を返します。
func SanitizeComponent(name, fallback string) string {
	cleaned := invalidPathChars.ReplaceAllString(strings.TrimSpace(name), "_")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, "_")
	cleaned = underscoreRuns.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// UniquePath は既存ファイルを上書きしないパスを返します。
// 衝突した場合は name_2.png、name_3.png … と存在確認しながら連番を進めます。
func UniquePath(path string) string {
	if !fileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	dir := filepath.Dir(path)
	for index := 2; ; index++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, index, ext))
		if !fileExists(candidate) {
			return candidate
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
