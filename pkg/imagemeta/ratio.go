package imagemeta

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// 比較とサイズ提案に使う既定値です。元となる導出は無い経験則の定数なので、
// 呼び出し側で差し替えられるように公開しています。
const (
	// DefaultMismatchTolerance はアスペクト比ずれ判定の許容率です。
	DefaultMismatchTolerance = 0.05
	// SuggestionBaseWidth はサイズ提案時に固定する幅（ピクセル）です。
	SuggestionBaseWidth = 1024
)

var ratioPattern = regexp.MustCompile(`^\d{1,3}:\d{1,3}$`)

// Ratio は "W:H" 形式のアスペクト比です。
type Ratio struct {
	Width  int
	Height int
}

// ParseRatio は "16:9" のような文字列を検証して Ratio を返します。
// 幅・高さはそれぞれ 1〜999 の正の整数でなければなりません。
func ParseRatio(value string) (Ratio, error) {
	candidate := strings.TrimSpace(value)
	if !ratioPattern.MatchString(candidate) {
		return Ratio{}, fmt.Errorf("アスペクト比が不正です。16:9 や 4:3 の形式で指定してください")
	}

	parts := strings.SplitN(candidate, ":", 2)
	width, _ := strconv.Atoi(parts[0])
	height, _ := strconv.Atoi(parts[1])
	if width <= 0 || height <= 0 {
		return Ratio{}, fmt.Errorf("アスペクト比が不正です。幅と高さは正の整数でなければなりません")
	}
	return Ratio{Width: width, Height: height}, nil
}

// String は "W:H" 表記を返します。
func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Width, r.Height)
}

// Mismatch は寸法が要求比から許容率を超えてずれているかを判定します。
// 浮動小数点の除算誤差を避けるため、交差乗算で比較します。
func (r Ratio) Mismatch(dims Dimensions, tolerance float64) bool {
	diff := math.Abs(float64(dims.Width*r.Height - dims.Height*r.Width))
	allowed := float64(r.Width*dims.Height) * tolerance
	return diff > allowed
}

// SimplifyRatio は最大公約数で約分した "w:h" 表記を返します。診断メッセージ専用です。
func SimplifyRatio(width, height int) string {
	factor := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/factor, height/factor)
}

// SuggestSize は要求比に合う明示サイズの候補を返します。
// 幅を SuggestionBaseWidth に固定し、高さは丸めたうえで最小2の偶数に揃えます。
// あくまで呼び出し側へのヒントであり、強制される制約ではありません。
func SuggestSize(r Ratio) string {
	height := int(math.Round(float64(SuggestionBaseWidth) * float64(r.Height) / float64(r.Width)))
	if height < 2 {
		height = 2
	}
	if height%2 != 0 {
		height++
	}
	return fmt.Sprintf("%dx%d", SuggestionBaseWidth, height)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
