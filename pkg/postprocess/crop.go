// Package postprocess は、生成済み画像を要求アスペクト比へ揃えるための
// センタークロップを提供します。寸法の計測だけで済む場合は imagemeta を
// 使ってください。ここはピクセルアクセスが必要な完全デコードの経路です。
package postprocess

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // プロバイダがWebPを返すケースに備えたデコーダ登録

	"github.com/shouni/go-storyboard-kit/pkg/imagemeta"
)

// CropImpossibleError は、元画像が要求比の1単位分より小さく
// クロップが成立しない場合のエラーです。バッチ全体を止める種類のものではなく、
// 呼び出し側は元バイト列のまま処理を続行できます。
type CropImpossibleError struct {
	Source imagemeta.Dimensions
	Ratio  imagemeta.Ratio
}

func (e *CropImpossibleError) Error() string {
	return fmt.Sprintf("%dx%d をアスペクト比 %s にクロップできません",
		e.Source.Width, e.Source.Height, e.Ratio)
}

// CropResult はクロップ処理の結果です。WasCropped が false の場合、
// Data は入力バイト列そのものです。
type CropResult struct {
	Data       []byte
	Source     imagemeta.Dimensions
	Target     imagemeta.Dimensions
	WasCropped bool
}

// CenterCrop は画像を完全デコードし、要求比の整数倍で収まる最大サイズへ
// 中央を基準にクロップします。目標サイズが元サイズと一致する場合は
// 再エンコードせずに元バイト列を返します。クロップした場合は元の形式に
// 関わらずPNGで書き直します（出力ファイルの拡張子が .png のためです）。
func CenterCrop(data []byte, ratio imagemeta.Ratio) (CropResult, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return CropResult{}, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	bounds := src.Bounds()
	source := imagemeta.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}

	scale := min(source.Width/ratio.Width, source.Height/ratio.Height)
	if scale < 1 {
		return CropResult{}, &CropImpossibleError{Source: source, Ratio: ratio}
	}

	target := imagemeta.Dimensions{Width: ratio.Width * scale, Height: ratio.Height * scale}
	if target == source {
		return CropResult{Data: data, Source: source, Target: target, WasCropped: false}, nil
	}

	left := (source.Width - target.Width) / 2
	top := (source.Height - target.Height) / 2
	cropped := imaging.Crop(src, image.Rect(left, top, left+target.Width, top+target.Height))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
		return CropResult{}, fmt.Errorf("クロップ結果のPNGエンコードに失敗しました: %w", err)
	}
	return CropResult{Data: buf.Bytes(), Source: source, Target: target, WasCropped: true}, nil
}
