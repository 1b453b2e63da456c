// Package imagemeta は、画像バイト列のヘッダだけを読んで寸法やアスペクト比を
// 扱うための軽量なユーティリティを提供します。完全なデコードは行いません。
package imagemeta

import (
	"bytes"
	"encoding/binary"
)

// Dimensions は画像のピクセル寸法です。
type Dimensions struct {
	Width  int
	Height int
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Probe は生の画像バイト列からピクセル寸法を抽出します。
// PNG と JPEG のヘッダのみを解釈し、形式を認識できない場合や
// ヘッダが壊れている場合は ok=false を返します。エラーにもパニックにもなりません。
func Probe(data []byte) (Dimensions, bool) {
	if dims, ok := probePNG(data); ok {
		return dims, true
	}
	if dims, ok := probeJPEG(data); ok {
		return dims, true
	}
	return Dimensions{}, false
}

// probePNG は PNG シグネチャと IHDR の固定位置から寸法を読み取ります。
func probePNG(data []byte) (Dimensions, bool) {
	if !bytes.HasPrefix(data, pngSignature) || len(data) < 24 {
		return Dimensions{}, false
	}
	width := binary.BigEndian.Uint32(data[16:20])
	height := binary.BigEndian.Uint32(data[20:24])
	if width == 0 || height == 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: int(width), Height: int(height)}, true
}

// probeJPEG はマーカー列を線形に走査し、最初の SOF セグメントから寸法を読み取ります。
// すべての読み取りは境界チェック付きで、入力が壊れていても「見つからない」に退化します。
func probeJPEG(data []byte) (Dimensions, bool) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return Dimensions{}, false
	}

	index := 2
	for index+1 < len(data) {
		// マーカー先頭（0xFF）までスキップします。
		for index < len(data) && data[index] != 0xFF {
			index++
		}
		if index+1 >= len(data) {
			break
		}
		marker := data[index+1]
		index += 2

		// SOI / EOI には長さフィールドがありません。
		if marker == 0xD8 || marker == 0xD9 {
			continue
		}
		// SOS 以降は圧縮データ本体なので走査を打ち切ります。
		if marker == 0xDA {
			break
		}
		if index+2 > len(data) {
			break
		}

		segmentLength := int(binary.BigEndian.Uint16(data[index : index+2]))
		if segmentLength < 2 || index+segmentLength > len(data) {
			break
		}

		if isStartOfFrame(marker) && segmentLength >= 7 {
			height := int(binary.BigEndian.Uint16(data[index+3 : index+5]))
			width := int(binary.BigEndian.Uint16(data[index+5 : index+7]))
			if width > 0 && height > 0 {
				return Dimensions{Width: width, Height: height}, true
			}
		}

		index += segmentLength
	}
	return Dimensions{}, false
}

// isStartOfFrame は寸法を含む SOF 系マーカーかどうかを判定します。
// 0xC4（DHT）、0xC8（JPG）、0xCC（DAC）は SOF ではありません。
func isStartOfFrame(marker byte) bool {
	switch marker {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}
	return false
}
