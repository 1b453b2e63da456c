// Package publisher は生成結果のローカル保存を担います。
// 画像は pictures/{コンテンツ名}/ 配下へ連番付きで、バッチ全体の記録は
// storyboard.json として書き出されます。
package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	picturesDirName    = "pictures"
	summaryFileName    = "storyboard.json"
	defaultContentName = "untitled-content"
)

// StoryboardPublisher は1回のバッチ実行分の出力ディレクトリを管理します。
type StoryboardPublisher struct {
	outputDir string
}

// NewStoryboardPublisher は pictures/{サニタイズ済みコンテンツ名}/ を作成して返します。
func NewStoryboardPublisher(projectDir, contentName string) (*StoryboardPublisher, error) {
	dirName := SanitizeComponent(contentName, defaultContentName)
	outputDir := filepath.Join(projectDir, picturesDirName, dirName)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました (%s): %w", outputDir, err)
	}
	return &StoryboardPublisher{outputDir: outputDir}, nil
}

// OutputDir は解決済みの出力ディレクトリを返します。
func (p *StoryboardPublisher) OutputDir() string {
	return p.outputDir
}

// SaveImage は {NN}_{サニタイズ済みタイトル}.png という名前で画像を保存します。
// 既存ファイルと衝突する場合は連番を足したパスへ退避し、
// 実際に書き込んだパスを返します。
func (p *StoryboardPublisher) SaveImage(index int, title string, data []byte) (string, error) {
	slug := SanitizeComponent(title, fmt.Sprintf("scene-%d", index))
	filename := fmt.Sprintf("%02d_%s.png", index, slug)
	path := UniquePath(filepath.Join(p.outputDir, filename))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("画像の書き込みに失敗しました (%s): %w", path, err)
	}
	return path, nil
}

// WriteSummary は storyboard.json を書き出し、そのパスを返します。
// 全エントリの成功後に1度だけ呼ばれる想定です。
func (p *StoryboardPublisher) WriteSummary(summary domain.Summary) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return "", fmt.Errorf("サマリの直列化に失敗しました: %w", err)
	}

	path := filepath.Join(p.outputDir, summaryFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("サマリの書き込みに失敗しました (%s): %w", path, err)
	}
	return path, nil
}
