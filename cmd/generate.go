package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// generateCmd は、プロンプト定義からストーリーボード画像の一括生成を実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "プロンプトからストーリーボード画像を一括生成するのだ。",
	Long: `JSONのプロンプト定義（または --prompt の直接指定）を正規化し、
OpenAI互換の /images/generations エンドポイントで1枚ずつ画像を生成するのだ。
アスペクト比を指定すると出力をセンタークロップし、最後に storyboard.json を書き出すのだよ。`,
	PreRunE: preRunGenerateE,
	RunE:    generateCommand,
}

// preRunGenerateE は、コマンド実行前に .env の読み込みと必須入力のチェックを行うのだ。
func preRunGenerateE(cmd *cobra.Command, args []string) error {
	// .env は存在すれば読み込むのだ。既存の環境変数は上書きしないのだよ。
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("環境変数ファイルの読み込みに失敗したのだ (%s): %w", opts.EnvFile, err)
		}
	}

	if opts.PromptsFile == "" && len(opts.Prompts) == 0 {
		return fmt.Errorf("プロンプト（--prompts-file または --prompt）を指定してほしいのだ")
	}
	return nil
}

// generateCommand は、generate サブコマンドの実行ロジック本体なのだ。
// 設定の解決と検証を済ませてから pipeline.Execute を呼び出すのだ。
func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 環境変数から基本設定をロードし、フラグ値を優先して検証するのだ
	cfg := config.LoadConfig()
	if err := cfg.Resolve(opts); err != nil {
		return err
	}

	slog.Info("ストーリーボード生成パイプラインを起動するのだ！",
		"content_name", opts.ContentName,
		"image_model", cfg.ImageModel,
		"aspect_ratio", cfg.AspectRatio,
		"image_size", cfg.ImageSize)

	// 2. パイプライン実行
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
