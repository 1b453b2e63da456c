package cmd

import (
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を集約する実行時パラメータなのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:           "storyboard",
	Short:         "OpenAI互換APIでストーリーボード画像を一括生成するCLIなのだ。",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// addAppFlags は、generate コマンドに必要なフラグを定義するのだ。
func addAppFlags() {
	flags := generateCmd.Flags()

	// --- 出力先の設定 ---
	flags.StringVar(&opts.ContentName, "content-name", "", "pictures/ 配下の出力サブフォルダ名なのだ。")
	flags.StringVar(&opts.ProjectDir, "project-dir", config.DefaultProjectDir, "プロジェクトルートのパスなのだ。")

	// --- API接続の設定 ---
	flags.StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "環境変数ファイルのパスなのだ。")
	flags.StringVar(&opts.APIURL, "api-url", "", "/images/generations のベースURLなのだ（または OPENAI_API_URL）。")
	flags.StringVar(&opts.APIKey, "api-key", "", "APIキーなのだ（または OPENAI_API_KEY）。")

	// --- プロンプト入力（どちらか一方） ---
	flags.StringVar(&opts.PromptsFile, "prompts-file", "", "プロンプト定義JSONのパスなのだ（フラット配列 or characters/scenes 構造）。")
	flags.StringArrayVar(&opts.Prompts, "prompt", nil, "画像プロンプト本文なのだ。複数回指定すると複数枚生成するのだ。")

	// --- 生成パラメータ ---
	flags.StringVar(&opts.ImageModel, "image-model", "", "画像生成モデル名なのだ（または OPENAI_IMAGE_MODEL）。")
	flags.StringVar(&opts.AspectRatio, "aspect-ratio", "", "16:9 のようなアスペクト比なのだ。指定すると出力をセンタークロップするのだ。")
	flags.StringVar(&opts.ImageSize, "image-size", "", "1024x768 のような明示サイズなのだ（または OPENAI_IMAGE_SIZE）。")
	flags.StringVar(&opts.Quality, "quality", "", "画質パラメータなのだ（または OPENAI_IMAGE_QUALITY）。")
	flags.StringVar(&opts.Style, "style", "", "スタイルパラメータなのだ（または OPENAI_IMAGE_STYLE）。")

	generateCmd.MarkFlagRequired("content-name")
	generateCmd.MarkFlagsMutuallyExclusive("prompts-file", "prompt")
}

func init() {
	addAppFlags()
	rootCmd.AddCommand(generateCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		os.Exit(1)
	}
}
