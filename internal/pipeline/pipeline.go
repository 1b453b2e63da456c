package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/openaiclient"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// Execute は、プロンプトの正規化 → 画像生成 → 後処理 → 保存 → サマリ書き出し
// までの一連の処理を実行するのだ。入力の検証はネットワーク呼び出しが
// 始まる前にすべて済ませるのだよ。
func Execute(ctx context.Context, cfg *config.Config) error {
	entries, err := buildPromptEntries(cfg.Options)
	if err != nil {
		return err
	}

	projectDir, err := filepath.Abs(cfg.Options.ProjectDir)
	if err != nil {
		return fmt.Errorf("プロジェクトディレクトリの解決に失敗したのだ (%s): %w", cfg.Options.ProjectDir, err)
	}

	pub, err := publisher.NewStoryboardPublisher(projectDir, cfg.Options.ContentName)
	if err != nil {
		return err
	}

	client := openaiclient.New(cfg.APIBaseURL, cfg.APIKey)
	storyboardRunner := runner.NewStoryboardRunner(client, pub, cfg)

	slog.Info("ストーリーボード生成を開始するのだ！",
		"entries", len(entries),
		"image_model", cfg.ImageModel,
		"output_dir", pub.OutputDir())

	records, err := storyboardRunner.Run(ctx, entries)
	if err != nil {
		return err
	}

	summary := domain.Summary{
		ContentName: cfg.Options.ContentName,
		ProjectDir:  projectDir,
		OutputDir:   pub.OutputDir(),
		ImageModel:  cfg.ImageModel,
		AspectRatio: cfg.AspectRatio,
		ImageSize:   cfg.ImageSize,
		Images:      records,
	}
	summaryPath, err := pub.WriteSummary(summary)
	if err != nil {
		return err
	}

	slog.Info("サマリを書き出したのだ", "path", summaryPath)
	return nil
}

// buildPromptEntries は --prompts-file と --prompt のどちらか一方から
// 順序付きのプロンプト列を構築するのだ。
func buildPromptEntries(opts config.GenerateOptions) ([]domain.PromptEntry, error) {
	if opts.PromptsFile != "" {
		raw, err := os.ReadFile(opts.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("プロンプトファイルの読み込みに失敗したのだ (%s): %w", opts.PromptsFile, err)
		}
		return parser.Normalize(raw, opts.PromptsFile)
	}
	return parser.NormalizeInline(opts.Prompts)
}
