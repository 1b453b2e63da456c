package runner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imagemeta"
	"github.com/shouni/go-storyboard-kit/pkg/openaiclient"
	"github.com/shouni/go-storyboard-kit/pkg/postprocess"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// ImageGenerator は画像生成APIの呼び出し面なのだ。テストではスタブに差し替えるのだ。
type ImageGenerator interface {
	Generate(ctx context.Context, req openaiclient.GenerationRequest) (*openaiclient.GeneratedImage, error)
}

// StoryboardRunner は、正規化済みプロンプトを入力順に1件ずつ処理して
// 画像の生成・後処理・保存と記録の構築を行う実体なのだ。
// 連番ファイル名と一意パスの確保が順序に依存するため、並列化はしないのだ。
type StoryboardRunner struct {
	client  ImageGenerator
	pub     *publisher.StoryboardPublisher
	cfg     *config.Config
	limiter *rate.Limiter
}

// NewStoryboardRunner は StoryboardRunner の新しいインスタンスを生成して返すのだ。
func NewStoryboardRunner(client ImageGenerator, pub *publisher.StoryboardPublisher, cfg *config.Config) *StoryboardRunner {
	return &StoryboardRunner{
		client:  client,
		pub:     pub,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(config.DefaultRequestInterval), 1),
	}
}

// Run は全エントリを順番に処理し、storyboard.json 用の記録を返すのだ。
// 生成呼び出しの失敗はバッチ全体を即座に中断するのだ。クロップ不能と
// 形式不明はそのエントリ内で回復して続行するのだよ。
func (r *StoryboardRunner) Run(ctx context.Context, entries []domain.PromptEntry) ([]domain.ImageRecord, error) {
	ratio, hasRatio := r.cfg.Ratio()

	records := make([]domain.ImageRecord, 0, len(entries))
	for i, entry := range entries {
		index := i + 1

		// 流量制限に従って自分の番を待つのだ
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		slog.Info("画像を生成中なのだ...", "index", index, "title", entry.Title)
		img, err := r.client.Generate(ctx, openaiclient.GenerationRequest{
			Model:       r.cfg.ImageModel,
			Prompt:      entry.Prompt,
			AspectRatio: r.cfg.AspectRatio,
			Size:        r.cfg.ImageSize,
			Quality:     r.cfg.Quality,
			Style:       r.cfg.Style,
		})
		if err != nil {
			return nil, fmt.Errorf("画像生成に失敗したのだ (index %d): %w", index, err)
		}

		data := img.Data
		sourceDims, sourceOK := imagemeta.Probe(data)

		if hasRatio {
			data = r.reconcile(data, ratio, sourceDims, sourceOK)
		}

		path, err := r.pub.SaveImage(index, entry.Title, data)
		if err != nil {
			return nil, err
		}

		record := domain.ImageRecord{
			Index:         index,
			Title:         entry.Title,
			Prompt:        entry.Prompt,
			File:          path,
			RevisedPrompt: img.RevisedPrompt,
		}
		if dims, ok := imagemeta.Probe(data); ok {
			record.Width = dims.Width
			record.Height = dims.Height
			if sourceOK && dims != sourceDims {
				record.SourceWidth = sourceDims.Width
				record.SourceHeight = sourceDims.Height
			}
		}
		records = append(records, record)
		slog.Info("画像を保存したのだ", "index", index, "path", path)
	}
	return records, nil
}

// reconcile はセンタークロップを試みるのだ。クロップできない場合は警告を出して
// 元のバイト列のまま続行するのだ。比率ずれの診断はクロップの成否とは独立に行うのだよ。
func (r *StoryboardRunner) reconcile(data []byte, ratio imagemeta.Ratio, sourceDims imagemeta.Dimensions, sourceOK bool) []byte {
	result, err := postprocess.CenterCrop(data, ratio)
	switch {
	case err != nil:
		slog.Warn("センタークロップを適用できなかったのだ", "reason", err)
	case result.WasCropped:
		data = result.Data
		slog.Info("アスペクト比に合わせてセンタークロップを適用したのだ",
			"ratio", ratio.String(),
			"source", fmt.Sprintf("%dx%d", result.Source.Width, result.Source.Height),
			"target", fmt.Sprintf("%dx%d", result.Target.Width, result.Target.Height))
	}

	if sourceOK && ratio.Mismatch(sourceDims, imagemeta.DefaultMismatchTolerance) {
		suggested := imagemeta.SuggestSize(ratio)
		slog.Warn("要求したアスペクト比とプロバイダの出力がずれているのだ。可能な範囲でクロップ済みなのだ",
			"requested", ratio.String(),
			"actual", fmt.Sprintf("%dx%d", sourceDims.Width, sourceDims.Height),
			"actual_ratio", imagemeta.SimplifyRatio(sourceDims.Width, sourceDims.Height),
			"hint", fmt.Sprintf("品質を上げたい場合は --image-size %s か OPENAI_IMAGE_SIZE=%s を試すのだ", suggested, suggested))
	}
	return data
}
