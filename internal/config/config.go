package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-storyboard-kit/pkg/imagemeta"
)

// デフォルト値の定義なのだ
const (
	DefaultImageModel      = "gpt-image-1"
	DefaultProjectDir      = "."
	DefaultEnvFile         = ".env"
	DefaultRequestInterval = time.Second // 連続生成リクエストの最短間隔
)

var sizePattern = regexp.MustCompile(`^\d{2,5}x\d{2,5}$`)

// Config はアプリケーション全体の環境設定（APIの接続先や生成パラメータ）を保持する構造体なのだ。
type Config struct {
	APIBaseURL  string
	APIKey      string
	ImageModel  string
	AspectRatio string // 検証済みの "W:H"。未指定なら空
	ImageSize   string // 検証済みの "WxH"。未指定なら空
	Quality     string
	Style       string

	Options GenerateOptions
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	ContentName string   // --content-name: pictures/ 配下のサブフォルダ名
	ProjectDir  string   // --project-dir
	EnvFile     string   // --env-file
	APIURL      string   // --api-url
	APIKey      string   // --api-key
	PromptsFile string   // --prompts-file
	Prompts     []string // --prompt（複数回指定可）
	ImageModel  string   // --image-model
	AspectRatio string   // --aspect-ratio
	ImageSize   string   // --image-size
	Quality     string   // --quality
	Style       string   // --style
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
// フラグ値の反映と検証は Resolve に任せるのだよ。
func LoadConfig() *Config {
	return &Config{
		APIBaseURL:  envutil.GetEnv("OPENAI_API_URL", ""),
		APIKey:      envutil.GetEnv("OPENAI_API_KEY", ""),
		ImageModel:  envutil.GetEnv("OPENAI_IMAGE_MODEL", DefaultImageModel),
		AspectRatio: envutil.GetEnv("OPENAI_IMAGE_RATIO", envutil.GetEnv("OPENAI_IMAGE_ASPECT_RATIO", "")),
		ImageSize:   envutil.GetEnv("OPENAI_IMAGE_SIZE", ""),
		Quality:     envutil.GetEnv("OPENAI_IMAGE_QUALITY", ""),
		Style:       envutil.GetEnv("OPENAI_IMAGE_STYLE", ""),
	}
}

// Resolve はフラグ値を環境変数より優先して上書きし、全体を検証するのだ。
// ここで弾かれた設定ミスは、ネットワーク呼び出しが始まる前の失敗になるのだ。
func (c *Config) Resolve(opts GenerateOptions) error {
	c.Options = opts

	if opts.APIURL != "" {
		c.APIBaseURL = opts.APIURL
	}
	if opts.APIKey != "" {
		c.APIKey = opts.APIKey
	}
	if opts.ImageModel != "" {
		c.ImageModel = opts.ImageModel
	}
	if opts.AspectRatio != "" {
		c.AspectRatio = opts.AspectRatio
	}
	if opts.ImageSize != "" {
		c.ImageSize = opts.ImageSize
	}
	if opts.Quality != "" {
		c.Quality = opts.Quality
	}
	if opts.Style != "" {
		c.Style = opts.Style
	}

	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return fmt.Errorf("必須設定 OPENAI_API_URL がありません。環境変数か --api-url で指定してほしいのだ")
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return fmt.Errorf("必須設定 OPENAI_API_KEY がありません。環境変数か --api-key で指定してほしいのだ")
	}
	c.ImageModel = strings.TrimSpace(c.ImageModel)
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}

	ratio, err := normalizeAspectRatio(c.AspectRatio)
	if err != nil {
		return err
	}
	c.AspectRatio = ratio

	size, err := normalizeImageSize(c.ImageSize)
	if err != nil {
		return err
	}
	c.ImageSize = size

	c.Quality = strings.TrimSpace(c.Quality)
	c.Style = strings.TrimSpace(c.Style)
	return nil
}

// Ratio は検証済みのアスペクト比を返すのだ。未指定なら ok=false なのだ。
func (c *Config) Ratio() (imagemeta.Ratio, bool) {
	if c.AspectRatio == "" {
		return imagemeta.Ratio{}, false
	}
	// Resolve を通った値なので、ここで失敗することはないのだ
	ratio, _ := imagemeta.ParseRatio(c.AspectRatio)
	return ratio, true
}

// normalizeAspectRatio は空なら空のまま、指定があれば "W:H" として検証するのだ。
func normalizeAspectRatio(value string) (string, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		return "", nil
	}
	if _, err := imagemeta.ParseRatio(candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

// normalizeImageSize は空なら空のまま、指定があれば "WxH" として検証するのだ。
func normalizeImageSize(value string) (string, error) {
	candidate := strings.ToLower(strings.TrimSpace(value))
	if candidate == "" {
		return "", nil
	}
	if !sizePattern.MatchString(candidate) {
		return "", fmt.Errorf("画像サイズが不正です。1024x768 のような形式で指定してほしいのだ")
	}
	parts := strings.SplitN(candidate, "x", 2)
	width, _ := strconv.Atoi(parts[0])
	height, _ := strconv.Atoi(parts[1])
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("画像サイズが不正です。幅と高さは正の整数でなければならないのだ")
	}
	return candidate, nil
}
