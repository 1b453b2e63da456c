package domain

// ImageRecord は storyboard.json に記録される画像1枚分の結果です。
// SourceWidth / SourceHeight はクロップで寸法が変化した場合にのみ埋まります。
type ImageRecord struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	Prompt        string `json:"prompt"`
	File          string `json:"file"`
	SourceWidth   int    `json:"source_width,omitempty"`
	SourceHeight  int    `json:"source_height,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Summary はバッチ全体の実行結果（storyboard.json の中身）です。
// 全エントリが成功した場合にのみ書き出されます。
type Summary struct {
	ContentName string        `json:"content_name"`
	ProjectDir  string        `json:"project_dir"`
	OutputDir   string        `json:"output_dir"`
	ImageModel  string        `json:"image_model"`
	AspectRatio string        `json:"aspect_ratio,omitempty"`
	ImageSize   string        `json:"image_size,omitempty"`
	Images      []ImageRecord `json:"images"`
}
