package domain

// PromptEntry は画像1枚分の生成指示です。
// Title は出力ファイル名に埋め込まれ、順序は 1 始まりの連番として意味を持ちます。
type PromptEntry struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// CharacterProfile は複数のシーンへ差し込める再利用可能なキャラクター定義です。
// 5 つのフィールドはすべて必須で、トリム後に空であってはなりません。
type CharacterProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`
	Outfit      string `json:"outfit"`
	Description string `json:"description"`
}

// ScenePrompt は構造化モードのシーン1件を画像生成用プロンプトへ直列化するための
// ペイロードです。フィールドの並びがそのまま JSON のキー順になります。
type ScenePrompt struct {
	SceneTitle  string             `json:"scene_title"`
	Description string             `json:"description"`
	Characters  []CharacterProfile `json:"characters,omitempty"`
	Style       string             `json:"style,omitempty"`
	Camera      string             `json:"camera,omitempty"`
	Lighting    string             `json:"lighting,omitempty"`
}
