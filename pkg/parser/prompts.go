package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ValidationError は入力データの構造違反を表します。
// Location には "scenes[2]" のような問題箇所が入り、診断にそのまま使えます。
type ValidationError struct {
	Source   string // プロンプトファイルのパス、または "--prompt" などの入力元
	Location string // 問題の発生箇所（無い場合は空）
	Message  string
}

// Error は入力元と発生箇所を含む人間可読なメッセージを返します。
func (e *ValidationError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s の %s が不正です: %s", e.Source, e.Location, e.Message)
	}
	return fmt.Sprintf("%s が不正です: %s", e.Source, e.Message)
}

func newValidationError(source, location, format string, args ...any) *ValidationError {
	return &ValidationError{
		Source:   source,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	}
}

// defaultTitle は 1 始まりの連番からタイトルの既定値を作ります。
func defaultTitle(index int) string {
	return fmt.Sprintf("scene-%d", index)
}

// Normalize は JSON のプロンプト定義を正規化し、順序付きの PromptEntry 列へ変換します。
// トップレベルが配列ならフラットモード、オブジェクトなら characters/scenes の
// 構造化モードとして明示的に分岐します。構造違反は *ValidationError で報告します。
func Normalize(raw []byte, source string) ([]domain.PromptEntry, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, newValidationError(source, "", "JSONが空です")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, newValidationError(source, "", "JSONの解析に失敗しました: %v", err)
		}
		return normalizeFlat(items, source)
	case '{':
		return normalizeStructured(raw, source)
	default:
		return nil, newValidationError(source, "", "トップレベルのJSONは配列かオブジェクトでなければなりません")
	}
}

// NormalizeInline は --prompt で直接渡されたテキスト群を PromptEntry 列へ変換します。
// タイトルは引数の並び順に scene-N が割り当てられます。
func NormalizeInline(values []string) ([]domain.PromptEntry, error) {
	if len(values) == 0 {
		return nil, newValidationError("--prompt", "", "プロンプトが1件も指定されていません")
	}

	entries := make([]domain.PromptEntry, 0, len(values))
	for i, value := range values {
		text := strings.TrimSpace(value)
		if text == "" {
			return nil, newValidationError("--prompt", fmt.Sprintf("position %d", i+1), "プロンプトが空です")
		}
		entries = append(entries, domain.PromptEntry{Title: defaultTitle(i + 1), Prompt: text})
	}
	return entries, nil
}

// normalizeFlat はフラットモード（文字列またはオブジェクトの配列）を処理します。
func normalizeFlat(items []json.RawMessage, source string) ([]domain.PromptEntry, error) {
	if len(items) == 0 {
		return nil, newValidationError(source, "", "プロンプトが1件も含まれていません")
	}

	entries := make([]domain.PromptEntry, 0, len(items))
	for i, item := range items {
		index := i + 1
		location := fmt.Sprintf("index %d", index)

		element := bytes.TrimLeft(item, " \t\r\n")
		var title, prompt string
		switch {
		case len(element) > 0 && element[0] == '"':
			var text string
			if err := json.Unmarshal(item, &text); err != nil {
				return nil, newValidationError(source, location, "文字列の解析に失敗しました: %v", err)
			}
			prompt = strings.TrimSpace(text)
			title = defaultTitle(index)
		case len(element) > 0 && element[0] == '{':
			var entry struct {
				Title  string `json:"title"`
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal(item, &entry); err != nil {
				return nil, newValidationError(source, location, "オブジェクトの解析に失敗しました: %v", err)
			}
			prompt = strings.TrimSpace(entry.Prompt)
			title = strings.TrimSpace(entry.Title)
			if title == "" {
				title = defaultTitle(index)
			}
		default:
			return nil, newValidationError(source, location, "要素は文字列かオブジェクトでなければなりません")
		}

		if prompt == "" {
			return nil, newValidationError(source, location, "プロンプトが空です")
		}
		entries = append(entries, domain.PromptEntry{Title: title, Prompt: prompt})
	}
	return entries, nil
}

// normalizeStructured は構造化モード（トップレベルに scenes、任意で characters を
// 持つオブジェクト）を処理します。各シーンはキャラクター定義を展開したうえで
// コンパクトなJSON文字列のプロンプトへ直列化されます。
func normalizeStructured(raw []byte, source string) ([]domain.PromptEntry, error) {
	var envelope struct {
		Scenes     json.RawMessage `json:"scenes"`
		Characters json.RawMessage `json:"characters"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, newValidationError(source, "", "JSONの解析に失敗しました: %v", err)
	}

	var scenes []json.RawMessage
	if envelope.Scenes == nil || json.Unmarshal(envelope.Scenes, &scenes) != nil {
		return nil, newValidationError(source, "", "オブジェクトモードではトップレベルに 'scenes' 配列が必要です")
	}
	if len(scenes) == 0 {
		return nil, newValidationError(source, "", "'scenes' を空にすることはできません")
	}

	profiles, err := parseCharacterProfiles(envelope.Characters, source)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.PromptEntry, 0, len(scenes))
	for i, rawScene := range scenes {
		entry, err := buildScenePrompt(rawScene, i, source, profiles)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseCharacterProfiles はトップレベルの 'characters' 配列を id → プロフィールの
// マップへ変換します。5 フィールドすべてが必須で、id の重複は許しません。
func parseCharacterProfiles(raw json.RawMessage, source string) (map[string]domain.CharacterProfile, error) {
	if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return map[string]domain.CharacterProfile{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, newValidationError(source, "", "'characters' は指定する場合は配列でなければなりません")
	}

	profiles := make(map[string]domain.CharacterProfile, len(items))
	for i, item := range items {
		location := fmt.Sprintf("characters[%d]", i)

		var profile domain.CharacterProfile
		if err := json.Unmarshal(item, &profile); err != nil {
			return nil, newValidationError(source, location, "キャラクター定義はオブジェクトでなければなりません")
		}

		profile.ID = strings.TrimSpace(profile.ID)
		profile.Name = strings.TrimSpace(profile.Name)
		profile.Appearance = strings.TrimSpace(profile.Appearance)
		profile.Outfit = strings.TrimSpace(profile.Outfit)
		profile.Description = strings.TrimSpace(profile.Description)

		var missing []string
		for _, field := range [][2]string{
			{"id", profile.ID},
			{"name", profile.Name},
			{"appearance", profile.Appearance},
			{"outfit", profile.Outfit},
			{"description", profile.Description},
		} {
			if field[1] == "" {
				missing = append(missing, field[0])
			}
		}
		if len(missing) > 0 {
			return nil, newValidationError(source, location, "必須フィールドが欠けています: %s", strings.Join(missing, ", "))
		}

		if _, exists := profiles[profile.ID]; exists {
			return nil, newValidationError(source, location, "キャラクターid '%s' が重複しています", profile.ID)
		}
		profiles[profile.ID] = profile
	}
	return profiles, nil
}

// parseSceneCharacterIDs はシーンの 'character_ids' を検証します。
// 文字列の配列であること、各要素が空でないこと、重複しないことを保証します。
func parseSceneCharacterIDs(raw json.RawMessage, source, location string) ([]string, error) {
	if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var rawIDs []string
	if err := json.Unmarshal(raw, &rawIDs); err != nil {
		return nil, newValidationError(source, location, "'character_ids' は指定する場合は文字列の配列でなければなりません")
	}

	ids := make([]string, 0, len(rawIDs))
	seen := make(map[string]struct{}, len(rawIDs))
	for i, rawID := range rawIDs {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return nil, newValidationError(source, location, "character_ids[%d] を空にすることはできません", i)
		}
		if _, dup := seen[id]; dup {
			return nil, newValidationError(source, location, "character_ids 内でid '%s' が重複しています", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// buildScenePrompt はシーン1件を検証し、参照キャラクターを展開した
// コンパクトJSONのプロンプトを持つ PromptEntry を構築します。
func buildScenePrompt(raw json.RawMessage, index int, source string, profiles map[string]domain.CharacterProfile) (domain.PromptEntry, error) {
	location := fmt.Sprintf("scenes[%d]", index)

	element := bytes.TrimLeft(raw, " \t\r\n")
	if len(element) == 0 || element[0] != '{' {
		return domain.PromptEntry{}, newValidationError(source, location, "シーンはオブジェクトでなければなりません")
	}

	var scene struct {
		Title                 string            `json:"title"`
		Description           string            `json:"description"`
		CharacterIDs          json.RawMessage   `json:"character_ids"`
		CharacterDescriptions map[string]string `json:"character_descriptions"`
		Style                 string            `json:"style"`
		Camera                string            `json:"camera"`
		Lighting              string            `json:"lighting"`
	}
	if err := json.Unmarshal(raw, &scene); err != nil {
		return domain.PromptEntry{}, newValidationError(source, location, "シーンの解析に失敗しました: %v", err)
	}

	title := strings.TrimSpace(scene.Title)
	if title == "" {
		title = defaultTitle(index + 1)
	}

	description := strings.TrimSpace(scene.Description)
	if description == "" {
		return domain.PromptEntry{}, newValidationError(source, location, "'description' は必須です")
	}

	characterIDs, err := parseSceneCharacterIDs(scene.CharacterIDs, source, location)
	if err != nil {
		return domain.PromptEntry{}, err
	}

	// description の上書きマップ。キーは character_ids の部分集合でなければなりません。
	overrides := make(map[string]string, len(scene.CharacterDescriptions))
	for key, value := range scene.CharacterDescriptions {
		id := strings.TrimSpace(key)
		if id == "" {
			continue
		}
		overrides[id] = strings.TrimSpace(value)
	}

	listed := make(map[string]struct{}, len(characterIDs))
	for _, id := range characterIDs {
		listed[id] = struct{}{}
	}
	var unknown []string
	for id := range overrides {
		if _, ok := listed[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.PromptEntry{}, newValidationError(source, location,
			"'character_descriptions' に character_ids に無いidが含まれています: %s", strings.Join(unknown, ", "))
	}

	// character_ids の並び順を保ったままプロフィールを展開します。
	var characters []domain.CharacterProfile
	for _, id := range characterIDs {
		profile, ok := profiles[id]
		if !ok {
			return domain.PromptEntry{}, newValidationError(source, location,
				"キャラクターid '%s' はトップレベルの 'characters' で定義されていません", id)
		}
		if override, exists := overrides[id]; exists {
			if override == "" {
				return domain.PromptEntry{}, newValidationError(source, location,
					"character_descriptions['%s'] を空にすることはできません", id)
			}
			profile.Description = override
		}
		characters = append(characters, profile)
	}

	payload := domain.ScenePrompt{
		SceneTitle:  title,
		Description: description,
		Characters:  characters,
		Style:       strings.TrimSpace(scene.Style),
		Camera:      strings.TrimSpace(scene.Camera),
		Lighting:    strings.TrimSpace(scene.Lighting),
	}

	prompt, err := marshalCompact(payload)
	if err != nil {
		return domain.PromptEntry{}, newValidationError(source, location, "プロンプトの直列化に失敗しました: %v", err)
	}
	return domain.PromptEntry{Title: title, Prompt: prompt}, nil
}

// marshalCompact は余分な空白もHTMLエスケープも無い決定的なJSON文字列を返します。
func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
