package mailer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// defaultSubjectTemplate は種別専用テンプレートが無い場合の件名テンプレート。
const defaultSubjectTemplate = `「{{.notification_type}}」のお知らせ`

// defaultContentTemplate は種別専用テンプレートが無い場合の本文テンプレート。
const defaultContentTemplate = `「{{.notification_type}}」の通知が届いています。

以下のリンクから内容を確認してください。

{{.follow_link}}
`

// Renderer は通知種別ごとのメールテンプレートを解決して描画する。
//
// テンプレートディレクトリ配下の <種別名>/subject.txt と <種別名>/content.txt を
// 使用し、ファイルが存在しない場合は組み込みのデフォルトテンプレートに
// フォールバックする。
type Renderer struct {
	// dir はテンプレートディレクトリのパス。空の場合は常にデフォルトを使用する。
	dir string
	// subjectPrefix は件名の先頭に付与する接頭辞（例: "[mediahub] "）。
	subjectPrefix string
}

// NewRenderer は新しいRendererを生成する。
func NewRenderer(dir, subjectPrefix string) *Renderer {
	return &Renderer{
		dir:           dir,
		subjectPrefix: subjectPrefix,
	}
}

// Render は通知種別名とテンプレートコンテキストから件名と本文を描画する。
// 件名は改行・連続空白を1つの空白に畳み込み、接頭辞を付与して返す。
func (r *Renderer) Render(typeName string, data map[string]any) (subject, body string, err error) {
	subject, err = r.render(typeName, "subject.txt", defaultSubjectTemplate, data)
	if err != nil {
		return "", "", fmt.Errorf("件名テンプレートの描画に失敗: %w", err)
	}

	body, err = r.render(typeName, "content.txt", defaultContentTemplate, data)
	if err != nil {
		return "", "", fmt.Errorf("本文テンプレートの描画に失敗: %w", err)
	}

	subject = strings.TrimSpace(r.subjectPrefix + strings.Join(strings.Fields(subject), " "))
	return subject, body, nil
}

// render は1つのテンプレートを解決して描画する。
func (r *Renderer) render(typeName, filename, fallback string, data map[string]any) (string, error) {
	text := fallback
	if r.dir != "" {
		path := filepath.Join(r.dir, typeName, filename)
		if content, err := os.ReadFile(path); err == nil {
			text = string(content)
		}
	}

	tmpl, err := template.New(filename).Parse(text)
	if err != nil {
		return "", fmt.Errorf("テンプレートの解析に失敗: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("テンプレートの実行に失敗: %w", err)
	}
	return buf.String(), nil
}
