package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()

	// 严格策略：剥掉所有标签，用于扫码端上报的产品名/品牌等纯文本字段
	strictPolicy = bluemonday.StrictPolicy()
)

func init() {
	// 成分评级理由里经常引用外部研究链接，强制新开页并去 referrer
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 将成分评级理由（Markdown）渲染为消毒后的 HTML 片段，
// 供 API 以 reason_html 字段返回给前端直接展示。
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return source // Fallback
	}
	return string(policy.SanitizeBytes(buf.Bytes()))
}

// SanitizeText 剥掉输入中的所有 HTML，用于不可信的用户上报字段
func SanitizeText(s string) string {
	return strictPolicy.Sanitize(s)
}
