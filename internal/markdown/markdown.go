// Package markdown はニュースレター向けのMarkdown→HTML変換を提供する。
//
// メールクライアントは外部CSSを解釈しないため、全要素にインラインスタイルを
// 付与したHTMLを生成する。対応構文は見出し・段落・リスト・水平線・強調・
// インラインコード・リンクに限定する（メール本文に必要な範囲）。
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	reBold           = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore = regexp.MustCompile(`__(.+?)__`)
	reItalic         = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode     = regexp.MustCompile("`([^`]+)`")
	reLink           = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	reOrderedItem    = regexp.MustCompile(`^\d+\.\s+`)
)

// 見出しレベルごとのフォントサイズ。h5以下はサイズ指定なし。
var headingSizes = map[int]string{
	1: "font-size:22px;",
	2: "font-size:20px;",
	3: "font-size:17px;",
	4: "font-size:15px;",
}

const (
	paragraphStyle = "margin:12px 0;color:#3f3f46;font-size:15px;line-height:1.7;"
	linkStyle      = "color:#2563eb;text-decoration:underline;"
	strongStyle    = "color:#18181b;font-weight:600;"
	emStyle        = "color:#52525b;"
	codeStyle      = "background:#f4f4f5;padding:2px 6px;border-radius:4px;font-size:13px;color:#7c3aed;"
	listStyle      = "margin:12px 0;padding-left:24px;color:#3f3f46;"
	listItemStyle  = "margin:4px 0;line-height:1.7;"
	hrStyle        = "border:none;border-top:1px solid #e4e4e7;margin:24px 0;"
)

// Render はMarkdown文字列をインラインスタイル付きHTMLに変換して返す。
func Render(md string) string {
	var buf bytes.Buffer
	RenderTo(&buf, md)
	return buf.String()
}

// RenderTo はMarkdownのHTML表現をbufに書き込む。
func RenderTo(buf *bytes.Buffer, md string) {
	lines := strings.Split(md, "\n")
	inUL := false
	inOL := false
	var para []string

	closeList := func() {
		if inUL {
			buf.WriteString("</ul>\n")
			inUL = false
		}
		if inOL {
			buf.WriteString("</ol>\n")
			inOL = false
		}
	}
	flushPara := func() {
		if len(para) == 0 {
			return
		}
		fmt.Fprintf(buf, `<p style="%s">%s</p>`, paragraphStyle, renderInline(strings.Join(para, " ")))
		buf.WriteString("\n")
		para = nil
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushPara()
			closeList()

		case strings.HasPrefix(trimmed, "#"):
			flushPara()
			closeList()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			if level > 6 {
				level = 6
			}
			text := strings.TrimSpace(trimmed[level:])
			fmt.Fprintf(buf,
				`<h%d style="%sfont-weight:600;color:#18181b;margin:24px 0 8px;line-height:1.3;">%s</h%d>`,
				level, headingSizes[level], renderInline(text), level)
			buf.WriteString("\n")

		case trimmed == "---" || trimmed == "***":
			flushPara()
			closeList()
			fmt.Fprintf(buf, `<hr style="%s" />`, hrStyle)
			buf.WriteString("\n")

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushPara()
			if inOL {
				buf.WriteString("</ol>\n")
				inOL = false
			}
			if !inUL {
				fmt.Fprintf(buf, `<ul style="%s">`, listStyle)
				buf.WriteString("\n")
				inUL = true
			}
			fmt.Fprintf(buf, `<li style="%s">%s</li>`, listItemStyle, renderInline(trimmed[2:]))
			buf.WriteString("\n")

		case reOrderedItem.MatchString(trimmed):
			flushPara()
			if inUL {
				buf.WriteString("</ul>\n")
				inUL = false
			}
			if !inOL {
				fmt.Fprintf(buf, `<ol style="%s">`, listStyle)
				buf.WriteString("\n")
				inOL = true
			}
			item := reOrderedItem.ReplaceAllString(trimmed, "")
			fmt.Fprintf(buf, `<li style="%s">%s</li>`, listItemStyle, renderInline(item))
			buf.WriteString("\n")

		default:
			closeList()
			para = append(para, trimmed)
		}
	}

	flushPara()
	closeList()
}

// renderInline はインライン構文（強調・コード・リンク）を変換する。
// テキストは先にHTMLエスケープし、生成するタグのみを通す。
func renderInline(text string) string {
	s := html.EscapeString(text)

	s = reInlineCode.ReplaceAllString(s, `<code style="`+codeStyle+`">$1</code>`)
	s = reBold.ReplaceAllString(s, `<strong style="`+strongStyle+`">$1</strong>`)
	s = reBoldUnderscore.ReplaceAllString(s, `<strong style="`+strongStyle+`">$1</strong>`)
	s = reItalic.ReplaceAllString(s, `<em style="`+emStyle+`">$1</em>`)
	s = reLink.ReplaceAllString(s, `<a href="$2" style="`+linkStyle+`" target="_blank">$1</a>`)

	return s
}
