// Package export renders the manuscript to HTML.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/quillmark/internal/nodes"
)

// Chapter is one exported chapter.
type Chapter struct {
	Title string
	Body  string
}

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var page = template.Must(template.New("manuscript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="word-count">{{.Words}} words</p>
{{range .Chapters}}<section class="chapter">
<h2>{{.Title}}</h2>
{{.Body}}</section>
{{end}}</body>
</html>
`))

type pageChapter struct {
	Title string
	Body  template.HTML
}

// Manuscript writes chapters, in the given order, as one HTML document.
// Chapter bodies are prose; raw HTML in them is not passed through.
func Manuscript(w io.Writer, title string, chapters []Chapter) error {
	data := struct {
		Title    string
		Words    int
		Chapters []pageChapter
	}{Title: title}

	for _, ch := range chapters {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(ch.Body), &buf); err != nil {
			return fmt.Errorf("export: convert %q: %w", ch.Title, err)
		}
		data.Words += nodes.WordCount(ch.Body)
		data.Chapters = append(data.Chapters, pageChapter{
			Title: ch.Title,
			Body:  template.HTML(buf.String()), //nolint:gosec // goldmark output with unsafe HTML disabled
		})
	}
	return page.Execute(w, data)
}

// PlainText joins chapters into a single text manuscript.
func PlainText(w io.Writer, chapters []Chapter) error {
	var b strings.Builder
	for i, ch := range chapters {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ch.Title)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(ch.Body, "\n"))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
