package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// pageTemplate is the standalone page shell. The body is pre-rendered
// HTML and injected unescaped.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<style>
body {
  max-width: 72ch;
  margin: 2rem auto;
  padding: 0 1rem;
  font-family: system-ui, -apple-system, sans-serif;
  line-height: 1.6;
  color: #1f2328;
}
h1, h2, h3 { line-height: 1.25; }
a { color: #0969da; }
code {
  font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
  font-size: 0.9em;
  background: #f6f8fa;
  padding: 0.15em 0.35em;
  border-radius: 4px;
}
.code-block {
  margin: 1rem 0;
}
.code-block pre {
  background: #f6f8fa;
  border: 1px solid #d1d9e0;
  border-radius: 6px;
  padding: 1rem;
  overflow-x: auto;
}
.code-block pre code {
  background: none;
  padding: 0;
  font-size: 0.85em;
}
blockquote {
  margin: 1rem 0;
  padding-left: 1rem;
  border-left: 4px solid #d1d9e0;
  color: #59636e;
}
table { border-collapse: collapse; }
th, td { border: 1px solid #d1d9e0; padding: 0.4em 0.8em; }
</style>
</head>
<body>
<main class="article">
{{ .Body }}
</main>
</body>
</html>
`

var pageTpl = template.Must(template.New("page").Parse(pageTemplate))

// renderPage wraps a rendered body in the page shell.
func renderPage(title, body string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		// #nosec G203 -- body is renderer output, not user-controlled HTML.
		Body: template.HTML(body),
	}
	if err := pageTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page shell: %w", err)
	}
	return buf.String(), nil
}
