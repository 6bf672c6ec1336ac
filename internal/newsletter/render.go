package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

const htmlDocument = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Daily News Digest - {{.Date}}</title>
    <style>
        body {
            font-family: Georgia, serif;
            line-height: 1.6;
            color: #333;
            margin: 0 auto;
            max-width: 700px;
            padding: 20px;
        }
        .header {
            background: #2b6cb0;
            color: white;
            padding: 25px;
            text-align: center;
            border-radius: 8px;
            margin-bottom: 25px;
        }
        .category {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 25px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .article-title {
            font-weight: bold;
            font-size: 18px;
            margin-bottom: 6px;
        }
        .source {
            color: #777;
            font-size: 14px;
            margin-bottom: 6px;
        }
        .read-more {
            font-weight: bold;
            color: #2b6cb0;
            text-decoration: none;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Daily News Digest</h1>
        <div class="date">{{.Date}}</div>
    </div>
{{range .Sections}}    <div class="category">
        <h2>{{.Title}}</h2>
{{range .Articles}}        <div class="article">
            <div class="article-title">{{.Title}}</div>
            <div class="source">Source: {{.Source}}</div>
            <div>{{breaklines .Digest}}</div>
            <a class="read-more" href="{{.Link}}">Read full article</a>
        </div>
{{end}}    </div>
{{end}}</body>
</html>
`

const textDocument = `
Daily News Digest
{{.Date}}

A curated selection of noteworthy news from around the world.

{{range .Sections}}
{{.Title}}

{{range .Articles}}{{.Title}}
Source: {{.Source}}

{{.Digest}}

Read more: {{.Link}}

{{end}}{{end}}
Thank you for reading the Daily News Digest.
To unsubscribe, reply with "UNSUBSCRIBE".
`

var htmlTmpl = template.Must(template.New("html").Funcs(template.FuncMap{
	"breaklines": breakLines,
}).Parse(htmlDocument))

var textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textDocument))

type document struct {
	Date     string
	Sections []Section
}

// breakLines escapes each digest line and joins them with <br> tags
func breakLines(s string) template.HTML {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

func renderHTML(date string, sections []Section) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, document{Date: date, Sections: sections}); err != nil {
		return "", fmt.Errorf("executing HTML template: %w", err)
	}
	return buf.String(), nil
}

func renderText(date string, sections []Section) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, document{Date: date, Sections: sections}); err != nil {
		return "", fmt.Errorf("executing text template: %w", err)
	}
	return buf.String(), nil
}
