package emit

import (
	"bytes"
	"html/template"
	"strings"
)

var builtinTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
</body>
</html>
`))

func renderBuiltinHTML(title string) ([]byte, error) {
	var buf bytes.Buffer
	if err := builtinTemplate.Execute(&buf, struct{ Title string }{title}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// injectTags inserts stylesheet links before </head> and scripts before
// </body>. A document missing either tag gets the tags appended.
func injectTags(doc []byte, styles, scripts []string) []byte {
	var links, tags strings.Builder
	for _, href := range styles {
		links.WriteString(`<link rel="stylesheet" href="` + template.HTMLEscapeString(href) + `">` + "\n")
	}
	for _, src := range scripts {
		tags.WriteString(`<script src="` + template.HTMLEscapeString(src) + `"></script>` + "\n")
	}

	out := insertBefore(string(doc), "</head>", links.String())
	out = insertBefore(out, "</body>", tags.String())
	return []byte(out)
}

// insertBefore inserts s before the last case-insensitive occurrence of
// tag, or appends it
func insertBefore(doc, tag, s string) string {
	if s == "" {
		return doc
	}
	i := strings.LastIndex(strings.ToLower(doc), tag)
	if i < 0 {
		return doc + s
	}
	return doc[:i] + s + doc[i:]
}
