package emit

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// Media types used to select a minifier
const (
	mediaJS   = "application/javascript"
	mediaCSS  = "text/css"
	mediaHTML = "text/html"
)

var jsMediaRe = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// newMinifier registers the minifiers kiln applies. Comments are dropped.
func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaHTML, html.Minify)
	m.AddFuncRegexp(jsMediaRe, js.Minify)
	return m
}
