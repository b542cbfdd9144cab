package web

import (
	"github.com/a-h/templ"
)

// StylesheetLink renders <link rel="stylesheet" href="...">.
func StylesheetLink(href string) templ.Component {
	return stylesheetLink(href)
}

// PreloadStylesheet renders a low priority preload that turns itself into a
// stylesheet once loaded.
func PreloadStylesheet(href string) templ.Component {
	return preloadStylesheet(href)
}

// ModuleScript renders <script type="module" src="..."></script>.
func ModuleScript(src string) templ.Component {
	return moduleScript(src)
}

// InlineStyle wraps css in a <style> element. The body is not escaped.
func InlineStyle(css string) templ.Component {
	return templ.Raw("<style>" + css + "</style>")
}

// InlineScript wraps js in a classic <script> element. The body is not escaped.
func InlineScript(js string) templ.Component {
	return templ.Raw("<script>" + js + "</script>")
}

func Noscript(body templ.Component) templ.Component {
	return noscript(body)
}
