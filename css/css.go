// Package css emits stylesheet tags lazily or only when the page needs them.
//
// Hrefs are used as given. With a Vite build, pass the result of
// (*vite.ManifestResolver).URL so the link follows the build mode.
package css

import (
	"slices"

	"github.com/a-h/templ"

	"github.com/timnarr/assetkit/web"
)

// Lazy loads the stylesheet at href without blocking rendering. Unless
// omitNoscript is set, a plain <link> inside <noscript> covers browsers with
// JavaScript disabled.
func Lazy(href string, omitNoscript bool) templ.Component {
	if omitNoscript {
		return web.PreloadStylesheet(href)
	}

	return templ.Join(
		web.PreloadStylesheet(href),
		web.Noscript(web.StylesheetLink(href)),
	)
}

// IfBlock loads href only if blockType is one of usedBlockTypes.
func IfBlock(href, blockType string, usedBlockTypes []string, lazy bool) templ.Component {
	if !slices.Contains(usedBlockTypes, blockType) {
		return templ.NopComponent
	}

	return load(href, lazy)
}

// IfTemplate loads href only if current is one of templates.
func IfTemplate(href, current string, templates []string, lazy bool) templ.Component {
	if !slices.Contains(templates, current) {
		return templ.NopComponent
	}

	return load(href, lazy)
}

func load(href string, lazy bool) templ.Component {
	if lazy {
		return Lazy(href, false)
	}

	return web.StylesheetLink(href)
}
