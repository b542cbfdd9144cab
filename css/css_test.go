package css

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("can't render: %v", err)
	}

	return sb.String()
}

const (
	preload  = `<link rel="preload" as="style" fetchpriority="low" href="/css/carousel.css" onload="this.onload=null;this.rel=&#39;stylesheet&#39;">`
	link     = `<link rel="stylesheet" href="/css/carousel.css">`
	noscript = `<noscript>` + link + `</noscript>`
)

func TestLazy(t *testing.T) {
	for _, tt := range []struct {
		name         string
		omitNoscript bool
		want         string
	}{
		{name: "with_noscript", want: preload + noscript},
		{name: "without_noscript", omitNoscript: true, want: preload},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, Lazy("/css/carousel.css", tt.omitNoscript)); got != tt.want {
				t.Errorf("wanted %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestIfBlock(t *testing.T) {
	used := []string{"text", "carousel", "image"}

	for _, tt := range []struct {
		name      string
		blockType string
		lazy      bool
		want      string
	}{
		{name: "used", blockType: "carousel", want: link},
		{name: "used_lazy", blockType: "carousel", lazy: true, want: preload + noscript},
		{name: "unused", blockType: "gallery", want: ""},
		{name: "unused_lazy", blockType: "gallery", lazy: true, want: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, IfBlock("/css/carousel.css", tt.blockType, used, tt.lazy)); got != tt.want {
				t.Errorf("wanted %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestIfTemplate(t *testing.T) {
	for _, tt := range []struct {
		name      string
		current   string
		templates []string
		lazy      bool
		want      string
	}{
		{name: "single_match", current: "home", templates: []string{"home"}, want: link},
		{name: "one_of_many", current: "article", templates: []string{"home", "article"}, lazy: true, want: preload + noscript},
		{name: "no_match", current: "contact", templates: []string{"home", "article"}, want: ""},
		{name: "no_templates", current: "home", want: ""},
		{name: "case_sensitive", current: "Home", templates: []string{"home"}, want: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, IfTemplate("/css/carousel.css", tt.current, tt.templates, tt.lazy)); got != tt.want {
				t.Errorf("wanted %q, got: %q", tt.want, got)
			}
		})
	}
}
