package web

//go:generate go tool github.com/a-h/templ/cmd/templ generate
