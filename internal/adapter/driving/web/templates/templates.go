// Package templates holds the page components. Markup lives in embedded
// html/template files and is exposed as templ components so handlers compose
// and render pages the same way regardless of how a component is authored.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/reviewchecker/internal/adapter/driving/web/viewmodel"
)

//go:embed *.gohtml
var files embed.FS

var pages = template.Must(template.New("pages").ParseFS(files, "*.gohtml"))

type layoutData struct {
	vm.LayoutViewModel
	Content template.HTML
}

// Layout wraps content in the full HTML document.
func Layout(layout vm.LayoutViewModel, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		inner, err := templ.ToGoHTML(ctx, content)
		if err != nil {
			return err
		}
		return pages.ExecuteTemplate(w, "layout", layoutData{LayoutViewModel: layout, Content: inner})
	})
}

// PRList renders the pull request list with its filter bars.
func PRList(data vm.PRListViewModel) templ.Component {
	return templ.FromGoHTML(pages.Lookup("pr_list"), data)
}

// PRDetail renders a pull request's comments and commits tabs.
func PRDetail(data vm.PRDetailViewModel) templ.Component {
	return templ.FromGoHTML(pages.Lookup("pr_detail"), data)
}

// ErrorPage renders an error title and message.
func ErrorPage(data vm.ErrorViewModel) templ.Component {
	return templ.FromGoHTML(pages.Lookup("error"), data)
}
