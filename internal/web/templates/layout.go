package templates

import "github.com/a-h/templ"

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{background:#1f2933;color:#fff;padding:1rem 2rem}
header h1{margin:0;font-size:1.4rem}
main{padding:1.5rem 2rem}
nav.tabs a{display:inline-block;padding:.5rem 1rem;margin-right:.25rem;border-radius:4px 4px 0 0;background:#e4e7eb;color:#1f2933;text-decoration:none}
nav.tabs a.active{background:#fff;font-weight:600}
section.panel{background:#fff;border-radius:6px;padding:1rem;margin-bottom:1.5rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
table{border-collapse:collapse;width:100%}
th,td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb;text-align:left;font-size:.9rem}
th a{color:inherit}
.placeholder{color:#7b8794;font-style:italic}
.alert{border-radius:4px;padding:.75rem 1rem;margin-bottom:1rem}
.alert-error{background:#fde8e8;color:#9b1c1c}
.alert-warn{background:#fdf6b2;color:#723b13}
.alert-info{background:#e1effe;color:#1e429f}
.insights{display:flex;gap:1rem;flex-wrap:wrap}
.insights div{background:#fff;border-radius:6px;padding:.75rem 1rem;min-width:10rem}
.insights strong{display:block;font-size:1.3rem}
.pager{margin-top:.5rem;display:flex;gap:1rem;align-items:center}
img.chart{max-width:100%}
`

// Layout wraps body in the page shell. A positive refresh reloads the page
// every refresh seconds.
func Layout(title string, refresh int, body templ.Component) templ.Component {
	return render(func(h *writer) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		if refresh > 0 {
			h.raw(`<meta http-equiv="refresh" content="`, itoa(refresh), `">`)
		}
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><style>`, styles, `</style></head><body>`)
		h.raw(`<header><h1>`)
		h.text(title)
		h.raw(`</h1></header><main>`)
		h.component(body)
		h.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return render(func(h *writer) {
		h.raw(`<div class="alert alert-error" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		if code != "" {
			h.raw(` <small>(Code: `)
			h.text(code)
			h.raw(`)</small>`)
		}
		h.raw(`</div>`)
	})
}
