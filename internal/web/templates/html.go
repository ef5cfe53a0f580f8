// Package templates renders the HTML pages of the dashboard as templ
// components.
package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// writer collects the first write error so components can emit markup
// without checking every call.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *writer) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s escaped for element content and attribute values.
func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *writer) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func render(fn func(h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// link builds path?query with the given key/value pairs. Empty values are
// dropped.
func link(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func itoa(n int) string { return strconv.Itoa(n) }
