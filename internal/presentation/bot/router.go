package botpresentation

import (
	"context"
	"sort"
	"strings"
)

type HandlerFunc func(ctx context.Context, u Update) error

type Middleware func(route string, next HandlerFunc) HandlerFunc

type prefixRoute struct {
	prefix string
	h      HandlerFunc
}

// Router resolves an update to a handler by command name, exact callback
// data, or callback prefix. Longer prefixes win.
type Router struct {
	commands  map[string]HandlerFunc
	callbacks map[string]HandlerFunc
	prefixes  []prefixRoute
	fallback  HandlerFunc
}

func NewRouter() *Router {
	return &Router{
		commands:  make(map[string]HandlerFunc),
		callbacks: make(map[string]HandlerFunc),
	}
}

func (r *Router) Command(name string, h HandlerFunc, mw ...Middleware) {
	r.commands[name] = chain("/"+name, h, mw)
}

func (r *Router) Callback(data string, h HandlerFunc, mw ...Middleware) {
	r.callbacks[data] = chain(data, h, mw)
}

func (r *Router) CallbackPrefix(prefix string, h HandlerFunc, mw ...Middleware) {
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, h: chain(prefix+"*", h, mw)})
	sort.SliceStable(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})
}

// Messages handles non-command photo and text updates.
func (r *Router) Messages(h HandlerFunc) {
	r.fallback = h
}

// Resolve returns the route label and handler for u, or nil when nothing matches.
func (r *Router) Resolve(u Update) (string, HandlerFunc) {
	switch u.Kind {
	case KindCommand:
		if h, ok := r.commands[u.Command]; ok {
			return "/" + u.Command, h
		}
		return "/unknown", nil
	case KindCallback:
		if h, ok := r.callbacks[u.Data]; ok {
			return u.Data, h
		}
		for _, p := range r.prefixes {
			if strings.HasPrefix(u.Data, p.prefix) {
				return p.prefix + "*", p.h
			}
		}
		return "callback:unknown", nil
	default:
		return string(u.Kind), r.fallback
	}
}

func chain(route string, h HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](route, h)
	}
	return h
}
