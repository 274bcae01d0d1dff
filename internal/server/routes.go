package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// RouterOptions holds the handlers and settings mounted by [NewRouter].
type RouterOptions struct {
	Flow         Authorizer
	Pipeline     Pipeline
	StaticDir    string
	SecureCookie bool
	Logger       *log.Logger
}

// NewRouter mounts the authorization and discovery endpoints plus static files, behind logging and panic recovery.
func NewRouter(opts RouterOptions) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Logging(opts.Logger), Recover(opts.Logger))

	r.Handler(NewAuthHandler(opts.Flow, opts.SecureCookie, opts.Logger))
	r.Handler(NewRelatedHandler(opts.Pipeline, opts.Logger))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	if r.Static(opts.StaticDir) {
		opts.Logger.Debug("serving static files", "dir", opts.StaticDir)
	}
	return r
}
