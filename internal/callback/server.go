package callback

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"benefits-setup/internal/logger"
)

// DefaultRenderWait bounds how long the redirect request waits for the main
// flow to report an Outcome before answering with a generic page.
const DefaultRenderWait = 60 * time.Second

// Outcome is what the confirmation page shows once the code has been used.
type Outcome struct {
	OK       bool
	Title    string
	Details  []string
	Link     string
	LinkText string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:system-ui;text-align:center;padding:40px">
<h1>{{.Title}}</h1>
{{range .Details}}<p>{{.}}</p>
{{end}}{{if .Link}}<p><a href="{{.Link}}">{{.LinkText}}</a></p>
{{end}}</body></html>
`))

// Server is a one-shot HTTP listener for a redirect carrying ?code=.
type Server struct {
	state      string
	result     *Future[Capture]
	outcome    *Future[Outcome]
	renderWait time.Duration
	listener   net.Listener
	srv        *http.Server
}

// Listen binds addr (e.g. "localhost:3456") and serves redirects in the
// background. The first request with a code and a matching state resolves
// result; an empty state disables the check.
func Listen(addr, state string, result *Future[Capture]) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s := &Server{
		state:      state,
		result:     result,
		outcome:    NewFuture[Outcome](),
		renderWait: DefaultRenderWait,
		listener:   ln,
	}
	s.srv = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Debug("[DEBUG] Callback server stopped: %v\n", err)
		}
	}()
	logger.Debug("[DEBUG] Callback server listening on %s\n", ln.Addr())
	return s, nil
}

// Addr is the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL is the redirect target to register with the remote side.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Complete hands the page content to a redirect request that is waiting for it.
func (s *Server) Complete(o Outcome) {
	s.outcome.Resolve(o)
}

// Shutdown stops the listener, letting an in-flight request finish within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}
	if s.state != "" && query.Get("state") != s.state {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}
	if !s.result.Resolve(Capture{Code: code, Source: SourceRedirect}) {
		http.Error(w, "Callback already received", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.renderWait)
	defer cancel()
	outcome, err := s.outcome.Wait(ctx)
	if err != nil {
		outcome = Outcome{OK: true, Title: "Received", Details: []string{"You can close this tab and return to the terminal."}}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !outcome.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if err := pageTemplate.Execute(w, outcome); err != nil {
		logger.Debug("[DEBUG] Render callback page: %v\n", err)
	}
}
