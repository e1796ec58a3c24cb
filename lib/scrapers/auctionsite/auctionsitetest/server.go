// Package auctionsitetest provides an in-process imitation of the auction
// site that can be driven by tests of anything that logs into it.
package auctionsitetest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// LoginSignal selects how the fake site reports a successful login.
type LoginSignal int

const (
	// SignalBoth answers with a json success status and sets the session cookie.
	SignalBoth LoginSignal = iota
	// SignalJSON only answers with a json success status, the session is
	// kept in a cookie with a different name.
	SignalJSON
	// SignalCookie only sets the session cookie.
	SignalCookie
)

const sessionCookie = "sessiontoken"
const altSessionCookie = "rwd_session"

const LoginPage = `<!DOCTYPE html>
<html ng-app="rwd">
<head><title>Login</title></head>
<body>
	<form name="loginForm">
		<input type="text" name="user_name">
		<input type="password" name="password">
	</form>
</body>
</html>`

type Options struct {
	Username string
	Password string
	Signal   LoginSignal
	// FailBootstrap makes every pre-login page answer with a 500.
	FailBootstrap bool
	// LoginStatus overrides the status code of the login endpoint.
	LoginStatus int
	// Statements maps a request path to the markup served there for an
	// initialized session.
	Statements map[string]string
}

type session struct {
	initdata bool
	auctions bool
}

// Server is a fake auction site listening on a local port.
type Server struct {
	*httptest.Server

	opts     Options
	mu       sync.Mutex
	requests []string
	sessions map[string]*session
}

func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		sessions: map[string]*session{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLoginPage)
	mux.HandleFunc("/api/cookies", s.handleBootstrap)
	mux.HandleFunc("/api/getsession", s.handleBootstrap)
	mux.HandleFunc("/api/setrequesturl", s.handleBootstrap)
	mux.HandleFunc("/api/ajaxlogin", s.handleLogin)
	mux.HandleFunc("/api/initdata", s.handleInit)
	mux.HandleFunc("/api/auctions", s.handleInit)
	mux.HandleFunc("/", s.handleStatement)

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests returns every request received so far as "METHOD /path".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Requested reports how many times "METHOD /path" was requested.
func (s *Server) Requested(request string) int {
	count := 0
	for _, r := range s.Requests() {
		if r == request {
			count++
		}
	}
	return count
}

// ExpireSessions forgets every session, as the real site does once a
// session times out.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]*session{}
}

func randomToken() string {
	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func (s *Server) session(r *http.Request) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{sessionCookie, altSessionCookie} {
		cookie, err := r.Cookie(name)
		if err != nil {
			continue
		}
		sess, ok := s.sessions[cookie.Value]
		if ok {
			return sess, true
		}
	}
	return nil, false
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.opts.FailBootstrap {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: randomToken(), Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, LoginPage)
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if s.opts.FailBootstrap {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.opts.LoginStatus != 0 {
		w.WriteHeader(s.opts.LoginStatus)
		return
	}
	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("user_name") != s.opts.Username || r.PostForm.Get("password") != s.opts.Password {
		fmt.Fprint(w, `{"status":"error","msg":"Invalid username or password."}`)
		return
	}

	token := randomToken()
	s.mu.Lock()
	s.sessions[token] = &session{}
	s.mu.Unlock()

	switch s.opts.Signal {
	case SignalJSON:
		http.SetCookie(w, &http.Cookie{Name: altSessionCookie, Value: token, Path: "/"})
		fmt.Fprint(w, `{"status":"success"}`)
	case SignalCookie:
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
		fmt.Fprint(w, `{"redirect":"/"}`)
	default:
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
		fmt.Fprint(w, `{"status":"success"}`)
	}
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.mu.Lock()
	switch r.URL.Path {
	case "/api/initdata":
		sess.initdata = true
	case "/api/auctions":
		sess.auctions = true
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	markup, ok := s.opts.Statements[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	sess, ok := s.session(r)
	s.mu.Lock()
	ready := ok && sess.initdata && sess.auctions
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html")
	if !ready {
		fmt.Fprint(w, LoginPage)
		return
	}
	fmt.Fprint(w, markup)
}
