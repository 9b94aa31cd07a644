// Package registrytest runs an in-process imitation of the registry website for tests.
package registrytest

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	loginToken    = "login-token"
	searchToken   = "search-token"
	sessionCookie = "registry_session"
	sessionValue  = "ok"
	logoutMarker  = "ログアウト"
)

// Member is one row of a team's member table.
type Member struct {
	MemberID  string
	Name      string
	BirthDate string
	Number    string
	Role      string
}

// Team is a registered team.
type Team struct {
	ID      string
	Name    string
	Gender  string
	Year    int
	Members []Member
}

// Server imitates the login, team search and team detail screens.
type Server struct {
	s *httptest.Server

	mu            sync.Mutex
	email         string
	password      string
	organization  string
	teams         []Team
	failNext      int
	failStatus    int
	delay         time.Duration
	brokenDetail  bool
	requests      map[string]int
	searchPayload string
}

// NewServer starts a registry accepting the given login.
func NewServer(email, password, organization string) *Server {
	f := &Server{
		email:        email,
		password:     password,
		organization: organization,
		requests:     map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(f.inject)
	r.Get("/login", f.loginPage)
	r.Post("/login/done", f.loginDone)
	r.Route("/organization/{org}/team", func(r chi.Router) {
		r.Use(f.requireSession)
		r.Get("/search", f.searchPage)
		r.Post("/search", f.search)
		r.Get("/{teamID}/detail", f.detail)
	})

	f.s = httptest.NewServer(r)
	return f
}

// Close shuts the server down.
func (f *Server) Close() {
	f.s.Close()
}

// URL returns the base URL.
func (f *Server) URL() string {
	return f.s.URL
}

// AddTeam registers a team.
func (f *Server) AddTeam(t Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams = append(f.teams, t)
}

// FailNext makes the next n requests answer with status.
func (f *Server) FailNext(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext, f.failStatus = n, status
}

// SetDelay delays every response.
func (f *Server) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// BreakDetailMarkup removes the member table header from team pages.
func (f *Server) BreakDetailMarkup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brokenDetail = true
}

// Requests returns how many requests reached path pattern key, e.g. "POST /login/done".
func (f *Server) Requests(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

// LastSearch returns the raw "request" form value of the last team search.
func (f *Server) LastSearch() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchPayload
}

func (f *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.Method+" "+r.URL.Path]++
		delay := f.delay
		fail := f.failNext > 0
		status := f.failStatus
		if fail {
			f.failNext--
		}
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value != sessionValue {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if chi.URLParam(r, "org") != f.organization {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Server) loginPage(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, `<html><body><form action="/login/done" method="post">
<input type="hidden" name="_token" value="%s">
<input name="login_id"><input name="password" type="password">
</form></body></html>`, loginToken)
}

func (f *Server) loginDone(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("_token") != loginToken ||
		r.PostForm.Get("login_id") != f.email ||
		r.PostForm.Get("password") != f.password {
		fmt.Fprint(w, `<html><body><p>ログインIDまたはパスワードが違います</p></body></html>`)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sessionValue, Path: "/"})
	fmt.Fprintf(w, `<html><body><a href="/logout">%s</a></body></html>`, logoutMarker)
}

func (f *Server) searchPage(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, `<html><body><a href="/logout">%s</a><form><input type="hidden" name="_token" value="%s"></form></body></html>`,
		logoutMarker, searchToken)
}

type condition struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (f *Server) search(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-CSRF-Token") != searchToken {
		w.WriteHeader(419)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	raw := r.PostForm.Get("request")

	var req struct {
		Search []condition `json:"search"`
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var year, name string
	for _, c := range req.Search {
		switch c.Field {
		case "fiscal_year":
			year = fmt.Sprint(c.Value)
		case "team_name":
			name = fmt.Sprint(c.Value)
		}
	}

	f.mu.Lock()
	f.searchPayload = raw
	var records []map[string]any
	for _, t := range f.teams {
		if fmt.Sprint(t.Year) == year && strings.Contains(t.Name, name) {
			records = append(records, map[string]any{
				"id":             json.Number(t.ID),
				"team_name":      t.Name,
				"team_gender_id": t.Gender,
			})
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"total":   len(records),
		"records": records,
	})
}

var detailTemplate = template.Must(template.New("detail").Parse(`<html><head><title>{{.Team.Name}}</title></head><body>
<table><tr><th>チーム名</th><td>{{.Team.Name}}</td></tr></table>
<table>
<tr>{{if .Broken}}<th>ID</th><th>名前</th><th>生年</th>{{else}}<th>メンバーID</th><th>氏名</th><th>生年月日</th><th>背番号</th><th>役職</th>{{end}}</tr>
{{range .Team.Members}}<tr><td>{{.MemberID}}</td><td>{{.Name}}</td><td>{{.BirthDate}}</td><td>{{.Number}}</td><td>{{.Role}}</td></tr>
{{end}}</table></body></html>`))

func (f *Server) detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "teamID")

	f.mu.Lock()
	broken := f.brokenDetail
	var team *Team
	for i := range f.teams {
		if f.teams[i].ID == id {
			team = &f.teams[i]
			break
		}
	}
	f.mu.Unlock()

	if team == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = detailTemplate.Execute(w, struct {
		Team   *Team
		Broken bool
	}{team, broken})
}
