// Package forumtest runs an in-memory forum for tests. It answers the admin
// API routes the client uses, keeps a little group/user state and records
// every request it sees.
package forumtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// DefaultAPIKey is accepted until SetAPIKey is called.
const DefaultAPIKey = "test-key"

const formKey = "forumtest.form"

// Recorded is one request as the server received it.
type Recorded struct {
	Method string
	Path   string
	// RawPath is the path as sent, before percent-decoding.
	RawPath string
	Query   url.Values
	// Form is the decoded body of write requests.
	Form        url.Values
	Body        string
	ContentType string
}

type User struct {
	ID       int64
	Username string
	Email    string
}

type stub struct {
	status int
	body   string
}

// Server is a fake forum. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	apiKey    string
	requests  []Recorded
	stubs     map[string]stub
	groups    map[string]int64
	members   map[int64][]string
	users     map[string]User
	challenge string
	value     string
	nextID    int64
}

// NewServer starts a server that is closed when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		apiKey:    DefaultAPIKey,
		stubs:     map[string]stub{},
		groups:    map[string]int64{},
		members:   map[int64][]string{},
		users:     map[string]User{},
		challenge: "abcd",
		value:     "v1",
		nextID:    100,
	}
	s.Server = httptest.NewServer(s.engine())
	tb.Cleanup(s.Close)
	return s
}

// Host returns host:port, the form the client is configured with.
func (s *Server) Host() string {
	u, _ := url.Parse(s.URL)
	return u.Host
}

// SetAPIKey changes the accepted api_key.
func (s *Server) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// Stub answers method+path with a fixed status and body, bypassing routes.
func (s *Server) Stub(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[method+" "+path] = stub{status: status, body: body}
}

// AddGroup seeds a group.
func (s *Server) AddGroup(name string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[name] = id
}

// AddUser seeds a user.
func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = u
}

// SetChallenge sets the honeypot pair served at /users/hp.json.
func (s *Server) SetChallenge(challenge, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenge, s.value = challenge, value
}

// HasGroup reports whether the group exists.
func (s *Server) HasGroup(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[name]
	return ok
}

// Members returns the usernames in a group.
func (s *Server) Members(id int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.members[id]...)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Last returns the most recent request. ok is false when there is none.
func (s *Server) Last() (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Count returns how many requests used method.
func (s *Server) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) engine() *gin.Engine {
	r := gin.New()
	r.Use(s.record, s.stubbed, s.auth)

	r.GET("/groups.json", s.listGroups)
	r.GET("/groups/:name", s.getGroup)
	r.GET("/groups/:name/members.json", s.listMembers)
	r.PUT("/groups/:name/members.json", s.joinGroup)
	r.DELETE("/groups/:name/members.json", s.leaveGroup)
	r.POST("/admin/groups", s.createGroup)
	r.DELETE("/admin/groups/:id", s.deleteGroup)

	r.GET("/users/hp.json", s.honeypot)
	r.GET("/users/:name", s.getUser)
	r.POST("/users", s.createUser)
	r.GET("/admin/users/list/active.json", s.activeUsers)
	r.POST("/admin/users/:id/log_out", success)
	r.PUT("/admin/users/:id/activate", success)

	// Everything else succeeds and echoes the path.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": "OK", "path": c.Request.URL.Path})
	})
	return r
}

func (s *Server) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	form, _ := url.ParseQuery(string(body))
	c.Set(formKey, form)

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		RawPath:     c.Request.URL.EscapedPath(),
		Query:       c.Request.URL.Query(),
		Form:        form,
		Body:        string(body),
		ContentType: c.GetHeader("Content-Type"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) stubbed(c *gin.Context) {
	s.mu.Lock()
	st, found := s.stubs[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if !found {
		c.Next()
		return
	}
	c.Data(st.status, contentTypeFor(st.body), []byte(st.body))
	c.Abort()
}

func (s *Server) auth(c *gin.Context) {
	s.mu.Lock()
	key := s.apiKey
	s.mu.Unlock()
	if c.Query("api_key") != key || c.Query("api_username") == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"errors": []string{"You are not permitted to view the requested resource."}})
		return
	}
	c.Next()
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": "OK"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"errors": []string{"The requested URL or resource could not be found."}, "error_type": "not_found"})
}

func (s *Server) listGroups(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.groups))
	for n := range s.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]gin.H, 0, len(names))
	for _, n := range names {
		out = append(out, gin.H{"id": s.groups[n], "name": n})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (s *Server) getGroup(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".json")
	s.mu.Lock()
	id, found := s.groups[name]
	s.mu.Unlock()
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": gin.H{"id": id, "name": name}})
}

func (s *Server) listMembers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, found := s.groups[c.Param("name")]
	if !found {
		notFound(c)
		return
	}
	members := make([]gin.H, 0)
	for _, u := range s.members[id] {
		members = append(members, gin.H{"username": u})
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) groupByID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("name"), 10, 64)
	if err != nil {
		return 0, false
	}
	for _, gid := range s.groups {
		if gid == id {
			return id, true
		}
	}
	return 0, false
}

func (s *Server) joinGroup(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, found := s.groupByID(c)
	if !found {
		notFound(c)
		return
	}
	var added []string
	for _, u := range strings.Split(formValue(c, "usernames"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			s.members[id] = append(s.members[id], u)
			added = append(added, u)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": "OK", "usernames": added})
}

func (s *Server) leaveGroup(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, found := s.groupByID(c)
	if !found {
		notFound(c)
		return
	}
	uid, _ := strconv.ParseInt(formValue(c, "user_id"), 10, 64)
	kept := s.members[id][:0]
	for _, name := range s.members[id] {
		if s.users[name].ID != uid {
			kept = append(kept, name)
		}
	}
	s.members[id] = kept
	c.JSON(http.StatusOK, gin.H{"success": "OK"})
}

func (s *Server) createGroup(c *gin.Context) {
	name := formValue(c, "group[name]")
	if name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"Name can't be blank"}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[name]; exists {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"Name has already been taken"}})
		return
	}
	s.nextID++
	id := s.nextID
	s.groups[name] = id
	for _, u := range strings.Split(formValue(c, "group[usernames]"), ",") {
		if u != "" {
			s.members[id] = append(s.members[id], u)
		}
	}
	c.JSON(http.StatusOK, gin.H{"basic_group": gin.H{"id": id, "name": name}})
}

func (s *Server) deleteGroup(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, gid := range s.groups {
		if gid == id {
			delete(s.groups, name)
			delete(s.members, id)
			c.JSON(http.StatusOK, gin.H{"success": "OK"})
			return
		}
	}
	notFound(c)
}

func (s *Server) honeypot(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"challenge": s.challenge, "value": s.value})
}

func (s *Server) getUser(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".json")
	s.mu.Lock()
	u, found := s.users[name]
	s.mu.Unlock()
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": u.ID, "username": u.Username}})
}

func (s *Server) createUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if formValue(c, "challenge") != reverse(s.challenge) || formValue(c, "password_confirmation") != s.value {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "honeypot mismatch"})
		return
	}
	s.nextID++
	u := User{ID: s.nextID, Username: formValue(c, "username"), Email: formValue(c, "email")}
	s.users[u.Username] = u
	c.JSON(http.StatusOK, gin.H{"success": true, "active": false, "user_id": u.ID})
}

func (s *Server) activeUsers(c *gin.Context) {
	filter := strings.ToLower(c.Query("filter"))
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if filter == "" || strings.Contains(strings.ToLower(u.Email), filter) || strings.Contains(strings.ToLower(u.Username), filter) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
	}
	c.JSON(http.StatusOK, out)
}

// formValue reads the recorded body. net/http does not parse DELETE bodies.
func formValue(c *gin.Context, key string) string {
	v, _ := c.Get(formKey)
	form, _ := v.(url.Values)
	return form.Get(key)
}

func contentTypeFor(body string) string {
	t := strings.TrimSpace(body)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return "application/json; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
