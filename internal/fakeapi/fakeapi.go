// Package fakeapi is an in-memory stand-in for the admin backend, used by
// tests. It speaks the same REST contract: resource CRUD behind bearer auth
// plus the cookie based auth endpoints.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

const (
	requestIDHeader = "X-Request-Id"
	refreshCookie   = "refreshToken"
)

var resources = []string{
	client.ProvincePath,
	client.CityPath,
	client.CompanyPath,
	client.RoutePath,
	client.RolePath,
	client.UserPath,
}

// multipart values that are decoded as numbers.
var numericFields = map[string]bool{"id": true, "rating": true}

type account struct {
	user     domain.User
	password string
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	engine *gin.Engine
	secret []byte

	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration

	mu         sync.Mutex
	nextID     int64
	records    map[string][]map[string]any
	accounts   map[string]account // by email
	sessions   map[string]string  // refresh cookie -> email
	valid      map[string]bool    // live access tokens
	failLogout bool
	gate       chan struct{}
	entered    chan struct{}

	requests  int
	refreshes int
	hits      map[string]int // "METHOD /path" -> count
}

// New returns an empty backend.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:   []byte(uuid.NewString()),
		TokenTTL: time.Hour,
		nextID:   1,
		records:  make(map[string][]map[string]any),
		accounts: make(map[string]account),
		sessions: make(map[string]string),
		valid:    make(map[string]bool),
		hits:     make(map[string]int),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.count())

	auth := r.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)
	auth.POST("/logout", s.logout)
	auth.GET("/refresh", s.refresh)
	auth.GET("/check", s.check)

	api := r.Group("/", s.authorize())
	for _, path := range resources {
		api.GET(path, s.list(path))
		api.POST(path, s.create(path))
		api.PUT(path+"/:id", s.update(path))
		api.DELETE(path+"/:id", s.remove(path))
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler to mount in an httptest server.
func (s *Server) Handler() http.Handler { return s.engine }

// AddAccount registers a user that can log in.
func (s *Server) AddAccount(email, name, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(email, name, password)
}

// Seed stores records under resource (a client path such as client.CityPath).
// Records with an id <= 0 get the next free id.
func (s *Server) Seed(resource string, items ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		rec := toRecord(it)
		if id := recordID(rec); id <= 0 {
			rec["id"] = s.nextID
			s.nextID++
		} else if id >= s.nextID {
			s.nextID = id + 1
		}
		s.records[resource] = append(s.records[resource], rec)
	}
}

// Token issues a valid access token for email without a login round trip.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.issueLocked(email)
	if err != nil {
		panic(err)
	}
	return tok
}

// ExpireTokens revokes every access token. Refresh cookies stay valid.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = make(map[string]bool)
}

// EndSessions revokes every refresh cookie.
func (s *Server) EndSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// FailLogout makes /auth/logout answer 500.
func (s *Server) FailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// BlockRefresh holds every /auth/refresh call until release is called.
// entered receives a value each time a refresh call arrives.
func (s *Server) BlockRefresh() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 64)
	gate := s.gate
	var once sync.Once
	return s.entered, func() { once.Do(func() { close(gate) }) }
}

// Requests returns the number of requests served.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Refreshes returns the number of /auth/refresh calls served.
func (s *Server) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// Hits returns how often the route "METHOD /pattern" was called,
// e.g. Hits("PUT /city/:id").
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Records returns a copy of the stored records of resource.
func (s *Server) Records(resource string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.records[resource]))
	for i, rec := range s.records[resource] {
		out[i] = cloneRecord(rec)
	}
	return out
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func (s *Server) count() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests++
		s.hits[c.Request.Method+" "+c.FullPath()]++
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}
		tok := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		s.mu.Lock()
		live := s.valid[tok]
		s.mu.Unlock()
		if err != nil || !live {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		c.Next()
	}
}

func (s *Server) list(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Records(resource))
	}
}

func (s *Server) create(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := bind(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		now := time.Now().UTC()

		s.mu.Lock()
		rec["id"] = s.nextID
		s.nextID++
		rec["createdAt"] = now
		rec["updatedAt"] = now
		delete(rec, "password")
		s.records[resource] = append(s.records[resource], rec)
		out := cloneRecord(rec)
		s.mu.Unlock()

		c.JSON(http.StatusCreated, out)
	}
}

func (s *Server) update(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		patch, err := bind(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.indexLocked(resource, id)
		if i < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rec := s.records[resource][i]
		for k, v := range patch {
			switch k {
			case "id", "createdAt", "password":
				continue
			}
			rec[k] = v
		}
		rec["updatedAt"] = time.Now().UTC()
		c.JSON(http.StatusOK, cloneRecord(rec))
	}
}

func (s *Server) remove(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.indexLocked(resource, id)
		if i < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		recs := s.records[resource]
		s.records[resource] = append(recs[:i:i], recs[i+1:]...)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) login(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid_credentials"})
		return
	}
	s.startSessionLocked(c, acct.user)
}

func (s *Server) register(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		return
	}
	user := s.addAccountLocked(req.Email, req.Name, req.Password)
	s.startSessionLocked(c, user)
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogout {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout_failed"})
		return
	}
	if sid, err := c.Cookie(refreshCookie); err == nil {
		delete(s.sessions, sid)
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) refresh(c *gin.Context) {
	s.mu.Lock()
	s.refreshes++
	gate, entered := s.gate, s.entered
	s.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-gate
	}

	sid, err := c.Cookie(refreshCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_refresh_token"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[sid]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}
	tok, err := s.issueLocked(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, domain.AuthResponse{Token: tok, User: s.accounts[email].user})
}

func (s *Server) check(c *gin.Context) {
	s.mu.Lock()
	acct, ok := s.accounts[c.Query("email")]
	s.mu.Unlock()
	if !ok {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, acct.user)
}

func (s *Server) startSessionLocked(c *gin.Context, user domain.User) {
	tok, err := s.issueLocked(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sid := uuid.NewString()
	s.sessions[sid] = user.Email
	c.SetCookie(refreshCookie, sid, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, domain.AuthResponse{Token: tok, User: user})
}

func (s *Server) issueLocked(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	s.valid[signed] = true
	return signed, nil
}

func (s *Server) addAccountLocked(email, name, password string) domain.User {
	now := time.Now().UTC()
	user := domain.User{
		ID:        s.nextID,
		Name:      name,
		Email:     email,
		RoleID:    domain.UnsavedID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.accounts[email] = account{user: user, password: password}
	s.records[client.UserPath] = append(s.records[client.UserPath], toRecord(user))
	return user
}

func (s *Server) indexLocked(resource string, id int64) int {
	for i, rec := range s.records[resource] {
		if recordID(rec) == id {
			return i
		}
	}
	return -1
}

// bind reads a JSON or multipart body into a record. An uploaded "files"
// part is stored as the logo file name.
func bind(c *gin.Context) (map[string]any, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		rec := make(map[string]any, len(form.Value))
		for k, vs := range form.Value {
			if len(vs) == 0 {
				continue
			}
			if numericFields[k] {
				if f, err := strconv.ParseFloat(vs[0], 64); err == nil {
					rec[k] = f
					continue
				}
			}
			rec[k] = vs[0]
		}
		if files := form.File["files"]; len(files) > 0 {
			rec["logo"] = files[0].Filename
		}
		return rec, nil
	}

	var rec map[string]any
	if err := c.ShouldBindJSON(&rec); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return rec, nil
}

func toRecord(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		panic(err)
	}
	return rec
}

func recordID(rec map[string]any) int64 {
	switch id := rec["id"].(type) {
	case float64:
		return int64(id)
	case int64:
		return id
	case int:
		return int64(id)
	}
	return 0
}

func cloneRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
