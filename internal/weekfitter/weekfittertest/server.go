// Package weekfittertest runs an in-process fake of the weekfitter backend for
// client and store tests.
package weekfittertest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const (
	RouteListEvents  = "GET /api/events"
	RouteCreateEvent = "POST /api/events"
	RouteUpdateEvent = "PUT /api/events/:id"
	RouteDeleteEvent = "DELETE /api/events/:id"
	RouteUpload      = "POST /api/files/upload"
	RouteLogin       = "POST /api/users/login"
	RouteRegister    = "POST /api/users/register"
	RouteGetProfile  = "GET /api/users/profile"
	RoutePutProfile  = "PUT /api/users/profile"
	RouteUploadPhoto = "POST /api/users/upload-photo"
	RouteForgot      = "POST /api/users/forgot-password"
	RouteReset       = "POST /api/users/reset-password"
)

// Secret signs the tokens the fake hands out on login.
const Secret = "weekfitter-test-secret"

type Call struct {
	Route  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

type storedEvent struct {
	owner  string
	record planner.Record
	raw    json.RawMessage
}

type account struct {
	password string
	profile  Profile
}

type Server struct {
	URL string

	server *httptest.Server

	mu          sync.Mutex
	events      []storedEvent
	nextID      int
	uploads     map[string][]byte
	accounts    map[string]*account
	resetTokens map[string]string
	failures    map[string]int
	calls       []Call
}

func New(tb testing.TB) *Server {
	tb.Helper()

	gin.SetMode(gin.TestMode)
	s := &Server{
		uploads:     make(map[string][]byte),
		accounts:    make(map[string]*account),
		resetTokens: make(map[string]string),
		failures:    make(map[string]int),
	}

	router := gin.New()
	router.Use(s.intercept)

	events := router.Group("/api/events")
	events.GET("", s.listEvents)
	events.POST("", s.createEvent)
	events.PUT("/:id", s.updateEvent)
	events.DELETE("/:id", s.deleteEvent)

	router.POST("/api/files/upload", s.uploadFile)

	users := router.Group("/api/users")
	users.POST("/login", s.login)
	users.POST("/register", s.register)
	users.GET("/profile", s.getProfile)
	users.PUT("/profile", s.putProfile)
	users.POST("/upload-photo", s.uploadPhoto)
	users.POST("/forgot-password", s.forgotPassword)
	users.POST("/reset-password", s.resetPassword)

	s.server = httptest.NewServer(router)
	s.URL = s.server.URL
	tb.Cleanup(s.server.Close)
	return s
}

// Client returns an HTTP client bound to the test server.
func (s *Server) Client() *http.Client {
	return s.server.Client()
}

// Seed stores records for owner and returns their assigned ids.
func (s *Server) Seed(owner string, records ...planner.Record) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(records))
	for _, record := range records {
		record.ID = planner.RecordID(s.allocateID())
		s.events = append(s.events, storedEvent{owner: owner, record: record})
		ids = append(ids, string(record.ID))
	}
	return ids
}

// SeedRaw stores a verbatim JSON entry, used to simulate malformed rows.
func (s *Server) SeedRaw(owner, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, storedEvent{owner: owner, raw: json.RawMessage(raw)})
}

func (s *Server) AddUser(email, password, firstName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{password: password, profile: Profile{Email: email, FirstName: firstName}}
}

// Fail makes every call to route answer with status until Recover is called.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Records returns owner's well-formed records in storage order.
func (s *Server) Records(owner string) []planner.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]planner.Record, 0, len(s.events))
	for _, event := range s.events {
		if event.owner == owner && event.raw == nil {
			out = append(out, event.record)
		}
	}
	return out
}

func (s *Server) Calls(route string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, 0)
	for _, call := range s.calls {
		if call.Route == route {
			out = append(out, call)
		}
	}
	return out
}

func (s *Server) Uploaded(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.uploads[name]
	return content, ok
}

func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, owner := range s.resetTokens {
		if owner == email {
			return token
		}
	}
	return ""
}

func (s *Server) Profile(email string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return Profile{}, false
	}
	return acc.profile, true
}

// Token issues a signed token for email that expires after ttl.
func Token(email string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		panic(fmt.Sprintf("sign test token: %v", err))
	}
	return signed
}

func (s *Server) allocateID() string {
	s.nextID++
	return fmt.Sprintf("evt-%d", s.nextID)
}

func (s *Server) intercept(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Route:  route,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	status, failing := s.failures[route]
	s.mu.Unlock()

	if failing {
		c.String(status, "forced failure")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) listEvents(c *gin.Context) {
	owner := c.Query("email")
	if owner == "" {
		c.String(http.StatusBadRequest, "missing email")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]any, 0, len(s.events))
	for _, event := range s.events {
		if event.owner != owner {
			continue
		}
		if event.raw != nil {
			out = append(out, event.raw)
			continue
		}
		out = append(out, event.record)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createEvent(c *gin.Context) {
	owner := c.Query("email")
	if owner == "" {
		c.String(http.StatusBadRequest, "missing email")
		return
	}

	var record planner.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = planner.RecordID(s.allocateID())
	s.events = append(s.events, storedEvent{owner: owner, record: record})
	c.JSON(http.StatusOK, record)
}

func (s *Server) updateEvent(c *gin.Context) {
	var record planner.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.find(c.Param("id"))
	if index < 0 {
		c.String(http.StatusNotFound, "event not found")
		return
	}
	record.ID = s.events[index].record.ID
	s.events[index].record = record
	c.JSON(http.StatusOK, record)
}

func (s *Server) deleteEvent(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.find(c.Param("id"))
	if index < 0 {
		c.String(http.StatusNotFound, "event not found")
		return
	}
	if owner := c.Query("email"); owner != "" && owner != s.events[index].owner {
		c.String(http.StatusForbidden, "not the owner")
		return
	}
	s.events = append(s.events[:index], s.events[index+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) find(id string) int {
	for i, event := range s.events {
		if event.raw == nil && string(event.record.ID) == id {
			return i
		}
	}
	return -1
}

func (s *Server) uploadFile(c *gin.Context) {
	name, content, ok := readFormFile(c)
	if !ok {
		return
	}

	s.mu.Lock()
	s.uploads[name] = content
	s.mu.Unlock()

	c.String(http.StatusOK, "/api/files/"+name)
}

func readFormFile(c *gin.Context) (string, []byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "missing file")
		return "", nil, false
	}
	file, err := header.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return "", nil, false
	}
	defer func() {
		_ = file.Close()
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return "", nil, false
	}
	if len(content) == 0 {
		c.String(http.StatusBadRequest, "empty file")
		return "", nil, false
	}
	return header.Filename, content, true
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		c.String(http.StatusUnauthorized, "invalid e-mail or password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     Token(req.Email, 24*time.Hour),
		"email":     req.Email,
		"firstName": acc.profile.FirstName,
	})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Profile
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		c.String(http.StatusConflict, "user already exists")
		return
	}
	s.accounts[req.Email] = &account{password: req.Password, profile: req.Profile}
	c.JSON(http.StatusOK, req.Profile)
}

func (s *Server) authenticated(c *gin.Context) (*account, bool) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		c.String(http.StatusUnauthorized, "invalid token")
		return nil, false
	}

	acc, ok := s.accounts[claims.Subject]
	if !ok {
		c.String(http.StatusNotFound, "user not found")
		return nil, false
	}
	return acc, true
}

func (s *Server) getProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.authenticated(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acc.profile)
}

func (s *Server) putProfile(c *gin.Context) {
	var update map[string]string
	if err := c.ShouldBindJSON(&update); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.authenticated(c)
	if !ok {
		return
	}
	if value, ok := update["firstName"]; ok {
		acc.profile.FirstName = value
	}
	if value, ok := update["lastName"]; ok {
		acc.profile.LastName = value
	}
	if value := update["birthDate"]; value != "" {
		acc.profile.BirthDate = value
	}
	if value := update["gender"]; value != "" {
		acc.profile.Gender = value
	}
	if value := update["photo"]; value != "" {
		acc.profile.Photo = value
	}
	c.JSON(http.StatusOK, acc.profile)
}

func (s *Server) uploadPhoto(c *gin.Context) {
	name, content, ok := readFormFile(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[c.Query("email")]
	if !exists {
		c.Status(http.StatusNotFound)
		return
	}
	s.uploads[name] = content
	acc.profile.Photo = "/api/users/photo/" + name
	c.JSON(http.StatusOK, acc.profile)
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if _, ok := s.accounts[req["email"]]; ok {
		s.resetTokens["reset-"+req["email"]] = req["email"]
	}
	s.mu.Unlock()

	c.String(http.StatusOK, "If the e-mail exists, a reset link was sent.")
}

func (s *Server) resetPassword(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.resetTokens[req["token"]]
	if !ok {
		c.String(http.StatusBadRequest, "invalid or expired token")
		return
	}
	delete(s.resetTokens, req["token"])
	s.accounts[email].password = req["newPassword"]
	c.String(http.StatusOK, "Password changed.")
}
