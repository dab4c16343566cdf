// Package stubserver is an in-memory stand-in for the GigaChat backend. It
// serves the REST surface and push channel the client consumes, so the
// client can be developed and integration-tested without the real service.
package stubserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gigachat/internal/infrastructure/realtime"
	"gigachat/internal/pkg/sync/domain"
)

// Server implements the stub backend.
type Server struct {
	logger zerolog.Logger
	store  *memoryStore
	hub    *realtime.Hub
	router *gin.Engine
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New constructs a stub server with no users; seed them with SeedUser.
func New(opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		logger: zerolog.Nop(),
		store:  newMemoryStore(),
		hub:    realtime.NewHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/auth/signin", s.handleSignIn)
	r.GET("/ws", s.handleSocket)

	authed := r.Group("/", s.requireAuth())
	authed.GET("/profile/me", s.handleMe)
	authed.GET("/profile/all-users", s.handleAllUsers)
	authed.GET("/messages/:contactId", s.handleHistory)
	authed.POST("/messages/send", s.handleSend)
	authed.DELETE("/messages/:messageId", s.handleDelete)
	authed.POST("/profile/accept-friend/:contactId", s.handleAcceptFriend)

	s.router = r
	return s
}

// Handler exposes the HTTP handler, for main and for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close terminates all live push connections.
func (s *Server) Close() {
	s.hub.Close()
}

// SeedUser registers an account and returns it with its assigned id.
func (s *Server) SeedUser(c domain.Contact, password string) domain.Contact {
	return s.store.addUser(c, password)
}

// SeedMessage inserts a message directly into a timeline, for fixtures.
func (s *Server) SeedMessage(senderID, recipientID, content string, at time.Time) domain.Message {
	return s.store.appendMessage(senderID, recipientID, content, at)
}

// TokenFor issues a session token for a seeded user, for fixtures and tests.
func (s *Server) TokenFor(userID string) (string, error) {
	return s.store.issueToken(userID)
}

type signInRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	who := req.Email
	if who == "" {
		who = req.PhoneNumber
	}
	token, err := s.store.authenticate(who, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// requireAuth resolves the bearer token and stashes the caller's contact.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		user, err := s.store.userForToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.Contact {
	user, _ := c.Get("user")
	contact, _ := user.(domain.Contact)
	return contact
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleAllUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.contactsFor(currentUser(c).ID))
}

func (s *Server) handleHistory(c *gin.Context) {
	contactID := c.Param("contactId")
	if contactID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "contactId is required"})
		return
	}
	c.JSON(http.StatusOK, s.store.history(currentUser(c).ID, contactID))
}

type sendRequest struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

func (s *Server) handleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	sender := currentUser(c).ID
	msg := s.store.appendMessage(sender, req.RecipientID, req.Content, time.Time{})
	s.deliver(msg)
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("messageId")
	rec, err := s.store.deleteMessage(id)
	if err != nil {
		if errors.Is(err, errUnknownMessage) {
			c.JSON(http.StatusNotFound, gin.H{"message": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (s *Server) handleAcceptFriend(c *gin.Context) {
	self := currentUser(c)
	other := c.Param("contactId")
	selfContact, otherContact, err := s.store.acceptFriend(self.ID, other)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	// Each side learns about the other.
	s.notifyContactAccepted(self.ID, otherContact)
	s.notifyContactAccepted(otherContact.ID, selfContact)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
