// Package adminapi exposes a read-only HTTP and WebSocket view over a
// finalized run's snapshot, for operators who want to inspect results
// without re-parsing the output CSV. It is a side door onto the same
// SnapshotRow data the CLI writes to stdout; it never touches the core
// dispatch path.
package adminapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/terminal-bench/txshard/internal/shard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Claims is the JWT payload an operator token must carry to read a run.
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// Server serves the snapshots of every run handed to PublishRun over HTTP
// and WebSocket.
type Server struct {
	router    *gin.Engine
	jwtSecret []byte

	mu   sync.RWMutex
	runs map[string][]shard.SnapshotRow
}

// New builds a Server whose tokens must be signed with jwtSecret.
func New(jwtSecret string) *Server {
	s := &Server{
		router:    gin.Default(),
		jwtSecret: []byte(jwtSecret),
		runs:      make(map[string][]shard.SnapshotRow),
	}
	s.setupRoutes()
	return s
}

// PublishRun makes rows available under runID for subsequent reads. Called
// once a run has finalized and its snapshot is known.
func (s *Server) PublishRun(runID string, rows []shard.SnapshotRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = rows
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.authMiddleware())
	{
		v1.GET("/runs/:runID/snapshot", s.getSnapshot)
		v1.GET("/runs/:runID/snapshot/:clientID", s.getClientRow)
		v1.GET("/runs/:runID/stream", s.streamSnapshot)
	}
}

// Run starts the HTTP server, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// IssueToken signs a 1-hour operator token with the server's secret. No
// command in this module calls it; the package tests use it to mint tokens.
func (s *Server) IssueToken(operator string) (string, error) {
	claims := &Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("operator", claims.Operator)
		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) lookupRun(runID string) ([]shard.SnapshotRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.runs[runID]
	return rows, ok
}

func (s *Server) getSnapshot(c *gin.Context) {
	rows, ok := s.lookupRun(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getClientRow(c *gin.Context) {
	rows, ok := s.lookupRun(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	clientParam := c.Param("clientID")
	for _, row := range rows {
		if strconv.FormatUint(uint64(row.Client), 10) == clientParam {
			c.JSON(http.StatusOK, row)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "client not found in run"})
}

// streamSnapshot upgrades to a WebSocket and pushes the run's full snapshot
// once, then keeps the connection open until the client disconnects — a
// thin placeholder for future live updates, matching how a single-shot
// payload would be streamed to a dashboard that wants push semantics.
func (s *Server) streamSnapshot(c *gin.Context) {
	rows, ok := s.lookupRun(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(rows); err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
