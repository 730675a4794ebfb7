// Package fakeremote is an in-memory stand-in for the project management
// service. It serves the endpoints the client consumes, issues HS256 bearer
// tokens and can run as a local development server or be called in-process
// as an HTTP client.
package fakeremote

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/models"
	"github.com/p-blackswan/taskboard/internal/requestid"
)

// Config configures the fake service.
type Config struct {
	// Secret signs issued tokens.
	Secret string
	// TokenTTL is the lifetime of issued tokens. Zero means one day.
	TokenTTL time.Duration
	// RegisterKeys maps registration keys to the role they grant. Nil means
	// the defaults "director-key", "manager-key" and "user-key".
	RegisterKeys map[string]models.Role
}

// Server is the fake service.
type Server struct {
	app    *fiber.App
	ttl    time.Duration
	keys   map[string]models.Role
	logger zerolog.Logger

	mu       sync.Mutex
	secret   []byte
	data     *dataset
	critical *models.CriticalPath
}

// New creates a fake service with an empty dataset.
func New(cfg Config, logger zerolog.Logger) *Server {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.RegisterKeys == nil {
		cfg.RegisterKeys = map[string]models.Role{
			"director-key": models.RoleDirector,
			"manager-key":  models.RoleManager,
			"user-key":     models.RoleUser,
		}
	}
	if cfg.Secret == "" {
		cfg.Secret = randomSecret()
	}

	s := &Server{
		ttl:    cfg.TokenTTL,
		keys:   cfg.RegisterKeys,
		secret: []byte(cfg.Secret),
		data:   newDataset(),
		logger: logger.With().Str("component", "fake_remote").Logger(),
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())

	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get(requestid.Header)
		if reqID == "" {
			reqID = requestid.FromContext(c.UserContext())
		}
		c.Set(requestid.Header, reqID)

		err := c.Next()
		s.logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("request_id", reqID).
			Msg("fake remote request")
		return err
	})
}

func (s *Server) setupRoutes() {
	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "taskboard fake remote"})
	})

	auth := s.app.Group("/api/auth")
	auth.Post("/login", s.login)
	auth.Post("/register", s.register)
	auth.Get("/me", s.authenticate, s.me)
	auth.Put("/update-profile", s.authenticate, s.updateProfile)
	auth.Put("/change-password", s.authenticate, s.changePassword)

	projects := s.app.Group("/api/projects", s.authenticate)
	projects.Get("/", s.listProjects)
	projects.Post("/", s.requireManagement, s.createProject)
	projects.Get("/:id", s.getProject)
	projects.Put("/:id", s.requireManagement, s.updateProject)
	projects.Delete("/:id", s.requireManagement, s.deleteProject)
	projects.Post("/:id/dependencies", s.requireManagement, s.addDependencies)
	projects.Post("/:id/assign-users", s.requireManagement, s.assignProjectUsers)
	projects.Delete("/:id/remove-user/:uid", s.requireManagement, s.removeProjectUser)
	projects.Get("/:id/tasks", s.projectTasks)
	projects.Get("/:id/members", s.projectMembers)
	projects.Get("/:id/burn-down", s.burnDown)

	tasks := s.app.Group("/api/tasks", s.authenticate)
	tasks.Get("/", s.listTasks)
	tasks.Post("/", s.requireManagement, s.createTask)
	tasks.Get("/:id", s.getTask)
	tasks.Put("/:id", s.updateTask)
	tasks.Delete("/:id", s.requireManagement, s.deleteTask)
	tasks.Post("/:id/assign", s.requireManagement, s.assignTaskUsers)
	tasks.Get("/:id/users", s.taskMembers)
	tasks.Delete("/:id/unassign/:uid", s.requireManagement, s.unassignTaskUser)

	users := s.app.Group("/api/users", s.authenticate)
	users.Get("/", s.listUsers)
	users.Get("/me/tasks", s.myTasks)
	users.Get("/outstanding", s.outstandingUsers)
	users.Post("/calculate-performance", s.requireManagement, s.calculatePerformance)
	users.Get("/:id", s.getUser)
	users.Get("/:id/task", s.userTask)
	users.Get("/:id/headed-task", s.userHeadedTask)

	gantt := s.app.Group("/api/gantt", s.authenticate)
	gantt.Get("/project-data", s.projectData)
	gantt.Get("/critical-path", s.criticalPath)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Do serves req in-process, so the server can stand in for an HTTP client.
func (s *Server) Do(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, -1)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("fake remote starting")
	return s.app.Listen(addr)
}

// Shutdown stops a listening server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("fake remote shutting down")
	return s.app.Shutdown()
}

// IssueToken signs a bearer token for userID.
func (s *Server) IssueToken(userID int) (string, error) {
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RotateSecret invalidates every token issued so far.
func (s *Server) RotateSecret() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(randomSecret())
}

// SetCriticalPath fixes the critical-path response. Nil restores the
// computed default.
func (s *Server) SetCriticalPath(cp *models.CriticalPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.critical = cp
}

// authenticate resolves the bearer token to a user id.
func (s *Server) authenticate(c *fiber.Ctx) error {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return detail(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return detail(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}

	s.mu.Lock()
	_, exists := s.data.users[id]
	s.mu.Unlock()
	if !exists {
		return detail(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}

	c.Locals("user_id", id)
	return c.Next()
}

func (s *Server) requireManagement(c *fiber.Ctx) error {
	s.mu.Lock()
	acct := s.data.users[currentUserID(c)]
	s.mu.Unlock()
	if acct == nil || !acct.user.Role.HasManagementPermission() {
		return detail(c, fiber.StatusForbidden, "Insufficient permissions")
	}
	return c.Next()
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	s.logger.Error().Err(err).Int("status", code).Str("path", c.Path()).Msg("unhandled error")

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return detail(c, code, msg)
}

func currentUserID(c *fiber.Ctx) int {
	id, _ := c.Locals("user_id").(int)
	return id
}

// detail writes the {"detail": msg} error body.
func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// fieldError writes a 422 body with one field failure.
func fieldError(c *fiber.Ctx, field, msg string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": []fiber.Map{{"loc": []any{"body", field}, "msg": msg, "type": "value_error"}},
	})
}

func pathID(c *fiber.Ctx, name string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnprocessableEntity, name+" is not a valid integer")
	}
	return id, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
