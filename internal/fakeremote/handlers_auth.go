package fakeremote

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskboard/internal/models"
)

func (s *Server) login(c *fiber.Ctx) error {
	var creds models.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return fieldError(c, "identifier", "field required")
	}

	s.mu.Lock()
	acct := s.data.findAccount(creds.Identifier)
	s.mu.Unlock()
	if acct == nil || acct.password != creds.Password {
		return detail(c, fiber.StatusBadRequest, "Incorrect username or password")
	}

	token, err := s.IssueToken(acct.user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access_token": token, "token_type": "bearer"})
}

func (s *Server) register(c *fiber.Ctx) error {
	var reg models.Registration
	if err := c.BodyParser(&reg); err != nil {
		return fieldError(c, "username", "field required")
	}
	switch {
	case reg.Username == "":
		return fieldError(c, "username", "field required")
	case !strings.Contains(reg.Email, "@"):
		return fieldError(c, "email", "value is not a valid email address")
	case reg.Password != reg.ConfirmPassword:
		return fieldError(c, "confirm_password", "passwords do not match")
	}
	role, ok := s.keys[reg.RegisterKey]
	if !ok {
		return detail(c, fiber.StatusBadRequest, "Invalid register key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.usernameTaken(reg.Username, 0) {
		return detail(c, fiber.StatusBadRequest, "Username already registered")
	}
	u := models.User{ID: s.data.id(), Username: reg.Username, Email: reg.Email, Role: role, Profile: reg.Profile}
	s.data.users[u.ID] = &account{user: u, password: reg.Password}
	return c.JSON(u)
}

func (s *Server) me(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.data.users[currentUserID(c)].user)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var in models.ProfileUpdate
	if err := c.BodyParser(&in); err != nil {
		return fieldError(c, "username", "field required")
	}
	if !strings.Contains(in.Email, "@") {
		return fieldError(c, "email", "value is not a valid email address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := currentUserID(c)
	if s.data.usernameTaken(in.Username, id) {
		return c.JSON(models.ActionResult{Success: false, Message: "Username already taken"})
	}
	acct := s.data.users[id]
	acct.user.Username = in.Username
	acct.user.Email = in.Email
	u := acct.user
	return c.JSON(models.ActionResult{Success: true, Message: "Profile updated", User: &u})
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var in models.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return fieldError(c, "new_password", "field required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.data.users[currentUserID(c)]
	if acct.password != in.CurrentPassword {
		return c.JSON(models.ActionResult{Success: false, Message: "Current password is incorrect"})
	}
	acct.password = in.NewPassword
	return c.JSON(models.ActionResult{Success: true, Message: "Password changed"})
}
