package fakeremote

import (
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskboard/internal/models"
)

const dateLayout = "2006-01-02"

func (s *Server) listProjects(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.data.projectList())
}

func (s *Server) getProject(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.projects[id]; !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	return c.JSON(s.data.projectView(id))
}

func (s *Server) createProject(c *fiber.Ctx) error {
	var in models.ProjectInput
	if err := c.BodyParser(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		return fieldError(c, "name", "field required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Project{ID: s.data.id(), Status: models.ProjectPending}
	applyProjectInput(&p, in)
	s.data.projects[p.ID] = &projectRecord{project: p}
	return c.Status(fiber.StatusCreated).JSON(s.data.projectView(p.ID))
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in models.ProjectInput
	if err := c.BodyParser(&in); err != nil {
		return fieldError(c, "name", "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	applyProjectInput(&rec.project, in)
	return c.JSON(s.data.projectView(id))
}

func applyProjectInput(p *models.Project, in models.ProjectInput) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.EstimatedDuration != nil {
		p.EstimatedDuration = in.EstimatedDuration
	}
	if in.StartTime != nil {
		p.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		p.EndTime = in.EndTime
	}
	if in.HeadID != nil {
		p.HeadID = in.HeadID
	}
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.projects[id]; !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	s.data.deleteProject(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) addDependencies(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		DependsOnIDs []int `json:"depends_on_ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fieldError(c, "depends_on_ids", "field required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	for _, dep := range body.DependsOnIDs {
		if _, ok := s.data.projects[dep]; !ok || dep == id {
			return detail(c, fiber.StatusBadRequest, "Invalid dependency")
		}
		if !slices.Contains(rec.deps, dep) {
			rec.deps = append(rec.deps, dep)
		}
	}
	return c.JSON(s.data.projectView(id))
}

func (s *Server) assignProjectUsers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		UserIDs []int `json:"user_ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fieldError(c, "user_ids", "field required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	for _, uid := range body.UserIDs {
		if _, ok := s.data.users[uid]; !ok {
			return detail(c, fiber.StatusNotFound, "User not found")
		}
		if !slices.Contains(rec.members, uid) {
			rec.members = append(rec.members, uid)
		}
	}
	return c.JSON(s.data.projectView(id))
}

func (s *Server) removeProjectUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := pathID(c, "uid")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok || !slices.Contains(rec.members, uid) {
		return detail(c, fiber.StatusNotFound, "Membership not found")
	}
	rec.members = slices.DeleteFunc(rec.members, func(m int) bool { return m == uid })
	return c.JSON(fiber.Map{"message": "User removed from project"})
}

func (s *Server) projectTasks(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.projects[id]; !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	return c.JSON(s.data.taskList(func(r *taskRecord) bool { return r.task.ProjectID == id }))
}

func (s *Server) projectMembers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	return c.JSON(s.data.usersByID(rec.members))
}

// burnDown returns a two-point ideal line from start to end and the actual
// progress today. The risk level compares the two.
func (s *Server) burnDown(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.projects[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}

	p := rec.project
	if p.StartTime == nil || p.EndTime == nil {
		return detail(c, fiber.StatusBadRequest, "Project has no schedule")
	}
	start, err1 := time.Parse(dateLayout, *p.StartTime)
	end, err2 := time.Parse(dateLayout, *p.EndTime)
	if err1 != nil || err2 != nil || !end.After(start) {
		return detail(c, fiber.StatusBadRequest, "Project has an invalid schedule")
	}

	now := time.Now().UTC()
	actual := s.data.progress(id)
	expected := 100 * clamp(now.Sub(start).Hours()/end.Sub(start).Hours())

	return c.JSON(models.BurnDown{
		ActualProgresses: []models.ProgressPoint{{Date: now.Format(dateLayout), Progress: actual}},
		IdealProgresses: []models.ProgressPoint{
			{Date: *p.StartTime, Progress: 0},
			{Date: *p.EndTime, Progress: 100},
		},
		RiskLevel: riskFor(expected - actual),
	})
}

func clamp(f float64) float64 {
	return max(0, min(1, f))
}

func riskFor(gap float64) models.RiskLevel {
	switch {
	case gap <= 0:
		return models.RiskNone
	case gap < 10:
		return models.RiskLow
	case gap < 25:
		return models.RiskMedium
	case gap < 50:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
