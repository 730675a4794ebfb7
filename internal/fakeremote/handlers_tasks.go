package fakeremote

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskboard/internal/models"
)

func (s *Server) listTasks(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.data.taskList(nil))
}

func (s *Server) getTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.tasks[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	return c.JSON(rec.task)
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var in models.TaskInput
	if err := c.BodyParser(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		return fieldError(c, "name", "field required")
	}
	if in.Workload == "" {
		in.Workload = models.WorkloadMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.projects[in.ProjectID]; !ok {
		return detail(c, fiber.StatusNotFound, "Project not found")
	}
	t := models.Task{
		ID:          s.data.id(),
		Name:        in.Name,
		Description: in.Description,
		Workload:    in.Workload,
		Finished:    in.Finished,
		ProjectID:   in.ProjectID,
		HeadID:      in.HeadID,
	}
	s.data.tasks[t.ID] = &taskRecord{task: t}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in models.TaskPatch
	if err := c.BodyParser(&in); err != nil {
		return fieldError(c, "name", "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.tasks[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	if in.ProjectID != nil {
		if _, ok := s.data.projects[*in.ProjectID]; !ok {
			return detail(c, fiber.StatusNotFound, "Project not found")
		}
		rec.task.ProjectID = *in.ProjectID
	}
	if in.Name != nil {
		rec.task.Name = *in.Name
	}
	if in.Description != nil {
		rec.task.Description = in.Description
	}
	if in.Workload != nil {
		rec.task.Workload = *in.Workload
	}
	if in.Finished != nil {
		rec.task.Finished = *in.Finished
	}
	if in.HeadID != nil {
		rec.task.HeadID = in.HeadID
	}
	return c.JSON(rec.task)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tasks[id]; !ok {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	delete(s.data.tasks, id)
	return c.SendStatus(fiber.StatusNoContent)
}

// assignTaskUsers takes a bare array of user ids.
func (s *Server) assignTaskUsers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var userIDs []int
	if err := c.BodyParser(&userIDs); err != nil {
		return fieldError(c, "user_ids", "value is not a valid list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.tasks[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	for _, uid := range userIDs {
		if _, ok := s.data.users[uid]; !ok {
			return detail(c, fiber.StatusNotFound, "User not found")
		}
		if !slices.Contains(rec.users, uid) {
			rec.users = append(rec.users, uid)
		}
	}
	return c.JSON(rec.task)
}

func (s *Server) taskMembers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.tasks[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	return c.JSON(s.data.usersByID(rec.users))
}

func (s *Server) unassignTaskUser(c *fiber.Ctx) error {
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
	rec, ok := s.data.tasks[id]
	if !ok || !slices.Contains(rec.users, uid) {
		return detail(c, fiber.StatusNotFound, "Assignment not found")
	}
	rec.users = slices.DeleteFunc(rec.users, func(u int) bool { return u == uid })
	return c.JSON(fiber.Map{"message": "User unassigned from task"})
}
