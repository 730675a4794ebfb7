package fakeremote

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskboard/internal/models"
)

// OutstandingThreshold is the performance at or above which a user counts as
// outstanding.
const OutstandingThreshold = 0.8

func (s *Server) listUsers(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.data.userList())
}

func (s *Server) getUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.data.users[id]
	if !ok {
		return detail(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(acct.user)
}

// myTasks lists the tasks the caller is assigned to or heads.
func (s *Server) myTasks(c *fiber.Ctx) error {
	me := currentUserID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.data.taskList(func(r *taskRecord) bool {
		return slices.Contains(r.users, me) || (r.task.HeadID != nil && *r.task.HeadID == me)
	}))
}

func (s *Server) outstandingUsers(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.data.userList() {
		if u.Outstanding != nil && *u.Outstanding {
			out = append(out, u)
		}
	}
	return c.JSON(out)
}

// calculatePerformance scores every user by the share of finished tasks
// among those assigned to them.
func (s *Server) calculatePerformance(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assigned := map[int]int{}
	finished := map[int]int{}
	for _, rec := range s.data.tasks {
		for _, uid := range rec.users {
			assigned[uid]++
			if rec.task.Finished {
				finished[uid]++
			}
		}
	}
	for id, acct := range s.data.users {
		perf := 0.0
		if assigned[id] > 0 {
			perf = float64(finished[id]) / float64(assigned[id])
		}
		outstanding := perf >= OutstandingThreshold
		acct.user.Performance = &perf
		acct.user.Outstanding = &outstanding
	}
	return c.JSON(fiber.Map{"message": "Performance calculated"})
}

func (s *Server) userTask(c *fiber.Ctx) error {
	return s.findUserTask(c, func(r *taskRecord, uid int) bool {
		return slices.Contains(r.users, uid)
	})
}

func (s *Server) userHeadedTask(c *fiber.Ctx) error {
	return s.findUserTask(c, func(r *taskRecord, uid int) bool {
		return r.task.HeadID != nil && *r.task.HeadID == uid
	})
}

// findUserTask returns the lowest-id task matching the user, or 404.
func (s *Server) findUserTask(c *fiber.Ctx, match func(*taskRecord, int) bool) error {
	uid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.users[uid]; !ok {
		return detail(c, fiber.StatusNotFound, "User not found")
	}
	tasks := s.data.taskList(func(r *taskRecord) bool { return match(r, uid) })
	if len(tasks) == 0 {
		return detail(c, fiber.StatusNotFound, "Task not found")
	}
	return c.JSON(tasks[0])
}
