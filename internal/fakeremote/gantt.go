package fakeremote

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskboard/internal/models"
)

func (s *Server) projectData(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ScheduleProject, 0, len(s.data.projects))
	for _, id := range sortedKeys(s.data.projects) {
		rec := s.data.projects[id]
		sp := models.ScheduleProject{
			ID:           id,
			Name:         rec.project.Name,
			Status:       rec.project.Status,
			Progress:     s.data.progress(id),
			Dependencies: slices.Clone(rec.deps),
		}
		if sp.Dependencies == nil {
			sp.Dependencies = []int{}
		}
		if rec.project.StartTime != nil {
			sp.StartTime = *rec.project.StartTime
		}
		if rec.project.EndTime != nil {
			sp.EndTime = *rec.project.EndTime
		}
		out = append(out, sp)
	}
	return c.JSON(out)
}

func (s *Server) criticalPath(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.critical != nil {
		return c.JSON(s.critical)
	}
	return c.JSON(s.data.criticalPath())
}

// criticalPath is the heaviest dependency chain, weighted by estimated
// duration in days (one day when unset). The path runs from the earliest
// dependency to the last dependent.
func (d *dataset) criticalPath() models.CriticalPath {
	weights := make(map[int]float64, len(d.projects))
	for id, rec := range d.projects {
		w := 1.0
		if rec.project.EstimatedDuration != nil && *rec.project.EstimatedDuration > 0 {
			w = float64(*rec.project.EstimatedDuration)
		}
		weights[id] = w
	}

	total := map[int]float64{}
	prev := map[int]int{}
	visiting := map[int]bool{}
	var walk func(id int) float64
	walk = func(id int) float64 {
		if t, ok := total[id]; ok {
			return t
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		best, bestDep := 0.0, 0
		for _, dep := range d.projects[id].deps {
			if _, ok := d.projects[dep]; !ok {
				continue
			}
			if t := walk(dep); t > best {
				best, bestDep = t, dep
			}
		}
		visiting[id] = false
		total[id] = best + weights[id]
		if bestDep != 0 {
			prev[id] = bestDep
		}
		return total[id]
	}

	end, longest := 0, 0.0
	for _, id := range sortedKeys(d.projects) {
		if t := walk(id); t > longest {
			end, longest = id, t
		}
	}

	cp := models.CriticalPath{Path: []int{}, Weights: weights}
	for id := end; id != 0; id = prev[id] {
		cp.Path = append(cp.Path, id)
	}
	slices.Reverse(cp.Path)
	cp.TotalDurationDays = longest
	return cp
}
