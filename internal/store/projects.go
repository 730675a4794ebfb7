package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/models"
)

// ProjectStore mirrors /api/projects/.
type ProjectStore struct {
	*Collection[models.Project]
}

// NewProjectStore creates the project store.
func NewProjectStore(api API, logger zerolog.Logger, opts Options) *ProjectStore {
	return &ProjectStore{NewCollection[models.Project]("projects", "/api/projects/", api, logger, opts)}
}

// CreateProject posts a new project and reloads the list.
func (s *ProjectStore) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	return s.Create(ctx, in)
}

// UpdateProject applies in to project id.
func (s *ProjectStore) UpdateProject(ctx context.Context, id int, in models.ProjectInput) (*models.Project, error) {
	return s.Update(ctx, id, in)
}

// FetchBurnDown returns the remote burn-down of project id, or nil on failure.
func (s *ProjectStore) FetchBurnDown(ctx context.Context, id int) (*models.BurnDown, error) {
	var bd models.BurnDown
	err := s.track("burn_down", func() error {
		return s.api.Get(ctx, fmt.Sprintf("/api/projects/%d/burn-down/", id), &bd)
	})
	if err != nil {
		return nil, err
	}
	return &bd, nil
}

// AddDependencies declares that project id depends on dependsOn. The items
// are not refreshed.
func (s *ProjectStore) AddDependencies(ctx context.Context, id int, dependsOn []int) (*models.Project, error) {
	var p models.Project
	body := map[string][]int{"depends_on_ids": dependsOn}
	err := s.track("add_dependencies", func() error {
		return s.api.Post(ctx, fmt.Sprintf("/api/projects/%d/dependencies/", id), body, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AssignUsers attaches users to project id.
func (s *ProjectStore) AssignUsers(ctx context.Context, id int, userIDs []int) (*models.Project, error) {
	var p models.Project
	body := map[string][]int{"user_ids": userIDs}
	err := s.track("assign_users", func() error {
		return s.api.Post(ctx, fmt.Sprintf("/api/projects/%d/assign-users/", id), body, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RemoveUser detaches userID from project id.
func (s *ProjectStore) RemoveUser(ctx context.Context, id, userID int) error {
	return s.track("remove_user", func() error {
		return s.api.Delete(ctx, fmt.Sprintf("/api/projects/%d/remove-user/%d", id, userID), nil)
	})
}

// Tasks lists the tasks of project id.
func (s *ProjectStore) Tasks(ctx context.Context, id int) ([]models.Task, error) {
	var tasks []models.Task
	err := s.track("tasks", func() error {
		return s.api.Get(ctx, fmt.Sprintf("/api/projects/%d/tasks", id), &tasks)
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Members lists the users assigned to project id.
func (s *ProjectStore) Members(ctx context.Context, id int) ([]models.User, error) {
	var users []models.User
	err := s.track("members", func() error {
		return s.api.Get(ctx, fmt.Sprintf("/api/projects/%d/members", id), &users)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
