package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/models"
)

// TaskStore mirrors /api/tasks/.
type TaskStore struct {
	*Collection[models.Task]
}

// NewTaskStore creates the task store.
func NewTaskStore(api API, logger zerolog.Logger, opts Options) *TaskStore {
	return &TaskStore{NewCollection[models.Task]("tasks", "/api/tasks/", api, logger, opts)}
}

// CreateTask posts a new task and reloads the list.
func (s *TaskStore) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	return s.Create(ctx, in)
}

// UpdateTask applies patch to task id.
func (s *TaskStore) UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	return s.Update(ctx, id, patch)
}

// SetFinished marks task id finished or not.
func (s *TaskStore) SetFinished(ctx context.Context, id int, finished bool) (*models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskPatch{Finished: &finished})
}

// FetchMine replaces the items with the tasks of the current user.
func (s *TaskStore) FetchMine(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := s.track("fetch_mine", func() error {
		if err := s.api.Get(ctx, "/api/users/me/tasks", &tasks); err != nil {
			return err
		}
		if tasks == nil {
			tasks = []models.Task{}
		}
		s.mu.Lock()
		s.items = tasks
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Items(), nil
}

// AssignUsers attaches users to task id. The body is the bare id list.
func (s *TaskStore) AssignUsers(ctx context.Context, id int, userIDs []int) (*models.Task, error) {
	var t models.Task
	err := s.track("assign_users", func() error {
		return s.api.Post(ctx, fmt.Sprintf("/api/tasks/%d/assign", id), userIDs, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Members lists the users assigned to task id.
func (s *TaskStore) Members(ctx context.Context, id int) ([]models.User, error) {
	var users []models.User
	err := s.track("members", func() error {
		return s.api.Get(ctx, fmt.Sprintf("/api/tasks/%d/users", id), &users)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Unassign detaches userID from task id.
func (s *TaskStore) Unassign(ctx context.Context, id, userID int) error {
	return s.track("unassign", func() error {
		return s.api.Delete(ctx, fmt.Sprintf("/api/tasks/%d/unassign/%d", id, userID), nil)
	})
}
