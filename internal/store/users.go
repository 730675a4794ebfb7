package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/models"
)

// UserStore mirrors /api/users/ and keeps the outstanding list alongside.
type UserStore struct {
	*Collection[models.User]

	omu         sync.RWMutex
	outstanding []models.User
	current     *models.User
}

// NewUserStore creates the user store.
func NewUserStore(api API, logger zerolog.Logger, opts Options) *UserStore {
	return &UserStore{Collection: NewCollection[models.User]("users", "/api/users/", api, logger, opts)}
}

// Outstanding returns a copy of the last fetched outstanding users.
func (s *UserStore) Outstanding() []models.User {
	s.omu.RLock()
	defer s.omu.RUnlock()
	return slices.Clone(s.outstanding)
}

// Current returns the last fetched current user, or nil.
func (s *UserStore) Current() *models.User {
	s.omu.RLock()
	defer s.omu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// FetchOutstanding replaces the outstanding list.
func (s *UserStore) FetchOutstanding(ctx context.Context) ([]models.User, error) {
	err := s.track("fetch_outstanding", func() error {
		return s.loadOutstanding(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.Outstanding(), nil
}

// FetchCurrent reads the identity behind the current token. A failure clears
// the cached current user.
func (s *UserStore) FetchCurrent(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.track("fetch_current", func() error {
		return s.api.Get(ctx, "/api/auth/me", &u)
	})

	s.omu.Lock()
	if err != nil {
		s.current = nil
	} else {
		cp := u
		s.current = &cp
	}
	s.omu.Unlock()

	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CalculatePerformance triggers the remote recomputation, then reloads the
// users and the outstanding list concurrently.
func (s *UserStore) CalculatePerformance(ctx context.Context) error {
	return s.track("calculate_performance", func() error {
		if err := s.api.Post(ctx, "/api/users/calculate-performance", nil, nil); err != nil {
			return err
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.refetch(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := s.loadOutstanding(ctx); err != nil {
				s.fail(err)
				s.logger.Warn().Err(err).Msg("refetch of outstanding users failed")
			}
		}()
		wg.Wait()
		return nil
	})
}

// AssignedTask returns the task userID works on.
func (s *UserStore) AssignedTask(ctx context.Context, userID int) (*models.Task, error) {
	return s.userTask(ctx, "assigned_task", fmt.Sprintf("/api/users/%d/task", userID))
}

// HeadedTask returns the task userID is head of.
func (s *UserStore) HeadedTask(ctx context.Context, userID int) (*models.Task, error) {
	return s.userTask(ctx, "headed_task", fmt.Sprintf("/api/users/%d/headed-task", userID))
}

func (s *UserStore) userTask(ctx context.Context, op, path string) (*models.Task, error) {
	var t models.Task
	err := s.track(op, func() error {
		return s.api.Get(ctx, path, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *UserStore) loadOutstanding(ctx context.Context) error {
	var users []models.User
	if err := s.api.Get(ctx, "/api/users/outstanding", &users); err != nil {
		return err
	}
	if users == nil {
		users = []models.User{}
	}
	s.omu.Lock()
	s.outstanding = users
	s.omu.Unlock()
	return nil
}
