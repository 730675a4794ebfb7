package store

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/models"
)

func TestProjectStore_Relationships(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("relationship operations must not refresh items")
	})
	mux.HandleFunc("POST /api/projects/2/dependencies/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []int{1}, body["depends_on_ids"])
		w.Write([]byte(`{"id":2,"name":"b","status":"pending","dependencies":[{"id":1,"name":"a","status":"completed"}]}`))
	})
	mux.HandleFunc("POST /api/projects/2/assign-users/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []int{4, 5}, body["user_ids"])
		w.Write([]byte(`{"id":2,"name":"b","status":"pending"}`))
	})
	mux.HandleFunc("DELETE /api/projects/2/remove-user/5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"removed"}`))
	})
	mux.HandleFunc("GET /api/projects/2/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"name":"build","workload":"heavy","finished":false,"project_id":2}]`))
	})
	mux.HandleFunc("GET /api/projects/2/members", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":4,"username":"dana","email":"d@example.com","role":"manager"}]`))
	})
	mux.HandleFunc("GET /api/projects/2/burn-down/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"actual_progresses":[{"date":"2026-01-01","progress":10}],"ideal_progresses":[{"date":"2026-01-01","progress":12.5}],"risk_level":"LOW"}`))
	})
	s := NewProjectStore(newTestAPI(t, mux), zerolog.Nop(), Options{})
	ctx := context.Background()

	p, err := s.AddDependencies(ctx, 2, []int{1})
	require.NoError(t, err)
	require.Len(t, p.Dependencies, 1)
	assert.Equal(t, 1, p.Dependencies[0].ID)

	_, err = s.AssignUsers(ctx, 2, []int{4, 5})
	require.NoError(t, err)
	require.NoError(t, s.RemoveUser(ctx, 2, 5))

	tasks, err := s.Tasks(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.WorkloadHeavy, tasks[0].Workload)

	members, err := s.Members(ctx, 2)
	require.NoError(t, err)
	assert.True(t, members[0].Role.IsManager())

	bd, err := s.FetchBurnDown(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, bd.RiskLevel)
	assert.Equal(t, 12.5, bd.IdealProgresses[0].Progress)

	assert.Empty(t, s.Items())
	assert.Empty(t, s.Error())
}

func TestProjectStore_BurnDownFailureReturnsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/9/burn-down/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	s := NewProjectStore(newTestAPI(t, mux), zerolog.Nop(), Options{})

	bd, err := s.FetchBurnDown(context.Background(), 9)
	assert.Nil(t, bd)
	assert.ErrorIs(t, err, perrors.ErrForbidden)
	assert.Equal(t, perrors.ErrForbidden.Error(), s.Error())
}

func TestProjectStore_UpdateRefetches(t *testing.T) {
	var lists atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		w.Write([]byte(`[{"id":1,"name":"renamed","status":"in_progress"}]`))
	})
	mux.HandleFunc("PUT /api/projects/1", func(w http.ResponseWriter, r *http.Request) {
		var in models.ProjectInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "renamed", in.Name)
		w.Write([]byte(`{"id":1,"name":"renamed","status":"in_progress"}`))
	})
	s := NewProjectStore(newTestAPI(t, mux), zerolog.Nop(), Options{Mode: Refetch})

	_, err := s.UpdateProject(context.Background(), 1, models.ProjectInput{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), lists.Load())
	assert.Equal(t, "renamed", s.Items()[0].Name)
}

func TestTaskStore_FetchMineAndAssignments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"name":"build","workload":"heavy","finished":false,"project_id":2}]`))
	})
	mux.HandleFunc("POST /api/tasks/7/assign", func(w http.ResponseWriter, r *http.Request) {
		var ids []int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
		assert.Equal(t, []int{4}, ids)
		w.Write([]byte(`{"id":7,"name":"build","workload":"heavy","finished":false,"project_id":2}`))
	})
	mux.HandleFunc("GET /api/tasks/7/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":4,"username":"dana","email":"d@example.com","role":"user"}]`))
	})
	mux.HandleFunc("DELETE /api/tasks/7/unassign/4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s := NewTaskStore(newTestAPI(t, mux), zerolog.Nop(), Options{Mode: InPlace})
	ctx := context.Background()

	mine, err := s.FetchMine(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, mine, s.Items())

	_, err = s.AssignUsers(ctx, 7, []int{4})
	require.NoError(t, err)
	members, err := s.Members(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "dana", members[0].Username)
	require.NoError(t, s.Unassign(ctx, 7, 4))
}

func TestUserStore(t *testing.T) {
	var recomputed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/", func(w http.ResponseWriter, r *http.Request) {
		if recomputed.Load() {
			w.Write([]byte(`[{"id":1,"username":"alice","email":"a@example.com","role":"user","performance":0.9}]`))
			return
		}
		w.Write([]byte(`[{"id":1,"username":"alice","email":"a@example.com","role":"user"}]`))
	})
	mux.HandleFunc("GET /api/users/outstanding", func(w http.ResponseWriter, r *http.Request) {
		if recomputed.Load() {
			w.Write([]byte(`[{"id":1,"username":"alice","email":"a@example.com","role":"user","outstanding":true}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /api/users/calculate-performance", func(w http.ResponseWriter, r *http.Request) {
		recomputed.Store(true)
		w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"username":"alice","email":"a@example.com","role":"user"}`))
	})
	mux.HandleFunc("GET /api/users/1/task", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"name":"build","workload":"heavy","finished":false,"project_id":2}`))
	})
	mux.HandleFunc("GET /api/users/1/headed-task", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s := NewUserStore(newTestAPI(t, mux), zerolog.Nop(), Options{})
	ctx := context.Background()

	out, err := s.FetchOutstanding(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, s.CalculatePerformance(ctx))
	require.Len(t, s.Items(), 1)
	require.NotNil(t, s.Items()[0].Performance)
	assert.Equal(t, 0.9, *s.Items()[0].Performance)
	require.Len(t, s.Outstanding(), 1)
	assert.True(t, *s.Outstanding()[0].Outstanding)
	assert.False(t, s.Loading())

	u, err := s.FetchCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice", s.Current().Username)

	task, err := s.AssignedTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, task.ID)

	task, err = s.HeadedTask(ctx, 1)
	assert.Nil(t, task)
	assert.Equal(t, perrors.KindNotFound, perrors.KindOf(err))
	assert.Equal(t, perrors.ErrNotFound.Error(), s.Error())
}

func TestUserStore_CalculatePerformanceFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/calculate-performance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	s := NewUserStore(newTestAPI(t, mux), zerolog.Nop(), Options{})

	err := s.CalculatePerformance(context.Background())
	assert.ErrorIs(t, err, perrors.ErrForbidden)
	assert.Empty(t, s.Items())
	assert.NotEmpty(t, s.Error())
}
