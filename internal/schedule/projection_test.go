package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/models"
	"github.com/p-blackswan/taskboard/internal/transport"
)

const twoProjects = `[
	{"id":1,"name":"foundation","status":"completed","start_time":"2026-01-01","end_time":"2026-01-06","progress":100,"dependencies":[]},
	{"id":2,"name":"framing","status":"in_progress","start_time":"2026-01-06","end_time":"2026-01-20","progress":40,"dependencies":[1]}
]`

const criticalOne = `{"critical_path":[1],"total_duration_days":5,"weights":{"1":5}}`

func setupProjection(t *testing.T, projectData, criticalPath string) *Projection {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/gantt/project-data", func(w http.ResponseWriter, r *http.Request) {
		if projectData == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(projectData))
	})
	mux.HandleFunc("GET /api/gantt/critical-path", func(w http.ResponseWriter, r *http.Request) {
		if criticalPath == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(criticalPath))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := transport.New(server.URL, nil, zerolog.Nop(), transport.WithHTTPClient(server.Client()))
	return New(client, zerolog.Nop(), nil)
}

func TestFetchScheduleData_MapsProjects(t *testing.T) {
	p := setupProjection(t, twoProjects, criticalOne)

	rows, err := p.FetchScheduleData(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, GanttTask{
		ID: "project_1", Name: "foundation", Start: "2026-01-01", End: "2026-01-06",
		Progress: 100, Dependencies: "", CustomClass: "status-completed",
	}, rows[0])
	assert.Equal(t, "project_2", rows[1].ID)
	assert.Equal(t, "project_1", rows[1].Dependencies)
	assert.Equal(t, "status-in-progress", rows[1].CustomClass)

	st := p.Snapshot()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestFetchCriticalPath_FiltersAll(t *testing.T) {
	p := setupProjection(t, twoProjects, criticalOne)
	ctx := context.Background()

	_, err := p.FetchScheduleData(ctx)
	require.NoError(t, err)
	cp, err := p.FetchCriticalPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cp.Path)
	assert.Equal(t, 5.0, cp.TotalDurationDays)
	assert.Equal(t, map[int]float64{1: 5}, cp.Weights)

	subset := p.CriticalSubset()
	require.Len(t, subset, 1)
	assert.Equal(t, "project_1", subset[0].ID)
	require.NotNil(t, p.Snapshot().CriticalMeta)
}

func TestFetchCriticalPath_EmptyAllDoesNotFetch(t *testing.T) {
	p := setupProjection(t, twoProjects, criticalOne)
	ctx := context.Background()

	_, err := p.FetchCriticalPath(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.All())
	assert.Empty(t, p.CriticalSubset())

	// Loading rows later recomputes the subset from the stored meta.
	_, err = p.FetchScheduleData(ctx)
	require.NoError(t, err)
	require.Len(t, p.CriticalSubset(), 1)
}

func TestFetchFailures(t *testing.T) {
	p := setupProjection(t, "", "")
	ctx := context.Background()

	rows, err := p.FetchScheduleData(ctx)
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, perrors.ErrServerError)
	assert.Equal(t, perrors.ErrServerError.Error(), p.Snapshot().Error)

	cp, err := p.FetchCriticalPath(ctx)
	assert.Nil(t, cp)
	assert.ErrorIs(t, err, perrors.ErrNotFound)
	st := p.Snapshot()
	assert.Equal(t, perrors.ErrNotFound.Error(), st.Error)
	assert.False(t, st.Loading)
	assert.Nil(t, st.CriticalMeta)
}

func TestCriticalSubsetIsSubsetOfAll(t *testing.T) {
	p := setupProjection(t, twoProjects, `{"critical_path":[1,2,99],"total_duration_days":19,"weights":{"1":5,"2":14}}`)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = p.FetchScheduleData(ctx)
		}()
		go func() {
			defer wg.Done()
			_, _ = p.FetchCriticalPath(ctx)
		}()
	}
	wg.Wait()

	st := p.Snapshot()
	ids := make(map[string]bool, len(st.All))
	for _, row := range st.All {
		ids[row.ID] = true
	}
	for _, row := range st.CriticalSubset {
		assert.True(t, ids[row.ID], "%s not in all", row.ID)
	}
	assert.Len(t, st.CriticalSubset, 2)
}

func TestParseTaskID(t *testing.T) {
	id, err := ParseTaskID("project_42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = ParseTaskID("task_42")
	assert.Error(t, err)
	_, err = ParseTaskID("project_x")
	assert.Error(t, err)
}

func TestClassForStatus(t *testing.T) {
	assert.Equal(t, "status-pending", ClassForStatus(models.ProjectPending))
	assert.Equal(t, "status-in-progress", ClassForStatus(models.ProjectInProgress))
	assert.Equal(t, "status-on-hold-now", ClassForStatus("on_hold_now"))
}
