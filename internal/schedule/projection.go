// Package schedule turns the flat project list and the remote critical-path
// result into render-ready gantt rows.
package schedule

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/models"
)

// IDPrefix is prepended to project ids in gantt rows.
const IDPrefix = "project_"

// API is the subset of the transport used by the projection.
type API interface {
	Get(ctx context.Context, path string, out any) error
}

// GanttTask is one render-ready schedule row. Dependencies is a
// comma-joined list of prefixed ids.
type GanttTask struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Progress     float64 `json:"progress"`
	Dependencies string  `json:"dependencies"`
	CustomClass  string  `json:"custom_class"`
}

// State is a consistent view of the projection.
type State struct {
	All            []GanttTask
	CriticalSubset []GanttTask
	CriticalMeta   *models.CriticalPath
	Loading        bool
	Error          string
}

// Projection holds the derived schedule data.
type Projection struct {
	api     API
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu       sync.RWMutex
	all      []GanttTask
	critical []GanttTask
	meta     *models.CriticalPath
	loading  bool
	err      string
}

// New creates an empty projection.
func New(api API, logger zerolog.Logger, m *metrics.Metrics) *Projection {
	return &Projection{
		api:     api,
		metrics: m,
		logger:  logger.With().Str("component", "schedule").Logger(),
	}
}

// Snapshot returns the current state.
func (p *Projection) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := State{
		All:            slices.Clone(p.all),
		CriticalSubset: slices.Clone(p.critical),
		Loading:        p.loading,
		Error:          p.err,
	}
	if p.meta != nil {
		meta := *p.meta
		st.CriticalMeta = &meta
	}
	return st
}

// All returns every gantt row.
func (p *Projection) All() []GanttTask {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.all)
}

// CriticalSubset returns the rows on the critical path.
func (p *Projection) CriticalSubset() []GanttTask {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.critical)
}

// FetchScheduleData replaces all rows with the remote project data.
func (p *Projection) FetchScheduleData(ctx context.Context) ([]GanttTask, error) {
	err := p.track("fetch_schedule", func() error {
		var projects []models.ScheduleProject
		if err := p.api.Get(ctx, "/api/gantt/project-data", &projects); err != nil {
			return err
		}
		rows := make([]GanttTask, 0, len(projects))
		for _, sp := range projects {
			rows = append(rows, ToGanttTask(sp))
		}

		p.mu.Lock()
		p.all = rows
		p.recomputeLocked()
		p.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.All(), nil
}

// FetchCriticalPath stores the remote critical path and recomputes the
// subset. With no rows loaded the subset stays empty; rows are not fetched.
func (p *Projection) FetchCriticalPath(ctx context.Context) (*models.CriticalPath, error) {
	var cp models.CriticalPath
	err := p.track("fetch_critical_path", func() error {
		if err := p.api.Get(ctx, "/api/gantt/critical-path", &cp); err != nil {
			return err
		}
		p.mu.Lock()
		meta := cp
		p.meta = &meta
		p.recomputeLocked()
		p.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// recomputeLocked rebuilds the critical subset from all and meta.
func (p *Projection) recomputeLocked() {
	if p.meta == nil || len(p.all) == 0 {
		p.critical = nil
		return
	}
	subset := make([]GanttTask, 0, len(p.meta.Path))
	for _, row := range p.all {
		id, err := ParseTaskID(row.ID)
		if err != nil {
			continue
		}
		if slices.Contains(p.meta.Path, id) {
			subset = append(subset, row)
		}
	}
	p.critical = subset
}

func (p *Projection) track(op string, fn func() error) (err error) {
	p.mu.Lock()
	p.loading = true
	p.err = ""
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		if err != nil {
			p.err = perrors.Message(err)
		}
		p.mu.Unlock()

		result := "ok"
		if err != nil {
			result = string(perrors.KindOf(err))
			p.logger.Warn().Err(err).Str("op", op).Msg("schedule fetch failed")
		}
		p.metrics.RecordStoreOp("schedule", op, result)
	}()
	return fn()
}

// ToGanttTask maps one schedule project to a gantt row.
func ToGanttTask(sp models.ScheduleProject) GanttTask {
	deps := make([]string, len(sp.Dependencies))
	for i, d := range sp.Dependencies {
		deps[i] = TaskID(d)
	}
	return GanttTask{
		ID:           TaskID(sp.ID),
		Name:         sp.Name,
		Start:        sp.StartTime,
		End:          sp.EndTime,
		Progress:     sp.Progress,
		Dependencies: strings.Join(deps, ","),
		CustomClass:  ClassForStatus(sp.Status),
	}
}

// TaskID returns the gantt row id of project id.
func TaskID(id int) string {
	return IDPrefix + strconv.Itoa(id)
}

// ParseTaskID returns the project id of a gantt row id.
func ParseTaskID(s string) (int, error) {
	raw, ok := strings.CutPrefix(s, IDPrefix)
	if !ok {
		return 0, fmt.Errorf("gantt id %q lacks prefix %q", s, IDPrefix)
	}
	return strconv.Atoi(raw)
}

// ClassForStatus derives the display class, e.g. in_progress becomes
// status-in-progress.
func ClassForStatus(status models.ProjectStatus) string {
	return "status-" + strings.ReplaceAll(string(status), "_", "-")
}
