package fakeremote

import (
	"slices"
	"sort"

	"github.com/p-blackswan/taskboard/internal/models"
)

type account struct {
	user     models.User
	password string
}

type projectRecord struct {
	project models.Project
	deps    []int
	members []int
}

type taskRecord struct {
	task  models.Task
	users []int
}

// dataset is the in-memory state of the fake service. Callers hold
// Server.mu.
type dataset struct {
	users    map[int]*account
	projects map[int]*projectRecord
	tasks    map[int]*taskRecord
	nextID   int
}

func newDataset() *dataset {
	return &dataset{
		users:    map[int]*account{},
		projects: map[int]*projectRecord{},
		tasks:    map[int]*taskRecord{},
	}
}

func (d *dataset) id() int {
	d.nextID++
	return d.nextID
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (d *dataset) findAccount(identifier string) *account {
	for _, id := range sortedKeys(d.users) {
		a := d.users[id]
		if a.user.Username == identifier || a.user.Email == identifier {
			return a
		}
	}
	return nil
}

func (d *dataset) usernameTaken(username string, except int) bool {
	for id, a := range d.users {
		if id != except && a.user.Username == username {
			return true
		}
	}
	return false
}

func (d *dataset) userList() []models.User {
	out := make([]models.User, 0, len(d.users))
	for _, id := range sortedKeys(d.users) {
		out = append(out, d.users[id].user)
	}
	return out
}

// projectView returns the project with its direct dependencies expanded one
// level.
func (d *dataset) projectView(id int) models.Project {
	rec := d.projects[id]
	p := rec.project
	p.Dependencies = nil
	for _, depID := range rec.deps {
		if dep, ok := d.projects[depID]; ok {
			p.Dependencies = append(p.Dependencies, dep.project)
		}
	}
	return p
}

func (d *dataset) projectList() []models.Project {
	out := make([]models.Project, 0, len(d.projects))
	for _, id := range sortedKeys(d.projects) {
		out = append(out, d.projectView(id))
	}
	return out
}

func (d *dataset) taskList(keep func(*taskRecord) bool) []models.Task {
	out := []models.Task{}
	for _, id := range sortedKeys(d.tasks) {
		if rec := d.tasks[id]; keep == nil || keep(rec) {
			out = append(out, rec.task)
		}
	}
	return out
}

func (d *dataset) usersByID(ids []int) []models.User {
	out := []models.User{}
	for _, id := range ids {
		if a, ok := d.users[id]; ok {
			out = append(out, a.user)
		}
	}
	return out
}

// progress is the share of finished tasks of project id, in percent.
func (d *dataset) progress(id int) float64 {
	var total, done int
	for _, rec := range d.tasks {
		if rec.task.ProjectID != id {
			continue
		}
		total++
		if rec.task.Finished {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) * 100 / float64(total)
}

func (d *dataset) deleteProject(id int) {
	delete(d.projects, id)
	for _, rec := range d.projects {
		rec.deps = slices.DeleteFunc(rec.deps, func(dep int) bool { return dep == id })
	}
	for tid, rec := range d.tasks {
		if rec.task.ProjectID == id {
			delete(d.tasks, tid)
		}
	}
}

// SeedUser adds an account and returns it.
func (s *Server) SeedUser(username, email, password string, role models.Role) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.data.id(), Username: username, Email: email, Role: role}
	s.data.users[u.ID] = &account{user: u, password: password}
	return u
}

// SeedProject adds a project depending on deps and returns it.
func (s *Server) SeedProject(p models.Project, deps ...int) models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.data.id()
	if p.Status == "" {
		p.Status = models.ProjectPending
	}
	p.Tasks, p.Dependencies = nil, nil
	s.data.projects[p.ID] = &projectRecord{project: p, deps: slices.Clone(deps)}
	return s.data.projectView(p.ID)
}

// SeedTask adds a task assigned to users and returns it.
func (s *Server) SeedTask(t models.Task, users ...int) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.data.id()
	if t.Workload == "" {
		t.Workload = models.WorkloadMedium
	}
	s.data.tasks[t.ID] = &taskRecord{task: t, users: slices.Clone(users)}
	return t
}
