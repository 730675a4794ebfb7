// Package models holds the client-side copies of the remote entities.
package models

// Entity is implemented by every type mirrored in a collection store.
type Entity interface {
	EntityID() int
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// Workload is the size class of a task.
type Workload string

const (
	WorkloadLight  Workload = "light"
	WorkloadMedium Workload = "medium"
	WorkloadHeavy  Workload = "heavy"
)

// RiskLevel is the remote's assessment of a project's burn-down.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// User is a read-mostly copy of a remote account.
type User struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Profile     *string  `json:"profile,omitempty"`
	Performance *float64 `json:"performance,omitempty"`
	Outstanding *bool    `json:"outstanding,omitempty"`
	TaskID      *int     `json:"task_id,omitempty"`
}

func (u User) EntityID() int { return u.ID }

// Project is a unit of scheduled work. Dependencies lists the projects this
// one depends on.
type Project struct {
	ID                int           `json:"id"`
	Name              string        `json:"name"`
	Description       *string       `json:"description,omitempty"`
	Status            ProjectStatus `json:"status"`
	EstimatedDuration *int          `json:"estimated_duration,omitempty"`
	StartTime         *string       `json:"start_time,omitempty"`
	EndTime           *string       `json:"end_time,omitempty"`
	HeadID            *int          `json:"head_id,omitempty"`
	Tasks             []Task        `json:"tasks,omitempty"`
	Dependencies      []Project     `json:"dependencies,omitempty"`
}

func (p Project) EntityID() int { return p.ID }

// Task belongs to exactly one project.
type Task struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Workload    Workload `json:"workload"`
	Finished    bool     `json:"finished"`
	ProjectID   int      `json:"project_id"`
	HeadID      *int     `json:"head_id,omitempty"`
}

func (t Task) EntityID() int { return t.ID }

// ProjectInput is the create/update body for projects. Nil fields are left
// out of the request.
type ProjectInput struct {
	Name              string         `json:"name,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Status            *ProjectStatus `json:"status,omitempty"`
	EstimatedDuration *int           `json:"estimated_duration,omitempty"`
	StartTime         *string        `json:"start_time,omitempty"`
	EndTime           *string        `json:"end_time,omitempty"`
	HeadID            *int           `json:"head_id,omitempty"`
}

// TaskInput is the create body for tasks.
type TaskInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Workload    Workload `json:"workload"`
	Finished    bool     `json:"finished"`
	ProjectID   int      `json:"project_id"`
	HeadID      *int     `json:"head_id,omitempty"`
}

// TaskPatch is the partial update body for tasks.
type TaskPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Workload    *Workload `json:"workload,omitempty"`
	Finished    *bool     `json:"finished,omitempty"`
	ProjectID   *int      `json:"project_id,omitempty"`
	HeadID      *int      `json:"head_id,omitempty"`
}

// ProgressPoint is one sample of a progress series.
type ProgressPoint struct {
	Date     string  `json:"date"`
	Progress float64 `json:"progress"`
}

// BurnDown is the remote-computed burn-down of one project.
type BurnDown struct {
	ActualProgresses []ProgressPoint `json:"actual_progresses"`
	IdealProgresses  []ProgressPoint `json:"ideal_progresses"`
	RiskLevel        RiskLevel       `json:"risk_level"`
}

// ScheduleProject is one entry of the flat schedule source.
type ScheduleProject struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Status       ProjectStatus `json:"status"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Progress     float64       `json:"progress"`
	Dependencies []int         `json:"dependencies"`
}

// CriticalPath is the remote critical-path result.
type CriticalPath struct {
	Path              []int           `json:"critical_path"`
	TotalDurationDays float64         `json:"total_duration_days"`
	Weights           map[int]float64 `json:"weights"`
}
