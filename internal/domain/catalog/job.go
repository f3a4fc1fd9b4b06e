package catalog

import (
	"time"

	"github.com/m13/backoffice/internal/domain/shared"
)

// DefaultJobRetention is how long job records are kept
const DefaultJobRetention = 30 * 24 * time.Hour

// Job records the execution of a management command or scheduled task
type Job struct {
	shared.BaseEntity
	Cmd         string    `gorm:"type:varchar(256);not null;index"`
	Description string    `gorm:"type:varchar(256)"`
	Start       time.Time `gorm:"not null;index"`
	End         *time.Time
	Successful  bool   `gorm:"not null;default:false"`
	Message     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// StartJob creates a job record in the running state
func StartJob(cmd, description string) *Job {
	return &Job{
		BaseEntity:  shared.NewBaseEntity(),
		Cmd:         cmd,
		Description: description,
		Start:       time.Now(),
	}
}

// Finish closes the job record
func (j *Job) Finish(err error) {
	now := time.Now()
	j.End = &now
	j.Successful = err == nil
	if err != nil {
		j.Message = err.Error()
	}
	j.UpdatedAt = now
}

// Duration returns the run time, zero while running
func (j *Job) Duration() time.Duration {
	if j.End == nil {
		return 0
	}
	return j.End.Sub(j.Start)
}
