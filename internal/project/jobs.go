package project

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/camkernel/internal/model"
)

// SaveJob writes a job description as YAML (.yaml, .yml) or JSON.
func SaveJob(path string, job model.Job) error {
	if job.Operations == nil {
		job.Operations = []model.Operation{}
	}
	if err := writeFile(path, job); err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// LoadJob reads a job description written by SaveJob or by hand. A job
// without an ID gets a generated one; operation types and tool references
// are checked when the job is planned.
func LoadJob(path string) (model.Job, error) {
	var job model.Job
	if err := readFile(path, &job); err != nil {
		return model.Job{}, fmt.Errorf("loading job: %w", err)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()[:8]
	}
	if job.Operations == nil {
		job.Operations = []model.Operation{}
	}
	if job.Controller != "" {
		c, err := model.ParseControllerType(string(job.Controller))
		if err != nil {
			return model.Job{}, fmt.Errorf("loading job: %w", err)
		}
		job.Controller = c
	}
	return job, nil
}
