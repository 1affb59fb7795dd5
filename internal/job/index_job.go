package job

import (
	"context"

	"github.com/fedro86/almost-a-cms/internal/generator"
)

type Regenerator interface {
	Generate(ctx context.Context) (*generator.Result, error)
}

// IndexJob rebuilds the static index on a schedule, picking up documents
// changed outside the editor.
type IndexJob struct {
	generator Regenerator
}

func NewIndexJob(generator Regenerator) *IndexJob {
	return &IndexJob{generator: generator}
}

func (j *IndexJob) Name() string {
	return "index_regenerate"
}

func (j *IndexJob) Run(ctx context.Context) error {
	if j.generator == nil {
		return nil
	}
	_, err := j.generator.Generate(ctx)
	return err
}
