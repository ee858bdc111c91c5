// Package seed loads YAML task fixtures into an empty task store.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/repository"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture is the on-disk seed format.
type Fixture struct {
	Tasks []models.Task `yaml:"tasks"`
}

// Parse decodes and validates a fixture.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Tasks))
	for i, task := range f.Tasks {
		if task.Title == "" {
			return nil, fmt.Errorf("seed task %d: title is required", i)
		}
		if !task.Column.Valid() {
			return nil, fmt.Errorf("seed task %d: unknown column %q", i, task.Column)
		}
		if task.ID == "" {
			continue
		}
		if _, dup := seen[task.ID]; dup {
			return nil, fmt.Errorf("seed task %d: duplicate id %q", i, task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return &f, nil
}

// Load reads the fixture at path, or the built-in sample tasks when path is empty.
func Load(path string) (*Fixture, error) {
	if path == "" {
		return Parse(defaultFixture)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed fixture: %w", err)
	}
	return Parse(data)
}

// Apply inserts the fixture tasks when the store is empty. It returns the
// number of tasks inserted.
func Apply(ctx context.Context, repo repository.Repository, f *Fixture, log *logger.Logger) (int, error) {
	count, err := repo.CountTasks(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Debug("task store not empty, skipping seed", zap.Int("tasks", count))
		return 0, nil
	}

	inserted := 0
	for i := range f.Tasks {
		task := f.Tasks[i]
		if err := repo.CreateTask(ctx, &task); err != nil {
			if errors.Is(err, repository.ErrTaskExists) {
				continue
			}
			return inserted, fmt.Errorf("failed to seed task %q: %w", task.Title, err)
		}
		inserted++
	}
	log.Info("seeded task store", zap.Int("tasks", inserted))
	return inserted, nil
}
