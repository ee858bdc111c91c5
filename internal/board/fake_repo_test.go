package board

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kandev/kanboard/internal/task/models"
)

type updateCall struct {
	ID    string
	Patch models.TaskPatch
}

// fakeRepo is an in-memory TaskRepository that records calls.
type fakeRepo struct {
	mu     sync.Mutex
	tasks  []models.Task
	nextID int

	lists   []models.ListFilter
	creates []models.CreateTaskRequest
	updates []updateCall
	deletes []string

	failList   error
	failQuery  string
	failCreate error
	failUpdate error
	failDelete error

	// hooks run without the lock held
	beforeList   func(filter models.ListFilter)
	beforeUpdate func(id string, patch models.TaskPatch)
}

func newFakeRepo(tasks ...models.Task) *fakeRepo {
	r := &fakeRepo{nextID: 1}
	for _, t := range tasks {
		r.insert(t)
	}
	return r
}

func (r *fakeRepo) insert(t models.Task) {
	r.tasks = append(r.tasks, t)
	sort.SliceStable(r.tasks, func(i, j int) bool {
		a, _ := r.tasks[i].NumericID()
		b, _ := r.tasks[j].NumericID()
		return a < b
	})
	if n, ok := t.NumericID(); ok && int(n) >= r.nextID {
		r.nextID = int(n) + 1
	}
}

func (r *fakeRepo) List(ctx context.Context, filter models.ListFilter) ([]models.Task, error) {
	if r.beforeList != nil {
		r.beforeList(filter)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lists = append(r.lists, filter)
	if r.failList != nil {
		return nil, r.failList
	}
	if r.failQuery != "" && filter.Query == r.failQuery {
		return nil, fmt.Errorf("search %q failed", filter.Query)
	}

	var matched []models.Task
	for _, t := range r.tasks {
		if filter.Column != "" && t.Column != filter.Column {
			continue
		}
		if q := filter.Query; q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		matched = append(matched, t)
	}
	start := filter.Offset()
	if start >= len(matched) {
		return []models.Task{}, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.Task(nil), matched[start:end]...), nil
}

func (r *fakeRepo) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creates = append(r.creates, req)
	if r.failCreate != nil {
		return nil, r.failCreate
	}
	task := models.Task{ID: req.ID, Title: req.Title, Description: req.Description, Column: req.Column}
	if task.ID == "" {
		task.ID = strconv.Itoa(r.nextID)
	}
	r.insert(task)
	return &task, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id, patch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates = append(r.updates, updateCall{ID: id, Patch: patch})
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			patch.Apply(&r.tasks[i])
			task := r.tasks[i]
			return &task, nil
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes = append(r.deletes, id)
	if r.failDelete != nil {
		return r.failDelete
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s not found", id)
}

func (r *fakeRepo) calls() (lists, creates, updates, deletes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists), len(r.creates), len(r.updates), len(r.deletes)
}

func (r *fakeRepo) lastUpdate() updateCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

func (r *fakeRepo) setFailUpdate(err error) {
	r.mu.Lock()
	r.failUpdate = err
	r.mu.Unlock()
}

func numbered(n int, column models.ColumnID, firstID int) []models.Task {
	out := make([]models.Task, n)
	for i := range out {
		id := firstID + i
		out[i] = models.Task{ID: strconv.Itoa(id), Title: fmt.Sprintf("task %d", id), Column: column}
	}
	return out
}
