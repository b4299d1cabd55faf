// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package questions loads the research-task question table. The stock
// table (ten CORD-19 tasks) is embedded; a YAML file with the same layout
// can replace it.
package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cord-answers/pkg/types"
)

//go:embed table.yaml
var defaultTable []byte

// ErrUnknownTask is returned when a task index is outside the table.
var ErrUnknownTask = errors.New("unknown task")

// Table is an immutable, ordered list of tasks. Copies returned by its
// methods may be modified freely.
type Table struct {
	tasks []types.Task
}

type tableFile struct {
	Tasks []types.Task `yaml:"tasks"`
}

// Default returns the embedded ten-task table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded question table: %v", err))
	}
	return t
}

// Load reads a question table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a question table and checks that every task has a
// general question.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding question table: %w", err)
	}
	if len(f.Tasks) == 0 {
		return nil, fmt.Errorf("question table has no tasks")
	}
	for i, t := range f.Tasks {
		if t.General == "" {
			return nil, fmt.Errorf("task %d: general question is empty", i)
		}
	}
	return &Table{tasks: f.Tasks}, nil
}

// New builds a table from tasks held in memory, mostly for tests.
func New(tasks ...types.Task) *Table {
	cp := make([]types.Task, len(tasks))
	for i, t := range tasks {
		cp[i] = cloneTask(t)
	}
	return &Table{tasks: cp}
}

// Len returns the number of tasks.
func (t *Table) Len() int { return len(t.tasks) }

// Task returns a copy of the task at index i.
func (t *Table) Task(i int) (types.Task, error) {
	if i < 0 || i >= len(t.tasks) {
		return types.Task{}, fmt.Errorf("%w: %d (table has %d tasks)", ErrUnknownTask, i, len(t.tasks))
	}
	return cloneTask(t.tasks[i]), nil
}

// Tasks returns a copy of every task in order.
func (t *Table) Tasks() []types.Task {
	out := make([]types.Task, len(t.tasks))
	for i, task := range t.tasks {
		out[i] = cloneTask(task)
	}
	return out
}

// Marshal encodes the table in the same YAML layout Parse accepts.
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(tableFile{Tasks: t.tasks})
}

func cloneTask(t types.Task) types.Task {
	return types.Task{
		General:  t.General,
		Detail:   append([]string(nil), t.Detail...),
		Specific: append([]string(nil), t.Specific...),
	}
}
