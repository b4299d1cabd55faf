// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cord-answers pipeline:
// paper records, manifests, result records, the question table, and the
// stage configuration structs.
package types

// Task is one research question together with its sub-questions.
// Questions are evaluated general first, then Detail in order, then
// Specific in order.
type Task struct {
	// General is the task's top-level question; it is also written into
	// every result record for the task.
	General string `json:"general" yaml:"general"`

	// Detail lists the detailed questions in declaration order.
	Detail []string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Specific lists the specific questions in declaration order.
	Specific []string `json:"specific,omitempty" yaml:"specific,omitempty"`
}

// Questions returns every question of the task in evaluation order.
func (t Task) Questions() []string {
	qs := make([]string, 0, 1+len(t.Detail)+len(t.Specific))
	qs = append(qs, t.General)
	qs = append(qs, t.Detail...)
	qs = append(qs, t.Specific...)
	return qs
}
