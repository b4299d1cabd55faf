//go:build mage

package main

import (
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups the targets that run cord-answers stages with the
// configuration found in ./cord-answers.yaml.
type Pipeline mg.Namespace

// Walk builds the paper manifest of every source type.
func (Pipeline) Walk() error {
	return sh.RunV(binary(), "walk")
}

// Answer writes result records for the given task.
func (Pipeline) Answer(task int) error {
	return sh.RunV(binary(), "answer", "--task", strconv.Itoa(task))
}

// Merge merges the result records of the given task.
func (Pipeline) Merge(task int) error {
	return sh.RunV(binary(), "merge", "--task", strconv.Itoa(task))
}

// Run executes walk, answer, and merge for the given task, then indexes
// the merged answers.
func (Pipeline) Run(task int) error {
	if err := sh.RunV(binary(), "run", "--task", strconv.Itoa(task)); err != nil {
		return err
	}
	return sh.RunV(binary(), "store", "ingest")
}

// Index ingests every merged answers file into the answer store.
func (Pipeline) Index() error {
	return sh.RunV(binary(), "store", "ingest")
}
