// Package search filters loaded board tasks by free text.
//
// Matching is plain case-insensitive substring containment over title and
// description; it only ever sees tasks already loaded into the page cache.
package search

import (
	"strings"

	"github.com/kandev/kanboard/internal/task/models"
)

// Results summarises matches of a query across columns.
type Results struct {
	Count   int                     `json:"count"`
	Columns map[models.ColumnID]int `json:"columns"`
}

// Card is a rendered task as seen by the presentation layer.
type Card struct {
	ID          string
	Title       string
	Description string
}

// Normalize trims and lower-cases a query.
func Normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Matches reports whether the task's title or description contains q.
// An empty query matches everything.
func Matches(task models.Task, q string) bool {
	return contains(task.Title, task.Description, Normalize(q))
}

func contains(title, description, nq string) bool {
	if nq == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), nq) ||
		strings.Contains(strings.ToLower(description), nq)
}

// Compute counts the matches of q in every column. Only tasks whose Column
// equals the column they are listed under are counted. An empty query
// yields a zero count and no per-column entries.
func Compute(q string, loaded map[models.ColumnID][]models.Task, columns []models.ColumnID) Results {
	nq := Normalize(q)
	res := Results{Columns: map[models.ColumnID]int{}}
	if nq == "" {
		return res
	}

	for _, col := range columns {
		n := 0
		for _, task := range loaded[col] {
			if task.Column == col && contains(task.Title, task.Description, nq) {
				n++
			}
		}
		res.Columns[col] = n
		res.Count += n
	}
	return res
}

// Filter returns the tasks visible under q, preserving order.
func Filter(tasks []models.Task, q string) []models.Task {
	nq := Normalize(q)
	out := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if contains(task.Title, task.Description, nq) {
			out = append(out, task)
		}
	}
	return out
}

// FirstMatch returns the id of the first card, in order, matching q.
// It reports false for an empty query or when nothing matches.
func FirstMatch(cards []Card, q string) (string, bool) {
	nq := Normalize(q)
	if nq == "" {
		return "", false
	}
	for _, card := range cards {
		if contains(card.Title, card.Description, nq) {
			return card.ID, true
		}
	}
	return "", false
}
