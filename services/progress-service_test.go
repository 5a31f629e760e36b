package services

import (
	"testing"

	"github.com/Sean4E/PMHub2/models"

	"github.com/stretchr/testify/assert"
)

func subtasks(completed ...bool) []models.Subtask {
	out := make([]models.Subtask, len(completed))
	for i, done := range completed {
		out[i] = models.Subtask{ID: "st", Title: "subtask", Completed: done}
	}
	return out
}

func TestTaskCompletionWithoutSubtasks(t *testing.T) {
	tests := []struct {
		name   string
		status models.TaskStatus
		want   int
	}{
		{"todo", models.StatusTodo, 0},
		{"in-progress", models.StatusInProgress, 0},
		{"review", models.StatusReview, 0},
		{"done", models.StatusDone, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := models.Task{Status: tc.status}
			assert.Equal(t, tc.want, TaskCompletion(task))
		})
	}
}

func TestTaskCompletionWithSubtasksIgnoresStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   models.TaskStatus
		subtasks []models.Subtask
		want     int
	}{
		{"one of three", models.StatusInProgress, subtasks(true, false, false), 33},
		{"two of three", models.StatusInProgress, subtasks(true, true, false), 67},
		{"all complete but status todo", models.StatusTodo, subtasks(true, true), 100},
		{"none complete but status done", models.StatusDone, subtasks(false, false), 0},
		{"half", models.StatusReview, subtasks(true, false), 50},
		{"single complete", models.StatusTodo, subtasks(true), 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := models.Task{Status: tc.status, Subtasks: tc.subtasks}
			assert.Equal(t, tc.want, TaskCompletion(task))
		})
	}
}

func TestTaskCompletionScenario(t *testing.T) {
	// Two of three subtasks complete while the task is still in progress.
	task := models.Task{
		Status:   models.StatusInProgress,
		Subtasks: subtasks(true, true, false),
	}
	assert.Equal(t, 67, TaskCompletion(task))
}

func TestProjectProgressEmpty(t *testing.T) {
	assert.Equal(t, 0, ProjectProgress(nil))
	assert.Equal(t, 0, ProjectProgress([]models.Task{}))
}

func TestProjectProgressMean(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.Task
		want  int
	}{
		{
			"100 and 50 average to 75",
			[]models.Task{
				{Status: models.StatusDone},
				{Status: models.StatusInProgress, Subtasks: subtasks(true, false)},
			},
			75,
		},
		{
			"all done",
			[]models.Task{{Status: models.StatusDone}, {Status: models.StatusDone}},
			100,
		},
		{
			"nothing started",
			[]models.Task{{Status: models.StatusTodo}, {Status: models.StatusInProgress}},
			0,
		},
		{
			"thirds round",
			[]models.Task{
				{Status: models.StatusDone},
				{Status: models.StatusTodo},
				{Status: models.StatusTodo},
			},
			33,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProjectProgress(tc.tasks))
		})
	}
}

func TestProjectProgressUnweighted(t *testing.T) {
	// A large task counts the same as a small one.
	tasks := []models.Task{
		{Status: models.StatusDone, EstimatedHours: 100},
		{Status: models.StatusTodo, EstimatedHours: 1},
	}
	assert.Equal(t, 50, ProjectProgress(tasks))
}
