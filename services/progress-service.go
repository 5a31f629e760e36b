package services

import (
	"math"

	"github.com/Sean4E/PMHub2/models"
)

// TaskCompletion returns a task's completion percentage. With no subtasks
// the status decides: done is 100, anything else 0. With subtasks the
// percentage comes from the subtask checklist alone and the status is
// ignored, so a task marked done can still report less than 100. Both
// signals stay independently queryable.
func TaskCompletion(task models.Task) int {
	if len(task.Subtasks) == 0 {
		if task.Status == models.StatusDone {
			return 100
		}
		return 0
	}

	completed := 0
	for _, st := range task.Subtasks {
		if st.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(task.Subtasks)) * 100))
}

// ProjectProgress returns the unweighted mean of TaskCompletion over the
// project's tasks, rounded to the nearest integer. No tasks means 0.
func ProjectProgress(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}

	total := 0
	for _, task := range tasks {
		total += TaskCompletion(task)
	}
	return int(math.Round(float64(total) / float64(len(tasks))))
}
