package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Subtask lives only inside its task document; it has no collection of its own.
type Subtask struct {
	ID        string `json:"id" bson:"id"`
	Title     string `json:"title" bson:"title"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Task struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ProjectID      string               `json:"projectId" bson:"projectId"`
	Title          string               `json:"title" bson:"title"`
	Description    string               `json:"description" bson:"description"`
	Status         TaskStatus           `json:"status" bson:"status"`
	Priority       string               `json:"priority" bson:"priority"`
	Subtasks       []Subtask            `json:"subtasks" bson:"subtasks"`
	Assignees      []primitive.ObjectID `json:"assignees" bson:"assignees"`
	DueDate        *time.Time           `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CompletedDate  *time.Time           `json:"completedDate,omitempty" bson:"completedDate,omitempty"`
	EstimatedHours float64              `json:"estimatedHours" bson:"estimatedHours"`
	ActualHours    float64              `json:"actualHours" bson:"actualHours"`
	CreatedBy      primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}
