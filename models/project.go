package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Project struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Status      string             `json:"status" bson:"status"`
	// Progress is derived from member tasks and recomputed on every
	// completion-affecting mutation. It is never written by clients.
	Progress  int                  `json:"progress" bson:"progress"`
	ManagerID primitive.ObjectID   `json:"managerId" bson:"managerId"`
	Members   []primitive.ObjectID `json:"members" bson:"members"`
	StartDate *time.Time           `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate   *time.Time           `json:"endDate,omitempty" bson:"endDate,omitempty"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}
