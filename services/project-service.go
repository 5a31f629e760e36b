package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Sean4E/PMHub2/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProjectService struct {
	ProjectsCollection *mongo.Collection
	TaskService        *TaskService
}

func NewProjectService(projectsCollection *mongo.Collection, taskService *TaskService) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projectsCollection,
		TaskService:        taskService,
	}
}

func (s *ProjectService) CreateProject(project models.Project, managerID primitive.ObjectID) (*models.Project, error) {
	if project.Name == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}

	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.ManagerID = managerID
	project.Progress = 0
	if project.Status == "" {
		project.Status = "active"
	}
	if project.Members == nil {
		project.Members = []primitive.ObjectID{}
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := s.ProjectsCollection.InsertOne(context.Background(), project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)
	return &project, nil
}

func (s *ProjectService) GetProjectByID(projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := s.ProjectsCollection.FindOne(context.Background(), bson.M{"_id": projectID}).Decode(&project); err != nil {
		return nil, fmt.Errorf("project not found: %v", err)
	}
	return &project, nil
}

func (s *ProjectService) GetAllProjects() ([]models.Project, error) {
	cursor, err := s.ProjectsCollection.Find(context.Background(), bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %v", err)
	}
	defer cursor.Close(context.Background())

	projects := []models.Project{}
	if err := cursor.All(context.Background(), &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

// UpdateProject writes the project's user-editable fields. Progress is
// excluded: it only moves through the recompute path.
func (s *ProjectService) UpdateProject(projectID primitive.ObjectID, updated models.Project) (*models.Project, error) {
	set := bson.M{
		"name":        updated.Name,
		"description": updated.Description,
		"status":      updated.Status,
		"members":     updated.Members,
		"startDate":   updated.StartDate,
		"endDate":     updated.EndDate,
		"updatedAt":   time.Now(),
	}

	result, err := s.ProjectsCollection.UpdateOne(context.Background(), bson.M{"_id": projectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("project not found for update")
	}

	return s.GetProjectByID(projectID)
}

// DeleteProject destroys a project and cascade-deletes its tasks first, so
// no task can outlive its owner.
func (s *ProjectService) DeleteProject(projectID primitive.ObjectID) error {
	if err := s.TaskService.DeleteTasksByProject(projectID.Hex()); err != nil {
		return err
	}

	result, err := s.ProjectsCollection.DeleteOne(context.Background(), bson.M{"_id": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("project not found for delete")
	}
	return nil
}
