package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Sean4E/PMHub2/logging"
	"github.com/Sean4E/PMHub2/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskService struct {
	TasksCollection     *mongo.Collection
	ProjectsCollection  *mongo.Collection
	CommentsCollection  *mongo.Collection
	NotificationService *NotificationService
}

func NewTaskService(tasksCollection, projectsCollection, commentsCollection *mongo.Collection, notificationService *NotificationService) *TaskService {
	return &TaskService{
		TasksCollection:     tasksCollection,
		ProjectsCollection:  projectsCollection,
		CommentsCollection:  commentsCollection,
		NotificationService: notificationService,
	}
}

// CreateTask inserts a task and returns it together with the project's
// recomputed progress, or -1 when the recompute failed and no trustworthy
// value exists.
func (s *TaskService) CreateTask(task models.Task, createdBy primitive.ObjectID) (*models.Task, int, error) {
	projectObjectID, err := primitive.ObjectIDFromHex(task.ProjectID)
	if err != nil {
		return nil, -1, fmt.Errorf("invalid project ID format: %v", err)
	}

	var project models.Project
	if err := s.ProjectsCollection.FindOne(context.Background(), bson.M{"_id": projectObjectID}).Decode(&project); err != nil {
		return nil, -1, fmt.Errorf("project not found: %v", err)
	}

	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == "" {
			task.Subtasks[i].ID = uuid.New().String()
		}
	}

	now := time.Now()
	task.ID = primitive.NewObjectID()
	task.CreatedBy = createdBy
	task.CreatedAt = now
	task.UpdatedAt = now

	result, err := s.TasksCollection.InsertOne(context.Background(), task)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to create task: %v", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)

	// The created task changes the project's task set, so the derived
	// progress has to follow. A recompute failure never undoes the insert.
	progress, err := s.RecomputeProjectProgress(task.ProjectID)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: Progress recompute for project %s failed after task create: %v", task.ProjectID, err)
		progress = -1
	}

	s.notifyAssignees(&task)

	return &task, progress, nil
}

func (s *TaskService) GetTaskByID(taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, fmt.Errorf("task not found: %v", err)
	}
	return &task, nil
}

func (s *TaskService) GetTasksByProject(projectID string) ([]models.Task, error) {
	cursor, err := s.TasksCollection.Find(context.Background(), bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(context.Background())

	tasks := []models.Task{}
	if err := cursor.All(context.Background(), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// UpdateTask replaces a task's mutable fields. completedDate is derived: it
// is stamped exactly when the status transitions into done and is never
// accepted from the caller. The second return value is the project's
// recomputed progress, -1 when the recompute failed.
func (s *TaskService) UpdateTask(taskID primitive.ObjectID, updated models.Task) (*models.Task, int, error) {
	var existing models.Task
	if err := s.TasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&existing); err != nil {
		return nil, -1, fmt.Errorf("task not found: %v", err)
	}

	for i := range updated.Subtasks {
		if updated.Subtasks[i].ID == "" {
			updated.Subtasks[i].ID = uuid.New().String()
		}
	}

	set := bson.M{
		"title":          updated.Title,
		"description":    updated.Description,
		"status":         updated.Status,
		"priority":       updated.Priority,
		"subtasks":       updated.Subtasks,
		"dueDate":        updated.DueDate,
		"estimatedHours": updated.EstimatedHours,
		"actualHours":    updated.ActualHours,
		"updatedAt":      time.Now(),
	}
	if updated.Status == models.StatusDone && existing.Status != models.StatusDone {
		set["completedDate"] = time.Now()
	}

	if _, err := s.TasksCollection.UpdateOne(context.Background(), bson.M{"_id": taskID}, bson.M{"$set": set}); err != nil {
		return nil, -1, fmt.Errorf("failed to update task: %v", err)
	}

	var task models.Task
	if err := s.TasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, -1, fmt.Errorf("failed to retrieve updated task: %v", err)
	}

	progress, err := s.RecomputeProjectProgress(task.ProjectID)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: Progress recompute for project %s failed after task update: %v", task.ProjectID, err)
		progress = -1
	}

	return &task, progress, nil
}

// DeleteTask removes a task and every comment attached to it, then
// recomputes the owning project's progress.
func (s *TaskService) DeleteTask(taskID primitive.ObjectID) error {
	var task models.Task
	if err := s.TasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task); err != nil {
		return fmt.Errorf("task not found: %v", err)
	}

	if _, err := s.TasksCollection.DeleteOne(context.Background(), bson.M{"_id": taskID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	if _, err := s.CommentsCollection.DeleteMany(context.Background(), bson.M{"taskId": taskID}); err != nil {
		return fmt.Errorf("failed to delete comments for task %s: %v", taskID.Hex(), err)
	}

	if _, err := s.RecomputeProjectProgress(task.ProjectID); err != nil {
		logging.Logger.Errorf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: Progress recompute for project %s failed after task delete: %v", task.ProjectID, err)
	}
	return nil
}

// DeleteTasksByProject removes every task owned by a project and their
// comments. Used by the project cascade delete; no recompute, the project
// itself is going away.
func (s *TaskService) DeleteTasksByProject(projectID string) error {
	cursor, err := s.TasksCollection.Find(context.Background(), bson.M{"projectId": projectID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return fmt.Errorf("failed to list tasks for project %s: %v", projectID, err)
	}
	defer cursor.Close(context.Background())

	var refs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(context.Background(), &refs); err != nil {
		return fmt.Errorf("failed to decode task IDs for project %s: %v", projectID, err)
	}

	if _, err := s.TasksCollection.DeleteMany(context.Background(), bson.M{"projectId": projectID}); err != nil {
		return fmt.Errorf("failed to delete tasks for project %s: %v", projectID, err)
	}

	if len(refs) > 0 {
		taskIDs := make([]primitive.ObjectID, 0, len(refs))
		for _, ref := range refs {
			taskIDs = append(taskIDs, ref.ID)
		}
		if _, err := s.CommentsCollection.DeleteMany(context.Background(), bson.M{"taskId": bson.M{"$in": taskIDs}}); err != nil {
			return fmt.Errorf("failed to delete comments for project %s: %v", projectID, err)
		}
	}
	return nil
}

// RecomputeProjectProgress reads the project's current tasks, derives the
// progress percentage, persists it and returns the value it stored.
func (s *TaskService) RecomputeProjectProgress(projectID string) (int, error) {
	projectObjectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return 0, fmt.Errorf("invalid project ID format: %v", err)
	}

	tasks, err := s.GetTasksByProject(projectID)
	if err != nil {
		return 0, err
	}

	progress := ProjectProgress(tasks)

	update := bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now()}}
	if _, err := s.ProjectsCollection.UpdateOne(context.Background(), bson.M{"_id": projectObjectID}, update); err != nil {
		return 0, fmt.Errorf("failed to persist project progress: %v", err)
	}
	return progress, nil
}

func (s *TaskService) AddComment(taskID, userID primitive.ObjectID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("comment content must not be empty")
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if _, err := s.CommentsCollection.InsertOne(context.Background(), comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %v", err)
	}
	return &comment, nil
}

func (s *TaskService) GetCommentsForTask(taskID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := s.CommentsCollection.Find(context.Background(), bson.M{"taskId": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve comments: %v", err)
	}
	defer cursor.Close(context.Background())

	comments := []models.Comment{}
	if err := cursor.All(context.Background(), &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %v", err)
	}
	return comments, nil
}

// notifyAssignees fires best-effort assignment notifications through the
// notifications service breaker. Delivery failures are logged only.
func (s *TaskService) notifyAssignees(task *models.Task) {
	if s.NotificationService == nil {
		return
	}
	for _, assignee := range task.Assignees {
		if err := s.NotificationService.SendTaskAssigned(assignee.Hex(), task.Title); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Assignment notification for user %s failed: %v", assignee.Hex(), err)
		}
	}
}
