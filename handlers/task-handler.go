package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Sean4E/PMHub2/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore is the slice of the task service the handler depends on.
// CreateTask and UpdateTask report the project progress they recomputed and
// persisted, -1 when the recompute failed.
type TaskStore interface {
	CreateTask(task models.Task, createdBy primitive.ObjectID) (*models.Task, int, error)
	GetTaskByID(taskID primitive.ObjectID) (*models.Task, error)
	GetTasksByProject(projectID string) ([]models.Task, error)
	UpdateTask(taskID primitive.ObjectID, updated models.Task) (*models.Task, int, error)
	DeleteTask(taskID primitive.ObjectID) error
	AddComment(taskID, userID primitive.ObjectID, content string) (*models.Comment, error)
	GetCommentsForTask(taskID primitive.ObjectID) ([]models.Comment, error)
}

type TaskHandler struct {
	service TaskStore
}

func NewTaskHandler(service TaskStore) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskMutationResponse returns the authoritative task together with the
// project progress the mutation recomputed and persisted, so clients replace
// their optimistic state instead of deriving progress from stale local data.
// When the recompute failed the field is omitted; a value that was never
// computed must not be presented as authoritative.
type taskMutationResponse struct {
	Task            *models.Task `json:"task"`
	ProjectProgress *int         `json:"projectProgress,omitempty"`
}

func mutationResponse(task *models.Task, progress int) taskMutationResponse {
	response := taskMutationResponse{Task: task}
	if progress >= 0 {
		response.ProjectProgress = &progress
	}
	return response
}

func requestUserID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(r.Header.Get("User-ID"))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Invalid user ID in request", http.StatusUnauthorized)
		return
	}

	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if projectID := mux.Vars(r)["projectId"]; projectID != "" {
		task.ProjectID = projectID
	}
	if task.ProjectID == "" || task.Title == "" {
		http.Error(w, "projectId and title are required", http.StatusBadRequest)
		return
	}

	createdTask, progress, err := h.service.CreateTask(task, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mutationResponse(createdTask, progress))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	task, err := h.service.GetTaskByID(taskID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) GetTasksByProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if projectID == "" {
		http.Error(w, "Missing project ID", http.StatusBadRequest)
		return
	}

	tasks, err := h.service.GetTasksByProject(projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updatedTask, progress, err := h.service.UpdateTask(taskID, task)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mutationResponse(updatedTask, progress))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTask(taskID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Task deleted successfully"}`))
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Invalid user ID in request", http.StatusUnauthorized)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	var request struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	comment, err := h.service.AddComment(taskID, userID, request.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comment)
}

func (h *TaskHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	comments, err := h.service.GetCommentsForTask(taskID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comments)
}
