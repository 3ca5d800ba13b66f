package handlers

import (
	"net/http"
	"time"

	"github.com/devsync/teamchat-api/internal/dto"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TaskHandler serves the tasks of a phase. Routes run behind
// RequirePhaseAccess.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func phaseFromContext(c *gin.Context) (*models.Phase, bool) {
	phase, ok := middleware.GetPhase(c)
	if !ok {
		apierrors.InternalError(c, "Phase not found in context")
	}
	return phase, ok
}

// AddTask appends a task to the phase
func (h *TaskHandler) AddTask(c *gin.Context) {
	phase, ok := phaseFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Description string            `json:"description" binding:"required"`
		AssignedTo  uint64            `json:"assignedTo" binding:"required"`
		DueDate     *time.Time        `json:"dueDate"`
		Status      models.TaskStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "description and assignedTo are required")
		return
	}

	task, err := h.taskService.AddTask(phase, services.CreateTaskInput{
		Description:  req.Description,
		AssignedToID: req.AssignedTo,
		DueDate:      req.DueDate,
		Status:       req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	phase, ok := phaseFromContext(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(phase.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	phase, ok := phaseFromContext(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(phase.ID, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	phase, ok := phaseFromContext(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}

	var req struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "status is required")
		return
	}

	task, err := h.taskService.UpdateStatus(phase.ID, taskID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SuggestTasks asks the AI service for task ideas; nothing is saved
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	phase, ok := phaseFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "text is required")
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), phase, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": suggestions})
}
