package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/http/middleware"
)

// bearer returns the backend token of the request's session.
// The api group always runs behind the session middleware.
func bearer(c *gin.Context) string {
	if s := middleware.CurrentSession(c); s != nil {
		return s.Token
	}
	return ""
}

func queryBool(c *gin.Context, key string) *bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func queryPage(c *gin.Context) domain.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))
	return domain.Page{Limit: limit, Page: page}.Normalize()
}

// UserHandlers relays user management to the backend
type UserHandlers struct{ users domain.UserAPI }

func NewUserHandlers(users domain.UserAPI) *UserHandlers {
	return &UserHandlers{users: users}
}

func (h *UserHandlers) List(c *gin.Context) {
	filter := domain.UserFilter{
		FirstName: c.Query("firstName"),
		LastName:  c.Query("lastName"),
		Role:      c.Query("role"),
		Address:   c.Query("address"),
		Status:    queryBool(c, "status"),
		Page:      queryPage(c),
	}
	users, err := h.users.ListUsers(c.Request.Context(), bearer(c), filter)
	if err != nil {
		respondError(c, "user_list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "page": filter.Page.Page, "limit": filter.Page.Limit})
}

// Names lists id and name of every user, for the task assignee picker
func (h *UserHandlers) Names(c *gin.Context) {
	users, err := h.users.ListUserNames(c.Request.Context(), bearer(c))
	if err != nil {
		respondError(c, "user_names", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *UserHandlers) Create(c *gin.Context) {
	var input domain.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), bearer(c), input)
	if err != nil {
		respondError(c, "user_create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (h *UserHandlers) Update(c *gin.Context) {
	var input domain.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if id := c.Param("id"); id != "" {
		input.UserID = id
	}
	if input.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required", "code": "VALIDATION_ERROR"})
		return
	}
	user, err := h.users.UpdateUser(c.Request.Context(), bearer(c), input)
	if err != nil {
		respondError(c, "user_update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *UserHandlers) Delete(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), bearer(c), c.Param("id")); err != nil {
		respondError(c, "user_delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TaskHandlers relays task management to the backend
type TaskHandlers struct{ tasks domain.TaskAPI }

func NewTaskHandlers(tasks domain.TaskAPI) *TaskHandlers {
	return &TaskHandlers{tasks: tasks}
}

func (h *TaskHandlers) List(c *gin.Context) {
	filter := domain.TaskFilter{
		TaskName:     c.Query("taskName"),
		AssignUser:   c.Query("assignUser"),
		Status:       queryBool(c, "status"),
		Description:  c.Query("description"),
		StartDate:    c.Query("startDate"),
		EndDate:      c.Query("endDate"),
		CompleteDate: c.Query("completeDate"),
		FirstName:    c.Query("firstName"),
		Page:         queryPage(c),
	}
	tasks, err := h.tasks.ListTasks(c.Request.Context(), bearer(c), filter)
	if err != nil {
		respondError(c, "task_list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks, "page": filter.Page.Page, "limit": filter.Page.Limit})
}

func (h *TaskHandlers) Create(c *gin.Context) {
	var input domain.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	task, err := h.tasks.CreateTask(c.Request.Context(), bearer(c), input)
	if err != nil {
		respondError(c, "task_create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": task})
}

func (h *TaskHandlers) Update(c *gin.Context) {
	var input domain.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	task, err := h.tasks.UpdateTask(c.Request.Context(), bearer(c), c.Param("id"), input)
	if err != nil {
		respondError(c, "task_update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (h *TaskHandlers) Delete(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), bearer(c), c.Param("id")); err != nil {
		respondError(c, "task_delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}
