package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/comment"
	"taskboard-api/pkg/model"
	"taskboard-api/pkg/task"
)

func LoginController(c *gin.Context) {
	var requestBody struct {
		Email string `json:"email"`
	}
	if err := c.BindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse("Invalid request body"))
		return
	}
	if requestBody.Email == "" {
		c.JSON(http.StatusBadRequest, defaultErrorResponse("email is required"))
		return
	}

	token, err := deps.Auth.Login(requestBody.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue token")
		c.JSON(http.StatusUnauthorized, defaultErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(map[string]string{"token": token}))
}

func GetTasksByStatusController(c *gin.Context) {
	status, err := parseStatus(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}
	offset, err := parseOffset(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}

	tasks, err := deps.Tasks.GetTasksByStatus(c.Request.Context(), status, filters, offset)
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("Error listing tasks")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to list tasks"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(tasks))
}

func GetTaskCountController(c *gin.Context) {
	status, err := parseStatus(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}

	total, err := deps.Tasks.GetTaskCountByStatus(c.Request.Context(), status, filters)
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("Error counting tasks")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to count tasks"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(map[string]int{"count": total}))
}

func GetTaskByIdController(c *gin.Context) {
	taskID := c.Param("task-id")

	found, err := deps.Tasks.GetTaskDetail(c.Request.Context(), taskID)
	if err != nil {
		if task.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, defaultErrorResponse(err.Error()))
			return
		}
		log.Error().Err(err).Str("taskId", taskID).Msg("Error getting task")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to get task"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(found))
}

func UpdateTaskStatusController(c *gin.Context) {
	taskID := c.Param("task-id")

	var requestBody struct {
		Status string `json:"status"`
	}
	if err := c.BindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse("Invalid request body"))
		return
	}
	status, err := model.ParseStatus(requestBody.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
		return
	}

	if err := deps.Tasks.UpdateTaskStatus(c.Request.Context(), taskID, status); err != nil {
		if task.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, defaultErrorResponse(err.Error()))
			return
		}
		log.Error().Err(err).Str("taskId", taskID).Msg("Error updating task status")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to update status"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(map[string]string{
		"taskId": taskID,
		"status": string(status),
	}))
}

func GetCountriesController(c *gin.Context) {
	countries, err := deps.Tasks.DistinctCountries(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error listing countries")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to list countries"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(countries))
}

func GetCategoriesController(c *gin.Context) {
	options, err := deps.Tasks.CategoryOptions(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error listing categories")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to list categories"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(options))
}

func GetTaskCommentsController(c *gin.Context) {
	taskID := c.Param("task-id")

	thread, err := deps.Comments.ListThread(c.Request.Context(), taskID)
	if err != nil {
		log.Error().Err(err).Str("taskId", taskID).Msg("Error listing comments")
		c.JSON(http.StatusInternalServerError, defaultErrorResponse("failed to list comments"))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(thread))
}

func CreateCommentController(c *gin.Context) {
	authorID, authorEmail, ok := authorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, defaultErrorResponse("unauthorized"))
		return
	}
	taskID := c.Param("task-id")

	var requestBody struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parentId"`
	}
	if err := c.BindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse("Invalid request body"))
		return
	}

	created, err := deps.Comments.Add(c.Request.Context(), taskID, requestBody.ParentID, authorID, authorEmail, requestBody.Content)
	if err != nil {
		status := commentErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("taskId", taskID).Msg("Error creating comment")
		}
		c.JSON(status, defaultErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(created))
}

func UpdateCommentController(c *gin.Context) {
	authorID, _, ok := authorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, defaultErrorResponse("unauthorized"))
		return
	}
	commentID := c.Param("comment-id")

	var requestBody struct {
		Content string `json:"content"`
	}
	if err := c.BindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, defaultErrorResponse("Invalid request body"))
		return
	}

	updated, err := deps.Comments.Edit(c.Request.Context(), commentID, authorID, requestBody.Content)
	if err != nil {
		status := commentErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("commentId", commentID).Msg("Error updating comment")
		}
		c.JSON(status, defaultErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse(updated))
}

func DeleteCommentController(c *gin.Context) {
	authorID, _, ok := authorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, defaultErrorResponse("unauthorized"))
		return
	}
	commentID := c.Param("comment-id")

	if err := deps.Comments.Delete(c.Request.Context(), commentID, authorID); err != nil {
		status := commentErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("commentId", commentID).Msg("Error deleting comment")
		}
		c.JSON(status, defaultErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, defaultSuccessResponse("comment deleted"))
}

func commentErrorStatus(err error) int {
	switch {
	case errors.Is(err, comment.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, comment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, comment.ErrNotAuthor):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
