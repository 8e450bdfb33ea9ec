package api

import (
	"github.com/gin-gonic/gin"
)

func BoardRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/auth/login", LoginRateLimiter(), LoginController)

		tasks := apiV1.Group("/tasks")
		{
			tasks.GET("/", ReadRateLimiter(), GetTasksByStatusController)
			tasks.GET("/count", ReadRateLimiter(), GetTaskCountController)
			tasks.GET("/countries", ReadRateLimiter(), GetCountriesController)
			tasks.GET("/categories", ReadRateLimiter(), GetCategoriesController)
			tasks.GET("/:task-id", ReadRateLimiter(), GetTaskByIdController)
			tasks.PUT("/:task-id/status", WriteRateLimiter(), AuthMiddleware(), UpdateTaskStatusController)
			tasks.GET("/:task-id/comments", ReadRateLimiter(), GetTaskCommentsController)
			tasks.POST("/:task-id/comments", WriteRateLimiter(), AuthMiddleware(), CreateCommentController)
		}

		comments := apiV1.Group("/comments")
		{
			comments.PUT("/:comment-id", WriteRateLimiter(), AuthMiddleware(), UpdateCommentController)
			comments.DELETE("/:comment-id", WriteRateLimiter(), AuthMiddleware(), DeleteCommentController)
		}

		apiV1.GET("/ws", WebSocketController)
	}
}
