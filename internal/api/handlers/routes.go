package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the control API. auth guards everything under /api.
func RegisterRoutes(app *fiber.App, auth fiber.Handler, workflow *WorkflowHandler, post *PostHandler) {
	app.Get("/", workflow.Index)

	api := app.Group("/api/v1")
	api.Use(auth)

	api.Post("/workflow/start", workflow.StartWorkflow)
	api.Post("/workflow/schedule", workflow.RunScheduling)
	api.Post("/workflow/publish", workflow.RunPublishing)

	api.Get("/posts/awaiting-approval", post.ListAwaitingApproval)
	api.Get("/posts/scheduled", post.ListScheduled)
	api.Get("/posts/posted", post.ListPosted)
	api.Get("/posts/history", post.ListHistory)
	api.Post("/posts/approve", post.Approve)
	api.Post("/posts/reject", post.Reject)
}
