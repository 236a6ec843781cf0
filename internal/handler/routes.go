package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/middleware"
	"github.com/noah-isme/nextstep-api/internal/models"
)

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Profiles      *ProfileHandler
	Applications  *ApplicationHandler
	Mentorship    *MentorshipHandler
	Scholarships  *ScholarshipHandler
	Projects      *ProjectHandler
	Expertise     *ExpertiseHandler
	Research      *ResearchHandler
	StudyMaterial *StudyMaterialHandler
	Notifications *NotificationHandler
	Uploads       *UploadHandler
	Assistant     *AssistantHandler
}

// RegisterRoutes mounts the API on api. authenticate must populate
// middleware.ContextUserKey or abort with 401.
func RegisterRoutes(api *gin.RouterGroup, authenticate gin.HandlerFunc, h Handlers) {
	alumni := middleware.RequireRoles(models.RoleAlumni)
	student := middleware.RequireRoles(models.RoleStudent)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/verify", h.Auth.Verify)

	// Signed links carry their own token and are reachable without a session.
	api.GET("/uploads/download", h.Uploads.Download)
	api.GET("/study-materials/files/download", h.StudyMaterial.FileDownload)

	secured := api.Group("")
	secured.Use(authenticate)

	users := secured.Group("/users")
	users.GET("/me", h.Users.Me)
	users.PUT("/me", h.Users.UpdateMe)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.DELETE("/:id", middleware.RBAC(middleware.SelfRule), h.Users.Delete)

	profiles := secured.Group("/profiles")
	profiles.GET("", h.Profiles.Get)
	profiles.POST("", h.Profiles.Create)
	profiles.PUT("", h.Profiles.Update)
	profiles.DELETE("", h.Profiles.Delete)
	profiles.GET("/:userId", h.Profiles.GetByUser)

	apps := secured.Group("/applications")
	apps.GET("", h.Applications.List)
	apps.POST("", h.Applications.Create)
	apps.GET("/stats/summary", h.Applications.Stats)
	apps.GET("/:id", h.Applications.Get)
	apps.PUT("/:id", h.Applications.Update)
	apps.DELETE("/:id", h.Applications.Delete)

	mentorship := secured.Group("/mentorship")
	mentorship.GET("", h.Mentorship.List)
	mentorship.POST("", h.Mentorship.Create)
	mentorship.GET("/requests/pending", h.Mentorship.Pending)
	mentorship.GET("/mentees/active", h.Mentorship.ActiveMentees)
	mentorship.GET("/:id", h.Mentorship.Get)
	mentorship.PUT("/:id", h.Mentorship.Update)
	mentorship.DELETE("/:id", h.Mentorship.Delete)

	scholarships := secured.Group("/scholarships")
	scholarships.GET("", h.Scholarships.List)
	scholarships.POST("", alumni, h.Scholarships.Create)
	scholarships.GET("/my-applications", h.Scholarships.MyApplications)
	scholarships.GET("/:id", h.Scholarships.Get)
	scholarships.PUT("/:id", h.Scholarships.Update)
	scholarships.DELETE("/:id", h.Scholarships.Delete)
	scholarships.POST("/:id/apply", student, h.Scholarships.Apply)
	scholarships.GET("/:id/applications", h.Scholarships.Applications)
	scholarships.GET("/:id/applications/export", h.Scholarships.Export)
	scholarships.PUT("/:id/applications/:applicationId/review", h.Scholarships.Review)

	projects := secured.Group("/projects")
	projects.GET("", h.Projects.List)
	projects.POST("", student, h.Projects.Create)
	projects.GET("/my-supports", alumni, h.Projects.MySupports)
	projects.GET("/alumni/expertise", h.Expertise.List)
	projects.POST("/alumni/expertise", alumni, h.Expertise.Upsert)
	projects.GET("/alumni/expertise/:id", h.Expertise.Get)
	projects.PUT("/alumni/expertise/:id", h.Expertise.Update)
	projects.DELETE("/alumni/expertise/:id", h.Expertise.Delete)
	projects.GET("/:id", h.Projects.Get)
	projects.PUT("/:id", h.Projects.Update)
	projects.DELETE("/:id", h.Projects.Delete)
	projects.POST("/:id/support", alumni, h.Projects.Support)
	projects.GET("/:id/support", h.Projects.Supports)
	projects.GET("/:id/report", h.Projects.Report)

	research := secured.Group("/research-collaborations")
	research.GET("", h.Research.List)
	research.POST("", alumni, h.Research.Create)
	research.GET("/stats/summary", h.Research.Stats)
	research.GET("/areas/popular", h.Research.PopularAreas)
	research.GET("/:id", h.Research.Get)
	research.PUT("/:id/status", h.Research.UpdateStatus)
	research.POST("/:id/apply", h.Research.Apply)
	research.GET("/:id/applications", h.Research.Applications)
	research.PUT("/:id/applications/:applicationId/review", h.Research.Review)
	research.GET("/:id/participants", h.Research.Participants)
	research.POST("/:id/participants", h.Research.AddParticipant)
	research.GET("/:id/updates", h.Research.Updates)
	research.POST("/:id/updates", h.Research.PostUpdate)

	materials := secured.Group("/study-materials")
	materials.GET("", h.StudyMaterial.List)
	materials.POST("", h.StudyMaterial.Upload)
	materials.GET("/stats/summary", h.StudyMaterial.Stats)
	materials.GET("/subjects/popular", h.StudyMaterial.PopularSubjects)
	materials.GET("/:id", h.StudyMaterial.Get)
	materials.DELETE("/:id", h.StudyMaterial.Delete)
	materials.POST("/:id/download", h.StudyMaterial.Download)
	materials.POST("/:id/ratings", h.StudyMaterial.Rate)
	materials.GET("/:id/ratings", h.StudyMaterial.Ratings)
	materials.PUT("/:id/approve", alumni, h.StudyMaterial.Approve)

	notifications := secured.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.POST("", h.Notifications.Create)
	notifications.GET("/stats/summary", h.Notifications.Stats)
	notifications.PUT("/mark-all-read", h.Notifications.MarkAllRead)
	notifications.GET("/:id", h.Notifications.Get)
	notifications.PUT("/:id", h.Notifications.Update)
	notifications.DELETE("/:id", h.Notifications.Delete)

	uploads := secured.Group("/uploads")
	uploads.POST("/upload", h.Uploads.Upload)
	uploads.POST("/upload/multiple", h.Uploads.UploadMultiple)
	uploads.GET("/files", h.Uploads.List)
	uploads.GET("/files/:filename", h.Uploads.Info)
	uploads.DELETE("/files/:filename", h.Uploads.Delete)

	secured.POST("/ai/chat/completions", h.Assistant.Complete)
}
