package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns the gin engine.
func SetupRouter(s *Server, authMiddleware gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	r.GET("/", s.Root)
	r.GET("/health", s.Health)

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.Register)
		auth.POST("/login", s.Login)
		auth.POST("/refresh", s.Refresh)
	}

	protected := r.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/auth/me", s.Me)

		documents := protected.Group("/documents")
		{
			documents.POST("", s.CreateDocument)
			documents.GET("", s.ListDocuments)
			documents.GET("/search", s.SearchDocuments)
			documents.POST("/upload", s.UploadDocument)
			documents.GET("/:id", s.GetDocument)
			documents.PATCH("/:id", s.UpdateDocument)
			documents.DELETE("/:id", s.DeleteDocument)
			documents.POST("/:id/process", s.ProcessDocument)
			documents.GET("/:id/chunks", s.ListChunks)
		}

		conversations := protected.Group("/conversations")
		{
			conversations.POST("", s.CreateConversation)
			conversations.GET("", s.ListConversations)
			conversations.GET("/:id", s.GetConversation)
			conversations.DELETE("/:id", s.DeleteConversation)
			conversations.POST("/:id/messages", s.AddMessage)
			conversations.GET("/:id/messages", s.ListMessages)
			conversations.POST("/:id/chat", s.Chat)
		}
	}

	return r
}
