package review

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	if public != nil {
		public.GET("/restaurants/:id/reviews", h.ListByRestaurant)
		public.GET("/reviews/:id", h.Get)
	}

	if protected != nil {
		protected.POST("/restaurants/:id/reviews", h.Submit)
		protected.POST("/reviews/:id/helpful", h.MarkHelpful)
	}

	if admin != nil {
		admin.POST("/reviews/:id/reverify", h.Reverify)
	}
}
