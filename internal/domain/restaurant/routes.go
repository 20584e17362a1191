package restaurant

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/restaurants", h.List)
	public.GET("/restaurants/:id", h.Get)
}
