package chat

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/chat/channels", h.ListChannels)
		public.GET("/chat/:channel/messages", h.ListMessages)
	}
	if protected != nil {
		protected.POST("/chat/:channel/messages", h.PostMessage)
	}
}

// RegisterRoutes mounts the websocket endpoint; the group should carry
// optional authentication.
func (h *WSHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/ws", h.HandleWebSocket)
}
