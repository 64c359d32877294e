package http

import "github.com/gin-gonic/gin"

func RegisterGroupRoutes(r *gin.Engine, handler *GroupHandler) {
	groups := r.Group(groupsPath)
	{
		groups.GET("", handler.ListGroups)
		groups.POST("", handler.CreateGroup)
		groups.GET("/:groupId", handler.GetGroup)
		groups.POST("/:groupId/members", handler.AddMember)
		groups.DELETE("/:groupId/members/:userId", handler.RemoveMember)
	}
}
