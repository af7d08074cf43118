package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/peercall/internal/api/http/converter"
	"github.com/immxrtalbeast/peercall/internal/service"
)

type UserController struct {
	signaling service.SignalingInteractor
}

func NewUserController(signaling service.SignalingInteractor) *UserController {
	return &UserController{signaling: signaling}
}

// ListUsers exposes the currently connected roster over REST.
func (c *UserController) ListUsers(ctx *gin.Context) {
	users := c.signaling.ListUsers()
	ctx.JSON(http.StatusOK, gin.H{"users": converter.UsersToApi(users)})
}
