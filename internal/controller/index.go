package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/util"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"service": "certificates",
		"env":     ic.app.Config.ENV,
	})
}
