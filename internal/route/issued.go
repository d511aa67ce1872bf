package route

import (
	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/controller"
	"github.com/qooqz/certificates/internal/middleware"
)

func V1_Issued(r *gin.RouterGroup, ic *controller.IssuedController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/issued")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("", ic.GetIssuedCertificates)
		v1.GET("/:issuedId", ic.GetIssuedById)
		v1.POST("/:issuedId/assets", ic.EnsureAssets)
	}
}
