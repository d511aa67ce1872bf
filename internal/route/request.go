package route

import (
	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/controller"
	"github.com/qooqz/certificates/internal/middleware"
)

func V1_Requests(r *gin.RouterGroup, rc *controller.RequestController, ac *controller.AuditController, cc *controller.CorrectionController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/requests")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", rc.CreateRequest)
		v1.GET("", rc.GetRequests)
		v1.GET("/:requestId", rc.GetRequestById)
		v1.PUT("/:requestId", rc.UpdateRequest)
		v1.PATCH("/:requestId/status", rc.TransitionStatus)
		v1.POST("/:requestId/payment", rc.ConfirmPayment)
		v1.POST("/:requestId/cancel", rc.CancelRequest)
		v1.POST("/:requestId/issue", rc.IssueCertificate)
		v1.POST("/:requestId/audit", ac.AssignAudit)
		v1.PATCH("/:requestId/audit", ac.CompleteAudit)
		v1.GET("/:requestId/corrections", cc.GetCorrectionsByRequestId)
	}
}
