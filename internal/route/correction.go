package route

import (
	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/controller"
	"github.com/qooqz/certificates/internal/middleware"
)

func V1_Corrections(r *gin.RouterGroup, cc *controller.CorrectionController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/corrections")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", cc.SubmitCorrection)
		v1.POST("/:correctionId/review", cc.ReviewCorrection)
		v1.POST("/:correctionId/reject", cc.RejectCorrection)
		v1.POST("/:correctionId/payment", cc.MarkCorrectionPaid)
		v1.POST("/:correctionId/approve", cc.ApproveCorrection)
	}
}
