package route

import (
	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/controller"
)

// V1_Verify wires the public verification surface. No auth middleware: the
// verification code is the only credential.
func V1_Verify(r *gin.RouterGroup, vc *controller.VerifyController) {
	v1 := r.Group("/v1")
	{
		v1.GET("/verify/:code", vc.VerifyCertificate)
		v1.GET("/verify/:code/document", vc.DownloadDocument)
		v1.GET("/verify/:code/qr", vc.DynamicQR)
		v1.GET("/certificates/print", vc.PrintView)
	}
}
