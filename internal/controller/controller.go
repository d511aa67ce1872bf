package controller

import (
	appcontext "github.com/qooqz/certificates/internal/app_context"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index      *IndexController
	Request    *RequestController
	Correction *CorrectionController
	Audit      *AuditController
	Issued     *IssuedController
	Verify     *VerifyController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:      &IndexController{baseController: bc},
		Request:    &RequestController{baseController: bc},
		Correction: &CorrectionController{baseController: bc},
		Audit:      &AuditController{baseController: bc},
		Issued:     &IssuedController{baseController: bc},
		Verify:     &VerifyController{baseController: bc},
	}
}
