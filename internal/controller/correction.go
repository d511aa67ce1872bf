package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/middleware"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/util"
)

type CorrectionController struct {
	*baseController
}

func (cc CorrectionController) SubmitCorrection(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	var payload struct {
		RequestID       string `json:"requestId" binding:"required"`
		ErrorSource     string `json:"errorSource" binding:"required,strNotEmpty"`
		Description     string `json:"description"`
		PaymentRequired bool   `json:"paymentRequired"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request body", util.GenerateErrorMessages(err), nil)
		return
	}

	correction, err := cc.app.Lifecycle.SubmitCorrection(ctx, user.TenantID, user.UserID, &model.Correction{
		RequestID:       payload.RequestID,
		ErrorSource:     payload.ErrorSource,
		Description:     payload.Description,
		PaymentRequired: payload.PaymentRequired,
	})
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to submit correction", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseCreated(ctx, gin.H{"correction": correction})
}

func (cc CorrectionController) GetCorrectionsByRequestId(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	corrections, err := cc.app.Lifecycle.CorrectionsOf(ctx, user.TenantID, requestId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to list corrections", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"corrections": corrections})
}

func (cc CorrectionController) ReviewCorrection(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	correctionId := ctx.Params.ByName("correctionId")
	if err := cc.app.Lifecycle.ReviewCorrection(ctx, user.TenantID, user.UserID, correctionId); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to move correction into review", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (cc CorrectionController) RejectCorrection(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	correctionId := ctx.Params.ByName("correctionId")
	if err := cc.app.Lifecycle.RejectCorrection(ctx, user.TenantID, user.UserID, correctionId); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to reject correction", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (cc CorrectionController) MarkCorrectionPaid(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	correctionId := ctx.Params.ByName("correctionId")
	if err := cc.app.Lifecycle.MarkCorrectionPaid(ctx, user.TenantID, user.UserID, correctionId); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to record correction payment", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

// ApproveCorrection applies the amendment. When the request is issued this
// re-issues a fresh certificate and regenerates its assets.
func (cc CorrectionController) ApproveCorrection(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	correctionId := ctx.Params.ByName("correctionId")
	issued, err := cc.app.Lifecycle.ApproveCorrection(ctx, user.TenantID, user.UserID, correctionId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to approve correction", util.GenerateErrorMessages(err), nil)
		return
	}

	if issued == nil {
		util.ResponseSuccess(ctx, gin.H{"issued": nil})
		return
	}

	assets, err := cc.app.Pipeline.EnsureAssets(ctx, issued.ID)
	if err != nil {
		cc.app.Logger.Errorf("Asset generation failed for issued %s: %v", issued.ID, err)
		util.ResponseSuccess(ctx, gin.H{"issued": issued})
		return
	}

	issued.QRCode = assets.QR
	issued.PDF = assets.PDF
	util.ResponseSuccess(ctx, gin.H{
		"issued":   issued,
		"warnings": assets.Warnings,
	})
}
