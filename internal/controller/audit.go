package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/middleware"
	"github.com/qooqz/certificates/internal/util"
)

type AuditController struct {
	*baseController
}

func (ac AuditController) AssignAudit(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	var payload struct {
		AuditorID string `json:"auditorId" binding:"required,strNotEmpty"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Auditor id is required", util.GenerateErrorMessages(err), nil)
		return
	}

	audit, err := ac.app.Lifecycle.AssignAudit(ctx, user.TenantID, user.UserID, requestId, payload.AuditorID)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to assign audit", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseCreated(ctx, gin.H{"audit": audit})
}

func (ac AuditController) CompleteAudit(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	var payload struct {
		Status constant.AuditStatus `json:"status" binding:"required"`
		Notes  string               `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Audit status is required", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := ac.app.Lifecycle.CompleteAudit(ctx, user.TenantID, user.UserID, requestId, payload.Status, payload.Notes); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to update audit", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"status": payload.Status})
}
