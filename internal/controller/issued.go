package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/middleware"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/internal/util"
)

type IssuedController struct {
	*baseController
}

func (ic IssuedController) GetIssuedCertificates(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	page := parsePositive(ctx.Query("page"), 1)
	pageSize := parsePositive(ctx.Query("pageSize"), 20)

	filter := repository.IssuedFilter{}
	switch ctx.Query("cancelled") {
	case "true":
		v := true
		filter.IsCancelled = &v
	case "false":
		v := false
		filter.IsCancelled = &v
	}

	issued, total, err := ic.app.Repository.Issued.GetByTenant(ctx, nil, user.TenantID, filter, page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to list issued certificates", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"issued":   issued,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (ic IssuedController) GetIssuedById(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	issuedId := ctx.Params.ByName("issuedId")
	issued, err := ic.app.Repository.Issued.GetByIdForTenant(ctx, nil, user.TenantID, issuedId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to get issued certificate", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"issued": issued})
}

// EnsureAssets regenerates missing or fallback assets for an issued
// certificate. Re-running is always safe.
func (ic IssuedController) EnsureAssets(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	issuedId := ctx.Params.ByName("issuedId")
	if _, err := ic.app.Repository.Issued.GetByIdForTenant(ctx, nil, user.TenantID, issuedId); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to get issued certificate", util.GenerateErrorMessages(err), nil)
		return
	}

	result, err := ic.app.Pipeline.EnsureAssets(ctx, issuedId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to generate certificate assets", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"qr":       result.QR,
		"pdf":      result.PDF,
		"warnings": result.Warnings,
	})
}
