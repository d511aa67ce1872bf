package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/middleware"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/internal/util"
)

type RequestController struct {
	*baseController
}

type requestItemPayload struct {
	ProductName   string  `json:"productName" binding:"required,strNotEmpty"`
	Brand         string  `json:"brand"`
	OriginCountry string  `json:"originCountry"`
	WeightKg      float64 `json:"weightKg"`
	Quantity      int     `json:"quantity"`

	Translations []struct {
		LanguageCode string `json:"languageCode" binding:"required"`
		ProductName  string `json:"productName" binding:"required,strNotEmpty"`
		Brand        string `json:"brand"`
	} `json:"translations"`
}

type requestPayload struct {
	EntityID             string               `json:"entityId" binding:"required"`
	CertificateType      string               `json:"certificateType" binding:"required,strNotEmpty"`
	OperationType        string               `json:"operationType"`
	ImporterName         string               `json:"importerName" binding:"required,cmin=2,cmax=255"`
	ImporterAddress      string               `json:"importerAddress"`
	ImporterCountry      string               `json:"importerCountry" binding:"required,cmin=2,cmax=64"`
	ShipmentCondition    int                  `json:"shipmentCondition"`
	TransportMethod      string               `json:"transportMethod"`
	Description          string               `json:"description"`
	Notes                string               `json:"notes"`
	LanguageCode         string               `json:"languageCode"`
	CertificateEditionID string               `json:"certificateEditionId"`
	Items                []requestItemPayload `json:"items"`
}

func (p requestPayload) toModel() (*model.CertificateRequest, []*model.RequestItem) {
	request := &model.CertificateRequest{
		EntityID:             p.EntityID,
		CertificateType:      p.CertificateType,
		OperationType:        p.OperationType,
		ImporterName:         p.ImporterName,
		ImporterAddress:      p.ImporterAddress,
		ImporterCountry:      p.ImporterCountry,
		ShipmentCondition:    p.ShipmentCondition,
		TransportMethod:      p.TransportMethod,
		Description:          p.Description,
		Notes:                p.Notes,
		LanguageCode:         p.LanguageCode,
		CertificateEditionID: p.CertificateEditionID,
	}

	items := make([]*model.RequestItem, 0, len(p.Items))
	for _, ip := range p.Items {
		item := &model.RequestItem{
			ProductName:   ip.ProductName,
			Brand:         ip.Brand,
			OriginCountry: ip.OriginCountry,
			WeightKg:      ip.WeightKg,
			Quantity:      ip.Quantity,
		}
		for _, tp := range ip.Translations {
			item.Translations = append(item.Translations, model.RequestItemTranslation{
				LanguageCode: tp.LanguageCode,
				ProductName:  tp.ProductName,
				Brand:        tp.Brand,
			})
		}
		items = append(items, item)
	}

	return request, items
}

func (rc RequestController) CreateRequest(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	var payload requestPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request body", util.GenerateErrorMessages(err), nil)
		return
	}

	request, items := payload.toModel()
	request, err := rc.app.Lifecycle.CreateRequest(ctx, user.TenantID, user.UserID, request, items)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to create certificate request", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseCreated(ctx, gin.H{"request": request})
}

func (rc RequestController) GetRequestById(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	if requestId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Request id is required", util.GenerateErrorMessages(errors.New("request id is required"), "requestId"), nil)
		return
	}

	request, err := rc.app.Repository.Request.GetById(ctx, nil, user.TenantID, requestId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to get certificate request", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"request": request})
}

func (rc RequestController) GetRequests(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	page := parsePositive(ctx.Query("page"), 1)
	pageSize := parsePositive(ctx.Query("pageSize"), 20)
	filter := repository.RequestFilter{
		Status: constant.RequestStatus(ctx.Query("status")),
	}

	requests, total, err := rc.app.Repository.Request.GetByTenant(ctx, nil, user.TenantID, filter, page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to list certificate requests", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"requests": requests,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (rc RequestController) UpdateRequest(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	var payload requestPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request body", util.GenerateErrorMessages(err), nil)
		return
	}

	request, items := payload.toModel()
	request.ID = requestId

	if err := rc.app.Lifecycle.UpdateRequest(ctx, user.TenantID, user.UserID, request, items); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to update certificate request", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"request": request})
}

func (rc RequestController) TransitionStatus(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	var payload struct {
		Status constant.RequestStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request body", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := rc.app.Lifecycle.Transition(ctx, user.TenantID, user.UserID, requestId, payload.Status); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to change request status", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"status": payload.Status})
}

func (rc RequestController) ConfirmPayment(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	if err := rc.app.Lifecycle.ConfirmPayment(ctx, user.TenantID, user.UserID, requestId); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to confirm payment", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (rc RequestController) CancelRequest(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	var payload struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Cancellation reason is required", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := rc.app.Lifecycle.Cancel(ctx, user.TenantID, user.UserID, requestId, payload.Reason); err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to cancel certificate request", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

// IssueCertificate issues the approved request, then derives the public
// assets. Asset trouble surfaces as warnings, never as issuance failure.
func (rc RequestController) IssueCertificate(ctx *gin.Context) {
	user, ok := middleware.AuthUser(ctx)
	if !ok {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", nil, nil)
		return
	}

	requestId := ctx.Params.ByName("requestId")
	issued, err := rc.app.Lifecycle.Issue(ctx, user.TenantID, user.UserID, requestId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Failed to issue certificate", util.GenerateErrorMessages(err), nil)
		return
	}

	assets, err := rc.app.Pipeline.EnsureAssets(ctx, issued.ID)
	if err != nil {
		rc.app.Logger.Errorf("Asset generation failed for issued %s: %v", issued.ID, err)
		util.ResponseCreated(ctx, gin.H{
			"issued":   issued,
			"warnings": []gin.H{{"stage": "assets", "message": "asset generation failed, retry via the assets endpoint"}},
		})
		return
	}

	issued.QRCode = assets.QR
	issued.PDF = assets.PDF
	util.ResponseCreated(ctx, gin.H{
		"issued":   issued,
		"warnings": assets.Warnings,
	})
}

func parsePositive(s string, fallback uint) uint {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return fallback
	}
	return uint(v)
}
