package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	appcontext "github.com/qooqz/certificates/internal/app_context"
	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/internal/verification"
	"github.com/qooqz/certificates/pkg/certify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type verifySurfaceFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newVerifySurfaceFixture(t *testing.T) *verifySurfaceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Entity{},
		&model.CertificateRequest{},
		&model.RequestItem{},
		&model.RequestItemTranslation{},
		&model.CertificateVersion{},
		&model.IssuedCertificate{},
	))

	log := zap.NewNop().Sugar()
	repo := repository.NewRepository(db, log)

	app := &appcontext.Application{
		Config: &config.Config{
			App: config.AppConfig{BaseURL: "http://localhost:8080"},
			QR:  config.QRServiceConfig{PixelSize: 200},
		},
		Logger:       log,
		Repository:   repo,
		Verification: verification.NewService(repo, log),
	}

	vc := &VerifyController{baseController: &baseController{app: app}}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.GET("/verify/:code", vc.VerifyCertificate)
		v1.GET("/verify/:code/document", vc.DownloadDocument)
		v1.GET("/certificates/print", vc.PrintView)
	}

	return &verifySurfaceFixture{db: db, router: router}
}

// seedIssued creates the full entity/request/version/issued chain and
// returns the request and its issued row for mutation by the test.
func (fx *verifySurfaceFixture) seedIssued(t *testing.T, code string) (*model.CertificateRequest, *model.IssuedCertificate) {
	t.Helper()

	entity := &model.Entity{TenantID: "tenant-1", StoreName: "Acme Exports"}
	require.NoError(t, fx.db.Create(entity).Error)

	request := &model.CertificateRequest{
		TenantID:        "tenant-1",
		EntityID:        entity.ID,
		CertificateType: "export",
		ImporterName:    "Gulf Imports LLC",
		ImporterCountry: "AE",
		Status:          constant.RequestStatusIssued,
	}
	require.NoError(t, fx.db.Create(request).Error)

	items := []model.RequestItem{{RequestID: request.ID, ProductName: "Dates", WeightKg: 50, Quantity: 5}}
	require.NoError(t, fx.db.Create(&items).Error)

	snapshot, err := model.NewVersionSnapshot(*request, items)
	require.NoError(t, err)

	version := &model.CertificateVersion{
		RequestID:     request.ID,
		VersionNumber: 1,
		Reason:        constant.VersionReasonInitialIssue,
		Snapshot:      snapshot,
		IsActive:      true,
		ApprovedBy:    "auditor-1",
		ApprovedAt:    time.Now(),
	}
	require.NoError(t, fx.db.Create(version).Error)

	printableUntil := time.Now().Add(30 * 24 * time.Hour)
	issued := &model.IssuedCertificate{
		VersionID:         version.ID,
		CertificateNumber: "CERT-AR_GCC-20260830-0001",
		VerificationCode:  code,
		IssuedBy:          "auditor-1",
		IssuedAt:          time.Now(),
		PrintableUntil:    &printableUntil,
		PDF:               certify.FileBacked("/var/certs/pdf/cert_x.pdf"),
		QRCode:            certify.FileBacked("/var/certs/qr/qr_x.png"),
	}
	require.NoError(t, fx.db.Create(issued).Error)
	require.NoError(t, fx.db.Model(request).Update("issued_id", issued.ID).Error)

	return request, issued
}

func (fx *verifySurfaceFixture) get(t *testing.T, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestVerifyResponseCodes(t *testing.T) {
	fx := newVerifySurfaceFixture(t)
	_, issued := fx.seedIssued(t, "known-code")

	rec := fx.get(t, "/api/v1/verify/known-code", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fx.get(t, "/api/v1/verify/unknown-code", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.get(t, "/api/v1/verify/unknown-code?format=html", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Certificate not found")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, fx.db.Model(issued).Update("printable_until", past).Error)
	rec = fx.get(t, "/api/v1/verify/known-code", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")

	require.NoError(t, fx.db.Model(issued).Updates(map[string]any{
		"is_cancelled":  true,
		"cancel_reason": "revoked",
	}).Error)
	rec = fx.get(t, "/api/v1/verify/known-code", nil)
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = fx.get(t, "/api/v1/verify/known-code", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled")
}

func TestPrintViewExpiredNotServed(t *testing.T) {
	fx := newVerifySurfaceFixture(t)
	request, issued := fx.seedIssued(t, "known-code")

	rec := fx.get(t, "/api/v1/certificates/print?request_id="+request.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), issued.CertificateNumber)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, fx.db.Model(issued).Update("printable_until", past).Error)

	rec = fx.get(t, "/api/v1/certificates/print?request_id="+request.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), issued.CertificateNumber)
}

func TestPrintViewCancelledNotServed(t *testing.T) {
	fx := newVerifySurfaceFixture(t)
	request, issued := fx.seedIssued(t, "known-code")

	require.NoError(t, fx.db.Model(issued).Update("is_cancelled", true).Error)

	rec := fx.get(t, "/api/v1/certificates/print?request_id="+request.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
