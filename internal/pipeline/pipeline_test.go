package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/pkg/certify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeFetcher struct {
	png   []byte
	err   error
	calls int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, verifyURL string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.png, nil
}

type fakeRenderer struct {
	err   error
	calls int32
}

func (f *fakeRenderer) Render(ctx context.Context, templateFile, outFile string, data certify.DocumentData, qrFile string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(outFile, []byte("%PDF-1.4 fake"), 0644)
}

type pipelineFixture struct {
	repo     *repository.Repository
	cfg      config.AppConfig
	fetcher  *fakeFetcher
	renderer *fakeRenderer
	pipeline *Pipeline
	issued   *model.IssuedCertificate
	request  *model.CertificateRequest
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: would otherwise get its own
	// empty database.
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
		&model.CertificateEdition{},
		&model.CertificateTemplate{},
	))

	log := zap.NewNop().Sugar()
	repo := repository.NewRepository(db, log)

	entity := &model.Entity{TenantID: "tenant-1", StoreName: "Acme Exports"}
	require.NoError(t, db.Create(entity).Error)

	request := &model.CertificateRequest{
		TenantID:        "tenant-1",
		EntityID:        entity.ID,
		CertificateType: "export",
		ImporterName:    "Gulf Imports LLC",
		ImporterCountry: "AE",
		LanguageCode:    "ar",
		Status:          constant.RequestStatusIssued,
	}
	require.NoError(t, db.Create(request).Error)

	items := []model.RequestItem{{
		RequestID:     request.ID,
		ProductName:   "Dates",
		Brand:         "Oasis",
		OriginCountry: "SA",
		WeightKg:      120.5,
		Quantity:      10,
	}}
	require.NoError(t, db.Create(&items).Error)

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
	require.NoError(t, db.Create(version).Error)

	printableUntil := time.Now().Add(365 * 24 * time.Hour)
	issued := &model.IssuedCertificate{
		VersionID:         version.ID,
		CertificateNumber: "CERT-AR_GCC-20260830-0001",
		VerificationCode:  "vcode-" + version.ID,
		IssuedBy:          "auditor-1",
		IssuedAt:          time.Now(),
		PrintableUntil:    &printableUntil,
		LanguageCode:      "ar",
	}
	require.NoError(t, db.Create(issued).Error)

	storageDir := t.TempDir()
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "ar_gcc.pdf"), []byte("%PDF-1.4 template"), 0644))
	require.NoError(t, db.Create(&model.CertificateTemplate{
		Code:     constant.DefaultTemplateCode,
		Name:     "GCC Arabic",
		FilePath: "ar_gcc.pdf",
	}).Error)

	cfg := config.AppConfig{
		BaseURL:     "https://certs.example.com",
		StorageDir:  storageDir,
		TemplateDir: templateDir,
	}

	fetcher := &fakeFetcher{png: []byte("\x89PNG fake image")}
	renderer := &fakeRenderer{}

	return &pipelineFixture{
		repo:     repo,
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		pipeline: NewPipeline(repo, fetcher, renderer, cfg, log),
		issued:   issued,
		request:  request,
	}
}

func TestEnsureAssetsProducesFileBackedRefs(t *testing.T) {
	fx := newPipelineFixture(t)

	result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	assert.True(t, result.QR.IsFile())
	assert.True(t, result.PDF.IsFile())
	assert.FileExists(t, result.QR.Ref)
	assert.FileExists(t, result.PDF.Ref)

	stored, err := fx.repo.Issued.GetById(context.Background(), nil, fx.issued.ID)
	require.NoError(t, err)
	assert.Equal(t, result.QR, stored.QRCode)
	assert.Equal(t, result.PDF, stored.PDF)
}

func TestEnsureAssetsIsIdempotent(t *testing.T) {
	fx := newPipelineFixture(t)

	first, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	second, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	assert.Equal(t, first.QR, second.QR)
	assert.Equal(t, first.PDF, second.PDF)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fx.fetcher.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&fx.renderer.calls))
}

func TestEnsureAssetsQRFallbackKeepsPDF(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.fetcher.err = errors.New("dial tcp: i/o timeout")

	result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	assert.True(t, result.QR.IsDynamic())
	assert.Contains(t, result.QR.Ref, fx.issued.VerificationCode)
	assert.True(t, result.PDF.IsFile(), "PDF generation must not be blocked by a QR outage")

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "qr", result.Warnings[0].Stage)
	assert.Equal(t, WarningExternal, result.Warnings[0].Kind)
}

func TestEnsureAssetsRendererFallback(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.renderer.err = errors.New("stamping failed")

	result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	assert.True(t, result.QR.IsFile())
	assert.True(t, result.PDF.IsDynamic())
	assert.Contains(t, result.PDF.Ref, fx.request.ID)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "pdf", result.Warnings[0].Stage)
	assert.Equal(t, WarningExternal, result.Warnings[0].Kind)
}

func TestEnsureAssetsMissingTemplateIsConfiguration(t *testing.T) {
	fx := newPipelineFixture(t)
	require.NoError(t, fx.repo.DB.Where("code = ?", constant.DefaultTemplateCode).
		Delete(&model.CertificateTemplate{}).Error)

	result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	assert.True(t, result.PDF.IsDynamic())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningConfiguration, result.Warnings[0].Kind)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fx.renderer.calls))
}

func TestEnsureAssetsTemplateLookupErrorIsExternal(t *testing.T) {
	fx := newPipelineFixture(t)
	require.NoError(t, fx.repo.DB.Migrator().DropTable(&model.CertificateTemplate{}))

	result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
	require.NoError(t, err)

	// A broken lookup is transient, not a configuration problem, and the
	// PDF still falls back to the print view.
	assert.True(t, result.PDF.IsDynamic())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "pdf", result.Warnings[0].Stage)
	assert.Equal(t, WarningExternal, result.Warnings[0].Kind)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fx.renderer.calls))
}

func TestEnsureAssetsConcurrentCallsConverge(t *testing.T) {
	fx := newPipelineFixture(t)

	const workers = 8
	results := make([]*Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := fx.pipeline.EnsureAssets(context.Background(), fx.issued.ID)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	wantQR := certify.QRFilePath(fx.cfg.StorageDir, fx.issued.ID)
	wantPDF := certify.PDFFilePath(fx.cfg.StorageDir, fx.issued.ID)
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, certify.FileBacked(wantQR), result.QR)
		assert.Equal(t, certify.FileBacked(wantPDF), result.PDF)
	}
	assert.FileExists(t, wantQR)
	assert.FileExists(t, wantPDF)

	entries, err := os.ReadDir(filepath.Dir(wantPDF))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partial or leftover temp files")
}

func TestEnsureAssetsUnknownIssued(t *testing.T) {
	fx := newPipelineFixture(t)

	_, err := fx.pipeline.EnsureAssets(context.Background(), "no-such-id")
	assert.Error(t, err)
}

func TestHTTPQRFetcher(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G'}, []byte(" body")...)

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "QooqzCertificates/1.0", r.Header.Get("User-Agent"))
		w.Write(png)
	}))
	defer server.Close()

	fetcher := NewHTTPQRFetcher(config.QRServiceConfig{
		Endpoint:  server.URL,
		PixelSize: 200,
		Timeout:   2 * time.Second,
	})

	got, err := fetcher.Fetch(context.Background(), "https://certs.example.com/api/v1/verify/abc")
	require.NoError(t, err)
	assert.Equal(t, png, got)
	assert.Contains(t, gotQuery, "size=200x200")
	assert.Contains(t, gotQuery, "format=png")
}

func TestHTTPQRFetcherErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "non png payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>maintenance</html>")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			fetcher := NewHTTPQRFetcher(config.QRServiceConfig{
				Endpoint:  server.URL,
				PixelSize: 200,
				Timeout:   2 * time.Second,
			})

			_, err := fetcher.Fetch(context.Background(), "https://certs.example.com/api/v1/verify/abc")
			assert.Error(t, err)
		})
	}
}

func TestHTTPQRFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewHTTPQRFetcher(config.QRServiceConfig{
		Endpoint:  server.URL,
		PixelSize: 200,
		Timeout:   50 * time.Millisecond,
	})

	_, err := fetcher.Fetch(context.Background(), "https://certs.example.com/api/v1/verify/abc")
	assert.Error(t, err)
}
