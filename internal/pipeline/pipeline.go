package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/pkg/certify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WarningKind string

const (
	// WarningExternal marks a transient QR fetch or PDF render failure.
	WarningExternal WarningKind = "external_service"
	// WarningConfiguration marks a missing template, including the default.
	WarningConfiguration WarningKind = "configuration"
)

type Warning struct {
	Stage   string      `json:"stage"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Result is what EnsureAssets produced or repaired. Partial success is
// valid: a file-backed QR next to a dynamic PDF reference, with the failure
// visible in Warnings.
type Result struct {
	QR       certify.AssetRef `json:"qr"`
	PDF      certify.AssetRef `json:"pdf"`
	Warnings []Warning        `json:"warnings"`
}

// Pipeline derives the two public assets of an issued certificate. Safe to
// call any number of times for the same issued id: existing files are
// authoritative and never re-rendered, regeneration writes the same
// deterministic filename, and external failures downgrade to dynamic
// fallback references instead of errors.
type Pipeline struct {
	repo     *repository.Repository
	fetcher  QRFetcher
	renderer Renderer
	cfg      config.AppConfig
	logger   *zap.SugaredLogger
}

func NewPipeline(repo *repository.Repository, fetcher QRFetcher, renderer Renderer, cfg config.AppConfig, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{repo: repo, fetcher: fetcher, renderer: renderer, cfg: cfg, logger: logger}
}

// EnsureAssets populates or repairs the QR and PDF references of an issued
// certificate. The returned error is reserved for storage failures; QR and
// renderer trouble never fails the call.
func (p *Pipeline) EnsureAssets(ctx context.Context, issuedId string) (*Result, error) {
	issued, err := p.repo.Issued.GetById(ctx, nil, issuedId)
	if err != nil {
		return nil, err
	}

	request, err := p.repo.Request.GetByIdAnyTenant(ctx, nil, issued.Version.RequestID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	verifyURL := certify.VerificationURL(p.cfg.BaseURL, issued.VerificationCode)

	result.QR = p.ensureQR(ctx, issued, verifyURL, result)
	result.PDF = p.ensurePDF(ctx, issued, request, result)

	if err := p.repo.Issued.UpdateAssetRefs(ctx, nil, issued.ID, result.QR, result.PDF); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Pipeline) ensureQR(ctx context.Context, issued *model.IssuedCertificate, verifyURL string, result *Result) certify.AssetRef {
	qrPath := certify.QRFilePath(p.cfg.StorageDir, issued.ID)

	// An existing file is authoritative; concurrent callers converge on it.
	if fileExists(qrPath) {
		return certify.FileBacked(qrPath)
	}

	png, err := p.fetcher.Fetch(ctx, verifyURL)
	if err != nil {
		p.logger.Warnf("QR fetch failed for issued %s: %v", issued.ID, err)
		result.Warnings = append(result.Warnings, Warning{
			Stage:   "qr",
			Kind:    WarningExternal,
			Message: fmt.Sprintf("QR service unavailable, using dynamic rendering: %v", err),
		})
		return certify.DynamicReference(certify.DynamicQRPath(issued.VerificationCode))
	}

	if err := writeFileAtomic(qrPath, png); err != nil {
		p.logger.Warnf("QR write failed for issued %s: %v", issued.ID, err)
		result.Warnings = append(result.Warnings, Warning{
			Stage:   "qr",
			Kind:    WarningExternal,
			Message: fmt.Sprintf("failed to store QR image, using dynamic rendering: %v", err),
		})
		return certify.DynamicReference(certify.DynamicQRPath(issued.VerificationCode))
	}

	return certify.FileBacked(qrPath)
}

func (p *Pipeline) ensurePDF(ctx context.Context, issued *model.IssuedCertificate, request *model.CertificateRequest, result *Result) certify.AssetRef {
	pdfPath := certify.PDFFilePath(p.cfg.StorageDir, issued.ID)

	// Never re-render an unchanged, already-rendered document.
	if fileExists(pdfPath) {
		return certify.FileBacked(pdfPath)
	}

	dynamic := certify.DynamicReference(certify.DynamicPrintPath(request.ID, issued.LanguageCode))

	templateFile, warn := p.resolveTemplateFile(ctx, request)
	if warn != nil {
		result.Warnings = append(result.Warnings, *warn)
		return dynamic
	}

	data := p.documentData(issued, request)

	qrFile := ""
	if qrPath := certify.QRFilePath(p.cfg.StorageDir, issued.ID); fileExists(qrPath) {
		qrFile = qrPath
	}

	tmpPath := tmpName(pdfPath)
	if err := p.renderer.Render(ctx, templateFile, tmpPath, data, qrFile); err != nil {
		os.Remove(tmpPath)
		p.logger.Warnf("PDF render failed for issued %s: %v", issued.ID, err)
		result.Warnings = append(result.Warnings, Warning{
			Stage:   "pdf",
			Kind:    WarningExternal,
			Message: fmt.Sprintf("renderer unavailable, using print view: %v", err),
		})
		return dynamic
	}

	if err := os.Rename(tmpPath, pdfPath); err != nil {
		os.Remove(tmpPath)
		p.logger.Warnf("PDF move failed for issued %s: %v", issued.ID, err)
		result.Warnings = append(result.Warnings, Warning{
			Stage:   "pdf",
			Kind:    WarningExternal,
			Message: fmt.Sprintf("failed to store rendered PDF, using print view: %v", err),
		})
		return dynamic
	}

	return certify.FileBacked(pdfPath)
}

// resolveTemplateFile picks the template PDF: the edition's code first, the
// hard default second. Neither existing is a configuration problem, not a
// transient one.
func (p *Pipeline) resolveTemplateFile(ctx context.Context, request *model.CertificateRequest) (string, *Warning) {
	code := constant.DefaultTemplateCode
	if request.CertificateEdition != nil {
		code = certify.ResolveTemplateCode(request.CertificateEdition.TemplateVersion, request.CertificateEdition.Scope, request.LanguageCode, constant.DefaultTemplateCode)
	}

	var lookupErr error
	for _, candidate := range dedupe(code, constant.DefaultTemplateCode) {
		template, err := p.repo.Template.FindByCode(ctx, nil, candidate)
		if err != nil {
			// A transient lookup failure must not stop the default
			// candidate from being tried.
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				lookupErr = err
				p.logger.Warnf("Template lookup failed for %s: %v", candidate, err)
			}
			continue
		}

		file := filepath.Join(p.cfg.TemplateDir, template.FilePath)
		if fileExists(file) {
			return file, nil
		}
		p.logger.Warnf("Template %s points at missing file %s", candidate, file)
	}

	if lookupErr != nil {
		return "", &Warning{Stage: "pdf", Kind: WarningExternal, Message: fmt.Sprintf("template lookup failed: %v", lookupErr)}
	}

	return "", &Warning{
		Stage:   "pdf",
		Kind:    WarningConfiguration,
		Message: fmt.Sprintf("no usable template for code %s (default %s also missing)", code, constant.DefaultTemplateCode),
	}
}

func (p *Pipeline) documentData(issued *model.IssuedCertificate, request *model.CertificateRequest) certify.DocumentData {
	// Render from the frozen snapshot so a later request edit can never
	// leak into an already-issued document.
	items := request.Items
	var snap model.VersionSnapshot
	if len(issued.Version.Snapshot) > 0 {
		if err := json.Unmarshal(issued.Version.Snapshot, &snap); err == nil {
			items = snap.Items
		}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s / %s / %s / %.3f kg", item.ProductName, item.Brand, item.OriginCountry, item.WeightKg))
	}

	data := certify.DocumentData{
		CertificateNumber: issued.CertificateNumber,
		IssuedAt:          issued.IssuedAt.Format("2006-01-02"),
		ExporterName:      request.Entity.StoreName,
		ImporterName:      request.ImporterName,
		ImporterCountry:   request.ImporterCountry,
		Lines:             lines,
	}
	if issued.PrintableUntil != nil {
		data.PrintableUntil = issued.PrintableUntil.Format("2006-01-02")
	}
	return data
}

func dedupe(codes ...string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// tmpSeq keeps concurrent writers of the same target on distinct temp
// files.
var tmpSeq atomic.Int64

func tmpName(path string) string {
	return fmt.Sprintf("%s.tmp-%d", path, tmpSeq.Add(1))
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := tmpName(path)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
