package controller

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/util"
	"github.com/qooqz/certificates/internal/verification"
	"github.com/qooqz/certificates/pkg/certify"
)

// VerifyController serves the public, unauthenticated verification surface.
// It never exposes tenant data beyond what the certificate itself shows.
type VerifyController struct {
	*baseController
}

// VerifyCertificate answers a verification code lookup. Browsers get a
// localized HTML page, API clients get the JSON outcome.
func (vc VerifyController) VerifyCertificate(ctx *gin.Context) {
	code := ctx.Params.ByName("code")

	outcome, err := vc.app.Verification.Verify(ctx, code)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Verification lookup failed", util.GenerateErrorMessages(err), nil)
		return
	}

	if wantsHTML(ctx) {
		vc.renderVerifyPage(ctx, code, outcome)
		return
	}

	switch outcome.Status {
	case verification.StatusNotFound:
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", nil, gin.H{"status": outcome.Status})
	case verification.StatusCancelled:
		util.ResponseFailed(ctx, http.StatusGone, "Certificate has been cancelled", nil, gin.H{
			"status":      outcome.Status,
			"certificate": publicCertificate(outcome),
		})
	default:
		util.ResponseSuccess(ctx, gin.H{
			"status":      outcome.Status,
			"certificate": publicCertificate(outcome),
		})
	}
}

// DownloadDocument streams the certificate PDF for a valid code. Cancelled
// and expired certificates never serve the document.
func (vc VerifyController) DownloadDocument(ctx *gin.Context) {
	code := ctx.Params.ByName("code")

	outcome, err := vc.app.Verification.Verify(ctx, code)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Verification lookup failed", util.GenerateErrorMessages(err), nil)
		return
	}

	if outcome.Status != verification.StatusValid {
		util.ResponseFailed(ctx, http.StatusNotFound, "No downloadable document for this code", nil, gin.H{"status": outcome.Status})
		return
	}

	switch {
	case outcome.Document.IsFile():
		filename := certify.DownloadFilename(outcome.Issued.CertificateNumber)
		ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		ctx.Header("Content-Type", "application/pdf")
		ctx.File(outcome.Document.Ref)
	case outcome.Document.IsDynamic():
		ctx.Redirect(http.StatusTemporaryRedirect, outcome.Document.Ref)
	default:
		util.ResponseFailed(ctx, http.StatusNotFound, "Document not generated yet", nil, nil)
	}
}

// DynamicQR renders the QR PNG on demand. It backs the fallback asset ref
// but also works for any known code.
func (vc VerifyController) DynamicQR(ctx *gin.Context) {
	code := ctx.Params.ByName("code")

	outcome, err := vc.app.Verification.Verify(ctx, code)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Verification lookup failed", util.GenerateErrorMessages(err), nil)
		return
	}
	if outcome.Status == verification.StatusNotFound {
		util.ResponseFailed(ctx, http.StatusNotFound, "Unknown verification code", nil, nil)
		return
	}

	link := certify.VerificationURL(vc.app.Config.App.BaseURL, code)
	png, err := certify.GenerateQRCode(link, vc.app.Config.QR.PixelSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to render QR code", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

// PrintView renders a minimal printable HTML document for a request. It
// backs the dynamic PDF fallback ref.
func (vc VerifyController) PrintView(ctx *gin.Context) {
	requestId := ctx.Query("request_id")
	lang := normalizeLang(ctx.Query("lang"))

	request, err := vc.app.Repository.Request.GetByIdAnyTenant(ctx, nil, requestId)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Certificate not found", util.GenerateErrorMessages(err), nil)
		return
	}
	if request.Status != constant.RequestStatusIssued || request.IssuedID == nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", nil, nil)
		return
	}

	issued, err := vc.app.Repository.Issued.GetById(ctx, nil, *request.IssuedID)
	if err != nil {
		util.ResponseFailed(ctx, statusForError(err), "Certificate not found", util.GenerateErrorMessages(err), nil)
		return
	}
	if issued.IsCancelled || issued.Expired(time.Now()) {
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", nil, nil)
		return
	}

	var buf bytes.Buffer
	err = printTemplate.Execute(&buf, printPageData{
		Lang:              lang,
		Dir:               langDir(lang),
		CertificateNumber: issued.CertificateNumber,
		IssuedAt:          issued.IssuedAt.Format("2006-01-02"),
		ExporterName:      request.Entity.StoreName,
		ImporterName:      request.ImporterName,
		ImporterCountry:   request.ImporterCountry,
		Items:             itemLines(request.Items, lang),
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to render print view", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (vc VerifyController) renderVerifyPage(ctx *gin.Context, code string, outcome *verification.Outcome) {
	lang := constant.DefaultLanguageCode
	if outcome.Issued != nil && outcome.Issued.LanguageCode != "" {
		lang = outcome.Issued.LanguageCode
	}
	if q := ctx.Query("lang"); q != "" {
		lang = normalizeLang(q)
	}

	data := verifyPageData{
		Lang:   lang,
		Dir:    langDir(lang),
		Status: string(outcome.Status),
		Code:   code,
	}
	if outcome.Issued != nil {
		data.CertificateNumber = outcome.Issued.CertificateNumber
		data.IssuedAt = outcome.Issued.IssuedAt.Format("2006-01-02")
		if outcome.Issued.PrintableUntil != nil {
			data.PrintableUntil = outcome.Issued.PrintableUntil.Format("2006-01-02")
		}
		data.CancelReason = outcome.Issued.CancelReason
	}
	if outcome.Request != nil {
		data.ExporterName = outcome.Request.Entity.StoreName
		data.ImporterName = outcome.Request.ImporterName
		data.ImporterCountry = outcome.Request.ImporterCountry
	}
	if outcome.Status == verification.StatusValid {
		data.DownloadPath = "/api/v1/verify/" + code + "/document"
	}

	var buf bytes.Buffer
	if err := verifyTemplate.Execute(&buf, data); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to render verification page", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.Data(verifyStatusCode(outcome.Status), "text/html; charset=utf-8", buf.Bytes())
}

// verifyStatusCode keeps the public surface cache-honest: an unknown code
// is a 404 and a cancelled certificate a 410 on both renderings, never a
// cacheable success.
func verifyStatusCode(status verification.Status) int {
	switch status {
	case verification.StatusNotFound:
		return http.StatusNotFound
	case verification.StatusCancelled:
		return http.StatusGone
	default:
		return http.StatusOK
	}
}

// publicCertificate strips the outcome down to what anyone holding the code
// may see.
func publicCertificate(outcome *verification.Outcome) gin.H {
	if outcome.Issued == nil {
		return nil
	}

	cert := gin.H{
		"certificateNumber": outcome.Issued.CertificateNumber,
		"issuedAt":          outcome.Issued.IssuedAt,
		"printableUntil":    outcome.Issued.PrintableUntil,
	}
	if outcome.Request != nil {
		cert["exporterName"] = outcome.Request.Entity.StoreName
		cert["importerName"] = outcome.Request.ImporterName
		cert["importerCountry"] = outcome.Request.ImporterCountry
	}
	if outcome.Status == verification.StatusCancelled {
		cert["cancelReason"] = outcome.Issued.CancelReason
	}
	return cert
}

func wantsHTML(ctx *gin.Context) bool {
	if ctx.Query("format") == "html" {
		return true
	}
	accept := ctx.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}

func normalizeLang(lang string) string {
	if lang == "en" {
		return "en"
	}
	return constant.DefaultLanguageCode
}

func langDir(lang string) string {
	if lang == "ar" {
		return "rtl"
	}
	return "ltr"
}

func itemLines(items []model.RequestItem, lang string) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		name, brand := item.ProductName, item.Brand
		for _, tr := range item.Translations {
			if tr.LanguageCode == lang {
				name = tr.ProductName
				if tr.Brand != "" {
					brand = tr.Brand
				}
				break
			}
		}
		line := name
		if brand != "" {
			line += " - " + brand
		}
		lines = append(lines, line)
	}
	return lines
}

type verifyPageData struct {
	Lang              string
	Dir               string
	Status            string
	Code              string
	CertificateNumber string
	IssuedAt          string
	PrintableUntil    string
	CancelReason      string
	ExporterName      string
	ImporterName      string
	ImporterCountry   string
	DownloadPath      string
}

type printPageData struct {
	Lang              string
	Dir               string
	CertificateNumber string
	IssuedAt          string
	ExporterName      string
	ImporterName      string
	ImporterCountry   string
	Items             []string
}

var verifyTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<title>Certificate Verification</title>
</head>
<body class="verify verify-{{.Status}}">
{{if eq .Status "valid"}}
<h1>Certificate is valid</h1>
<dl>
<dt>Certificate number</dt><dd>{{.CertificateNumber}}</dd>
<dt>Issued at</dt><dd>{{.IssuedAt}}</dd>
<dt>Printable until</dt><dd>{{.PrintableUntil}}</dd>
<dt>Exporter</dt><dd>{{.ExporterName}}</dd>
<dt>Importer</dt><dd>{{.ImporterName}} ({{.ImporterCountry}})</dd>
</dl>
<p><a href="{{.DownloadPath}}">Download certificate</a></p>
{{else if eq .Status "cancelled"}}
<h1>Certificate has been cancelled</h1>
<p>Certificate {{.CertificateNumber}} is no longer valid.</p>
{{if .CancelReason}}<p>Reason: {{.CancelReason}}</p>{{end}}
{{else if eq .Status "expired"}}
<h1>Certificate printable period has ended</h1>
<dl>
<dt>Certificate number</dt><dd>{{.CertificateNumber}}</dd>
<dt>Issued at</dt><dd>{{.IssuedAt}}</dd>
<dt>Exporter</dt><dd>{{.ExporterName}}</dd>
</dl>
{{else}}
<h1>Certificate not found</h1>
<p>No certificate matches code {{.Code}}.</p>
{{end}}
</body>
</html>
`))

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<title>{{.CertificateNumber}}</title>
</head>
<body class="print">
<h1>{{.CertificateNumber}}</h1>
<dl>
<dt>Issued at</dt><dd>{{.IssuedAt}}</dd>
<dt>Exporter</dt><dd>{{.ExporterName}}</dd>
<dt>Importer</dt><dd>{{.ImporterName}} ({{.ImporterCountry}})</dd>
</dl>
<ol>
{{range .Items}}<li>{{.}}</li>
{{end}}</ol>
</body>
</html>
`))
