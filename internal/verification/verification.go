package verification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/pkg/certify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status is the public verdict for a verification code.
type Status string

const (
	StatusValid     Status = "valid"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusNotFound  Status = "not_found"
)

// Outcome is everything a verification page needs. Document is populated
// only for StatusValid; a cancelled certificate never exposes its document,
// even when a rendered PDF still exists on disk.
type Outcome struct {
	Status   Status                    `json:"status"`
	Issued   *model.IssuedCertificate  `json:"issued,omitempty"`
	Request  *model.CertificateRequest `json:"request,omitempty"`
	Items    []model.RequestItem       `json:"items,omitempty"`
	Document certify.AssetRef          `json:"document,omitempty"`
}

// Service answers public verification lookups. It is strictly read-only and
// unauthenticated; the only input it trusts is the opaque verification code.
type Service struct {
	repo   *repository.Repository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(repo *repository.Repository, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Verify resolves a verification code to its public outcome. An unknown
// code is a normal answer, not an error; errors are reserved for storage
// failures.
func (s *Service) Verify(ctx context.Context, code string) (*Outcome, error) {
	if code == "" {
		return &Outcome{Status: StatusNotFound}, nil
	}

	issued, err := s.repo.Issued.GetByVerificationCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Outcome{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	request, err := s.repo.Request.GetByIdAnyTenant(ctx, nil, issued.Version.RequestID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Issued:  issued,
		Request: request,
		Items:   snapshotItems(issued.Version, request),
	}

	switch {
	case issued.IsCancelled:
		outcome.Status = StatusCancelled
	case issued.Expired(s.now()):
		outcome.Status = StatusExpired
	default:
		outcome.Status = StatusValid
		outcome.Document = issued.PDF
	}

	return outcome, nil
}

// snapshotItems prefers the frozen version payload so the page shows what
// was certified, not what the request says today.
func snapshotItems(version model.CertificateVersion, request *model.CertificateRequest) []model.RequestItem {
	if len(version.Snapshot) > 0 {
		var snap model.VersionSnapshot
		if err := json.Unmarshal(version.Snapshot, &snap); err == nil && len(snap.Items) > 0 {
			return snap.Items
		}
	}
	return request.Items
}
