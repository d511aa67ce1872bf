package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qooqz/certificates/internal/certerr"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/identifier"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/pkg/certify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// printableWindow is how long an issued certificate stays downloadable.
const printableWindow = 365 * 24 * time.Hour

// Service owns the request state machine. All collaborators are injected;
// nothing reaches into ambient globals.
type Service struct {
	repo   *repository.Repository
	ids    *identifier.Generator
	logger *zap.SugaredLogger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(repo *repository.Repository, ids *identifier.Generator, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, ids: ids, logger: logger, now: time.Now}
}

// legalTransitions maps current status to the statuses reachable from it.
// approved -> issued is intentionally absent: issuance goes through Issue,
// never through a plain status change.
var legalTransitions = map[constant.RequestStatus][]constant.RequestStatus{
	constant.RequestStatusDraft:          {constant.RequestStatusUnderReview, constant.RequestStatusCancelled},
	constant.RequestStatusUnderReview:    {constant.RequestStatusPaymentPending, constant.RequestStatusApproved, constant.RequestStatusRejected, constant.RequestStatusCancelled},
	constant.RequestStatusPaymentPending: {constant.RequestStatusApproved, constant.RequestStatusRejected, constant.RequestStatusCancelled},
	constant.RequestStatusApproved:       {constant.RequestStatusCancelled},
}

func transitionLegal(from, to constant.RequestStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateRequest persists a new draft request together with its line items.
func (s *Service) CreateRequest(ctx context.Context, tenantId, actorId string, request *model.CertificateRequest, items []*model.RequestItem) (*model.CertificateRequest, error) {
	if request.EntityID == "" {
		return nil, certerr.Validation("entity id is required")
	}
	if request.ImporterName == "" || request.ImporterCountry == "" {
		return nil, certerr.Validation("importer name and country are required")
	}

	request.TenantID = tenantId
	request.Status = constant.RequestStatusDraft
	if request.LanguageCode == "" {
		request.LanguageCode = constant.DefaultLanguageCode
	}
	if request.PaymentStatus == "" {
		request.PaymentStatus = constant.PaymentStatusUnpaid
	}

	err := s.repo.WithTx(func(tx *gorm.DB) error {
		if _, err := s.repo.Request.Create(ctx, tx, request); err != nil {
			return err
		}
		for _, item := range items {
			item.RequestID = request.ID
		}
		if _, err := s.repo.RequestItem.CreateMany(ctx, tx, items); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, request.ID, actorId, "create", "request created")
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// UpdateRequest mutates request content and items while the request is
// still editable.
func (s *Service) UpdateRequest(ctx context.Context, tenantId, actorId string, request *model.CertificateRequest, items []*model.RequestItem) error {
	current, err := s.repo.Request.GetById(ctx, nil, tenantId, request.ID)
	if err != nil {
		return err
	}
	if !current.Editable() {
		return certerr.StateConflict("request %s is %s and no longer editable", request.ID, current.Status)
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		if err := s.repo.Request.Update(ctx, tx, request); err != nil {
			return err
		}
		if items != nil {
			if err := s.repo.RequestItem.ReplaceForRequest(ctx, tx, request.ID, items); err != nil {
				return err
			}
		}
		return s.repo.Log.Append(ctx, tx, request.ID, actorId, "update", "request content updated")
	})
}

// Transition moves a request to the target status, enforcing the guards of
// the state machine. It never performs issuance.
func (s *Service) Transition(ctx context.Context, tenantId, actorId, requestId string, to constant.RequestStatus) error {
	request, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId)
	if err != nil {
		return err
	}

	if !transitionLegal(request.Status, to) {
		return certerr.StateConflict("cannot move request %s from %s to %s", requestId, request.Status, to)
	}

	switch to {
	case constant.RequestStatusApproved:
		if err := s.guardApproval(ctx, request); err != nil {
			return err
		}
	case constant.RequestStatusPaymentPending:
		if err := s.guardAuditCompleted(ctx, request.ID); err != nil {
			return err
		}
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		if err := s.repo.Request.UpdateStatus(ctx, tx, requestId, to, nil); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, requestId, actorId, string(to), "status changed to "+string(to))
	})
}

func (s *Service) guardApproval(ctx context.Context, request *model.CertificateRequest) error {
	switch request.Status {
	case constant.RequestStatusUnderReview:
		return s.guardAuditCompleted(ctx, request.ID)
	case constant.RequestStatusPaymentPending:
		if request.PaymentStatus != constant.PaymentStatusPaid {
			return certerr.StateConflict("request %s payment is %s, approval requires paid", request.ID, request.PaymentStatus)
		}
		return nil
	default:
		return certerr.StateConflict("approval is not legal from %s", request.Status)
	}
}

func (s *Service) guardAuditCompleted(ctx context.Context, requestId string) error {
	audit, err := s.repo.Audit.GetLatestByRequestId(ctx, nil, requestId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return certerr.StateConflict("request %s has no audit assignment", requestId)
		}
		return err
	}
	if audit.Status != constant.AuditStatusCompleted {
		return certerr.StateConflict("request %s audit is %s, progression requires completed", requestId, audit.Status)
	}
	return nil
}

// ConfirmPayment records an externally confirmed payment and, when the
// request sits in payment_pending, advances it to approved. The core never
// assumes payment success on its own.
func (s *Service) ConfirmPayment(ctx context.Context, tenantId, actorId, requestId string) error {
	request, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId)
	if err != nil {
		return err
	}
	if request.Status.Terminal() {
		return certerr.StateConflict("request %s is %s, payment can no longer apply", requestId, request.Status)
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		extra := map[string]any{"payment_status": constant.PaymentStatusPaid}
		status := request.Status
		if status == constant.RequestStatusPaymentPending {
			status = constant.RequestStatusApproved
		}
		if err := s.repo.Request.UpdateStatus(ctx, tx, requestId, status, extra); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, requestId, actorId, "payment_confirmed", "payment confirmed")
	})
}

// AssignAudit creates an audit assignment for the request.
func (s *Service) AssignAudit(ctx context.Context, tenantId, actorId, requestId, auditorId string) (*model.Audit, error) {
	if auditorId == "" {
		return nil, certerr.Validation("auditor id is required")
	}

	request, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, certerr.StateConflict("request %s is %s, audits can no longer be assigned", requestId, request.Status)
	}

	audit := &model.Audit{
		RequestID:  requestId,
		AuditorID:  auditorId,
		AssignedBy: actorId,
		AssignedAt: s.now(),
		Status:     constant.AuditStatusAssigned,
	}

	err = s.repo.WithTx(func(tx *gorm.DB) error {
		if _, err := s.repo.Audit.Create(ctx, tx, audit); err != nil {
			return err
		}
		if err := s.repo.Request.UpdateStatus(ctx, tx, requestId, request.Status, map[string]any{"auditor_user_id": auditorId}); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, requestId, actorId, "audit", "auditor assigned")
	})
	if err != nil {
		return nil, err
	}

	return audit, nil
}

// CompleteAudit finishes an audit assignment with the given outcome.
func (s *Service) CompleteAudit(ctx context.Context, tenantId, actorId, requestId string, status constant.AuditStatus, notes string) error {
	if status != constant.AuditStatusCompleted && status != constant.AuditStatusRejected && status != constant.AuditStatusInProgress {
		return certerr.Validation("invalid audit outcome %s", status)
	}

	audit, err := s.repo.Audit.GetLatestByRequestId(ctx, nil, requestId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return certerr.StateConflict("request %s has no audit assignment", requestId)
		}
		return err
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		if err := s.repo.Audit.UpdateStatus(ctx, tx, audit.ID, status, notes); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, requestId, actorId, "audit", "audit "+string(status))
	})
}

// Issue executes approved -> issued: the only code path allowed to call the
// identifier generator and create an IssuedCertificate. Version creation,
// identifier assignment and the issued insert run in one transaction; the
// storage uniqueness constraints are the final race backstop. Re-running
// issuance on an already-issued request is rejected, never retried.
func (s *Service) Issue(ctx context.Context, tenantId, actorId, requestId string) (*model.IssuedCertificate, error) {
	request, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId)
	if err != nil {
		return nil, err
	}

	if request.Status == constant.RequestStatusIssued {
		return nil, certerr.StateConflict("request %s is already issued", requestId)
	}
	if request.Status != constant.RequestStatusApproved {
		return nil, certerr.StateConflict("cannot issue request %s from %s", requestId, request.Status)
	}

	issued, err := s.issueVersion(ctx, request, constant.VersionReasonInitialIssue, actorId, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Issued certificate %s for request %s", issued.CertificateNumber, requestId)
	return issued, nil
}

// issueVersion is the shared atomic primitive behind first issuance and
// correction re-issuance: claim the request row, snapshot a new version,
// assign fresh identifiers, insert the issued row, and link it back. The
// guarded claim runs first inside the transaction, so a concurrent issuance
// of the same request loses the claim and gets StateConflict instead of a
// second version. On an identifier uniqueness violation the transaction is
// rolled back and retried exactly once with a freshly generated
// verification code; the certificate number is kept so real sequence
// contention surfaces instead of hiding in gaps. The optional after hook
// runs inside the same transaction, after the issued row exists.
func (s *Service) issueVersion(ctx context.Context, request *model.CertificateRequest, reason constant.VersionReason, actorId string, after func(tx *gorm.DB) error) (*model.IssuedCertificate, error) {
	templateCode := constant.DefaultTemplateCode
	if request.CertificateEditionID != "" {
		edition, err := s.repo.Template.GetEditionById(ctx, nil, request.CertificateEditionID)
		if err == nil {
			templateCode = certify.ResolveTemplateCode(edition.TemplateVersion, edition.Scope, request.LanguageCode, constant.DefaultTemplateCode)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	items, err := s.repo.RequestItem.GetByRequestId(ctx, nil, request.ID)
	if err != nil {
		return nil, err
	}
	snapshot, err := model.NewVersionSnapshot(*request, items)
	if err != nil {
		return nil, err
	}

	var issued *model.IssuedCertificate
	attempt := func(verificationCode string) error {
		return s.repo.WithTx(func(tx *gorm.DB) error {
			claimed, err := s.repo.Request.ClaimIssuance(ctx, tx, request.ID, request.Status, request.IssuedID)
			if err != nil {
				return err
			}
			if !claimed {
				return certerr.StateConflict("request %s was issued concurrently", request.ID)
			}

			versionNumber, err := s.repo.Version.NextVersionNumber(ctx, tx, request.ID)
			if err != nil {
				return err
			}
			if err := s.repo.Version.DeactivatePrevious(ctx, tx, request.ID); err != nil {
				return err
			}

			version := &model.CertificateVersion{
				RequestID:     request.ID,
				VersionNumber: versionNumber,
				Reason:        reason,
				Snapshot:      snapshot,
				IsActive:      true,
				ApprovedBy:    actorId,
				ApprovedAt:    s.now(),
			}
			if _, err := s.repo.Version.Create(ctx, tx, version); err != nil {
				return err
			}

			seq, err := s.repo.Issued.CountByTenant(ctx, tx, request.TenantID)
			if err != nil {
				return err
			}

			now := s.now()
			printableUntil := now.Add(printableWindow)
			row := &model.IssuedCertificate{
				VersionID:         version.ID,
				CertificateNumber: s.ids.CertificateNumber(templateCode, seq+1, now),
				VerificationCode:  verificationCode,
				IssuedBy:          actorId,
				IssuedAt:          now,
				PrintableUntil:    &printableUntil,
				LanguageCode:      request.LanguageCode,
			}
			if _, err := s.repo.Issued.Create(ctx, tx, row); err != nil {
				return err
			}

			if request.IssuedID != nil && *request.IssuedID != "" {
				if err := s.repo.Issued.SupersedePrintability(ctx, tx, *request.IssuedID, now); err != nil {
					return err
				}
			}

			if err := s.repo.Request.UpdateStatus(ctx, tx, request.ID, constant.RequestStatusIssued, map[string]any{
				"issued_id":  row.ID,
				"issue_date": now,
			}); err != nil {
				return err
			}

			if err := s.repo.Log.Append(ctx, tx, request.ID, actorId, "issue", "certificate "+row.CertificateNumber+" issued"); err != nil {
				return err
			}

			if after != nil {
				if err := after(tx); err != nil {
					return err
				}
			}

			issued = row
			return nil
		})
	}

	code, err := s.ids.NewVerificationCode()
	if err != nil {
		return nil, err
	}
	if err := attempt(code); err != nil {
		switch {
		case identifierViolation(err):
			s.logger.Warnf("Identifier collision while issuing request %s, retrying with a fresh verification code", request.ID)
			code, genErr := s.ids.NewVerificationCode()
			if genErr != nil {
				return nil, genErr
			}
			if err := attempt(code); err != nil {
				if isUniqueViolation(err) {
					return nil, certerr.IdentifierCollision(err)
				}
				return nil, err
			}
		case isUniqueViolation(err):
			// A constraint other than the identifier indexes fired, which
			// means another issuance of this request won the race.
			return nil, certerr.StateConflict("request %s was issued concurrently", request.ID)
		default:
			return nil, err
		}
	}

	return issued, nil
}

// Cancel cancels a request and, if it was issued, its issued certificate.
// Reachable from any non-terminal request state; an issued certificate is
// cancelled through its request. Nothing is deleted.
func (s *Service) Cancel(ctx context.Context, tenantId, actorId, requestId, reason string) error {
	request, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId)
	if err != nil {
		return err
	}

	if request.Status == constant.RequestStatusCancelled {
		return certerr.StateConflict("request %s is already cancelled", requestId)
	}
	if request.Status == constant.RequestStatusRejected {
		return certerr.StateConflict("request %s is rejected, nothing to cancel", requestId)
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		if request.IssuedID != nil && *request.IssuedID != "" {
			if err := s.repo.Issued.Cancel(ctx, tx, *request.IssuedID, actorId, reason); err != nil {
				return err
			}
		}
		if err := s.repo.Request.UpdateStatus(ctx, tx, requestId, constant.RequestStatusCancelled, nil); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, requestId, actorId, "cancel", reason)
	})
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// identifierViolation reports whether a unique violation names one of the
// issuance identifier columns. Only those are retried with a fresh
// verification code; a violation elsewhere means a lost issuance race.
func identifierViolation(err error) bool {
	if !isUniqueViolation(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "verification_code") || strings.Contains(msg, "certificate_number")
}
