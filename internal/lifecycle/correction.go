package lifecycle

import (
	"context"
	"errors"

	"github.com/qooqz/certificates/internal/certerr"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

// SubmitCorrection opens an amendment request against a certificate
// request. Corrections are append-only rows; the certificate content itself
// is never edited in place.
func (s *Service) SubmitCorrection(ctx context.Context, tenantId, actorId string, correction *model.Correction) (*model.Correction, error) {
	if correction.RequestID == "" {
		return nil, certerr.Validation("request id is required")
	}
	if correction.ErrorSource == "" {
		return nil, certerr.Validation("error source is required")
	}

	request, err := s.repo.Request.GetById(ctx, nil, tenantId, correction.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status == constant.RequestStatusCancelled || request.Status == constant.RequestStatusRejected {
		return nil, certerr.StateConflict("request %s is %s, corrections are not accepted", request.ID, request.Status)
	}

	correction.RequestedBy = actorId
	correction.Status = constant.CorrectionStatusSubmitted

	err = s.repo.WithTx(func(tx *gorm.DB) error {
		if _, err := s.repo.Correction.Create(ctx, tx, correction); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, correction.RequestID, actorId, "correction", "correction submitted: "+correction.ErrorSource)
	})
	if err != nil {
		return nil, err
	}

	return correction, nil
}

// ReviewCorrection moves a submitted correction into review.
func (s *Service) ReviewCorrection(ctx context.Context, tenantId, actorId, correctionId string) error {
	correction, err := s.repo.Correction.GetById(ctx, nil, tenantId, correctionId)
	if err != nil {
		return err
	}
	if correction.Status != constant.CorrectionStatusSubmitted {
		return certerr.StateConflict("correction %s is %s, review requires submitted", correctionId, correction.Status)
	}

	return s.repo.Correction.UpdateStatus(ctx, nil, correctionId, constant.CorrectionStatusUnderReview, actorId)
}

// RejectCorrection closes a correction without side effects on versions.
func (s *Service) RejectCorrection(ctx context.Context, tenantId, actorId, correctionId string) error {
	correction, err := s.repo.Correction.GetById(ctx, nil, tenantId, correctionId)
	if err != nil {
		return err
	}
	if correction.Status != constant.CorrectionStatusSubmitted && correction.Status != constant.CorrectionStatusUnderReview {
		return certerr.StateConflict("correction %s is %s and can no longer be rejected", correctionId, correction.Status)
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
		if err := s.repo.Correction.UpdateStatus(ctx, tx, correctionId, constant.CorrectionStatusRejected, actorId); err != nil {
			return err
		}
		return s.repo.Log.Append(ctx, tx, correction.RequestID, actorId, "correction", "correction rejected")
	})
}

// MarkCorrectionPaid records the externally confirmed correction fee.
func (s *Service) MarkCorrectionPaid(ctx context.Context, tenantId, actorId, correctionId string) error {
	correction, err := s.repo.Correction.GetById(ctx, nil, tenantId, correctionId)
	if err != nil {
		return err
	}
	if correction.Status == constant.CorrectionStatusRejected || correction.Status == constant.CorrectionStatusCompleted {
		return certerr.StateConflict("correction %s is %s, payment can no longer apply", correctionId, correction.Status)
	}

	return s.repo.Correction.MarkPaid(ctx, nil, correctionId)
}

// ApproveCorrection approves an amendment and applies it: a new
// CertificateVersion is always created, and when the request was already
// issued a fresh IssuedCertificate supersedes the old one's printability
// through the same atomic primitive as first issuance. A payment-gated
// correction whose fee is unconfirmed is a StateConflict and creates
// nothing.
func (s *Service) ApproveCorrection(ctx context.Context, tenantId, actorId, correctionId string) (*model.IssuedCertificate, error) {
	correction, err := s.repo.Correction.GetById(ctx, nil, tenantId, correctionId)
	if err != nil {
		return nil, err
	}

	if correction.Status != constant.CorrectionStatusSubmitted && correction.Status != constant.CorrectionStatusUnderReview {
		return nil, certerr.StateConflict("correction %s is %s, approval requires submitted or under_review", correctionId, correction.Status)
	}
	if correction.PaymentRequired && !correction.PaymentPaid {
		return nil, certerr.StateConflict("correction %s requires payment before approval", correctionId)
	}

	request, err := s.repo.Request.GetById(ctx, nil, tenantId, correction.RequestID)
	if err != nil {
		return nil, err
	}

	// The correction's closing status change rides in the same transaction
	// as the version work, so a storage failure leaves it re-approvable
	// instead of stranded between statuses.
	complete := func(tx *gorm.DB) error {
		return s.repo.Correction.UpdateStatus(ctx, tx, correctionId, constant.CorrectionStatusCompleted, actorId)
	}

	var issued *model.IssuedCertificate
	if request.Status == constant.RequestStatusIssued {
		issued, err = s.issueVersion(ctx, request, constant.VersionReasonCorrection, actorId, complete)
		if err != nil {
			return nil, err
		}
	} else {
		err = s.createCorrectionVersion(ctx, request, actorId, complete)
		if err != nil {
			return nil, err
		}
	}

	return issued, nil
}

// createCorrectionVersion snapshots a corrected version for a request that
// has not been issued yet. No identifiers are touched. The after hook runs
// inside the same transaction.
func (s *Service) createCorrectionVersion(ctx context.Context, request *model.CertificateRequest, actorId string, after func(tx *gorm.DB) error) error {
	items, err := s.repo.RequestItem.GetByRequestId(ctx, nil, request.ID)
	if err != nil {
		return err
	}
	snapshot, err := model.NewVersionSnapshot(*request, items)
	if err != nil {
		return err
	}

	return s.repo.WithTx(func(tx *gorm.DB) error {
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
			Reason:        constant.VersionReasonCorrection,
			Snapshot:      snapshot,
			IsActive:      true,
			ApprovedBy:    actorId,
			ApprovedAt:    s.now(),
		}
		if _, err := s.repo.Version.Create(ctx, tx, version); err != nil {
			return err
		}

		if err := s.repo.Log.Append(ctx, tx, request.ID, actorId, "correction", "corrected version created"); err != nil {
			return err
		}

		if after != nil {
			return after(tx)
		}
		return nil
	})
}

// CorrectionsOf lists the corrections of a request, newest first.
func (s *Service) CorrectionsOf(ctx context.Context, tenantId, requestId string) ([]model.Correction, error) {
	if _, err := s.repo.Request.GetById(ctx, nil, tenantId, requestId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, certerr.ErrNotFound
		}
		return nil, err
	}
	return s.repo.Correction.GetByRequestId(ctx, nil, requestId)
}
