package constant

// RequestStatus is the lifecycle status of a certificate request.
// draft -> under_review -> payment_pending -> approved -> issued, with side
// exits to rejected and cancelled. issued is terminal; further changes flow
// through corrections.
type RequestStatus string

const (
	RequestStatusDraft          RequestStatus = "draft"
	RequestStatusUnderReview    RequestStatus = "under_review"
	RequestStatusPaymentPending RequestStatus = "payment_pending"
	RequestStatusApproved       RequestStatus = "approved"
	RequestStatusRejected       RequestStatus = "rejected"
	RequestStatusIssued         RequestStatus = "issued"
	RequestStatusCancelled      RequestStatus = "cancelled"
)

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusIssued || s == RequestStatusRejected || s == RequestStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type AuditStatus string

const (
	AuditStatusAssigned   AuditStatus = "assigned"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusRejected   AuditStatus = "rejected"
)

type CorrectionStatus string

const (
	CorrectionStatusSubmitted   CorrectionStatus = "submitted"
	CorrectionStatusUnderReview CorrectionStatus = "under_review"
	CorrectionStatusApproved    CorrectionStatus = "approved"
	CorrectionStatusRejected    CorrectionStatus = "rejected"
	CorrectionStatusCompleted   CorrectionStatus = "completed"
)

// VersionReason records why a certificate version snapshot was taken.
type VersionReason string

const (
	VersionReasonInitialIssue VersionReason = "initial_issue"
	VersionReasonCorrection   VersionReason = "correction"
)

const (
	// DefaultTemplateCode is the hard fallback when neither the edition's
	// template version nor the <lang>_<scope> derived code resolves.
	DefaultTemplateCode = "ar_gcc"

	DefaultLanguageCode = "ar"
)
