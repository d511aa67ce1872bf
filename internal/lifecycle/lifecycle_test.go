package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qooqz/certificates/internal/certerr"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/identifier"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testTenant  = "tenant-1"
	testActor   = "officer-1"
	testAuditor = "auditor-1"
)

type lifecycleFixture struct {
	db      *gorm.DB
	repo    *repository.Repository
	service *Service
	entity  *model.Entity
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
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
		&model.CertificateEdition{},
		&model.CertificateTemplate{},
		&model.Correction{},
		&model.Audit{},
		&model.CertificateLog{},
	))

	log := zap.NewNop().Sugar()
	repo := repository.NewRepository(db, log)

	entity := &model.Entity{TenantID: testTenant, StoreName: "Acme Exports"}
	require.NoError(t, db.Create(entity).Error)

	return &lifecycleFixture{
		db:      db,
		repo:    repo,
		service: NewService(repo, identifier.NewGenerator(), log),
		entity:  entity,
	}
}

func (fx *lifecycleFixture) newDraft(t *testing.T) *model.CertificateRequest {
	t.Helper()

	request := &model.CertificateRequest{
		EntityID:        fx.entity.ID,
		CertificateType: "export",
		ImporterName:    "Gulf Imports LLC",
		ImporterCountry: "AE",
	}
	items := []*model.RequestItem{
		{ProductName: "Dates", Brand: "Oasis", OriginCountry: "SA", WeightKg: 120.5, Quantity: 10},
		{ProductName: "Olive Oil", OriginCountry: "TN", WeightKg: 40, Quantity: 4},
	}

	request, err := fx.service.CreateRequest(context.Background(), testTenant, testActor, request, items)
	require.NoError(t, err)
	require.Equal(t, constant.RequestStatusDraft, request.Status)
	return request
}

// advance walks a draft through review and a completed audit to approved.
func (fx *lifecycleFixture) advanceToApproved(t *testing.T, requestId string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, fx.service.Transition(ctx, testTenant, testActor, requestId, constant.RequestStatusUnderReview))
	_, err := fx.service.AssignAudit(ctx, testTenant, testActor, requestId, testAuditor)
	require.NoError(t, err)
	require.NoError(t, fx.service.CompleteAudit(ctx, testTenant, testAuditor, requestId, constant.AuditStatusCompleted, "all documents in order"))
	require.NoError(t, fx.service.Transition(ctx, testTenant, testActor, requestId, constant.RequestStatusApproved))
}

func TestFullLifecycleToIssued(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)

	issued, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, issued.CertificateNumber)
	assert.NotEmpty(t, issued.VerificationCode)
	require.NotNil(t, issued.PrintableUntil)
	assert.True(t, issued.PrintableUntil.After(issued.IssuedAt))

	stored, err := fx.repo.Request.GetById(ctx, nil, testTenant, request.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.RequestStatusIssued, stored.Status)
	require.NotNil(t, stored.IssuedID)
	assert.Equal(t, issued.ID, *stored.IssuedID)
	assert.NotNil(t, stored.IssueDate)

	versions, err := fx.repo.Version.GetByRequestId(ctx, nil, request.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, constant.VersionReasonInitialIssue, versions[0].Reason)
	assert.True(t, versions[0].IsActive)
	assert.NotEmpty(t, versions[0].Snapshot)

	logs, err := fx.repo.Log.GetByRequestId(ctx, nil, request.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestIssueOnlyFromApproved(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)

	_, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
	assert.ErrorIs(t, err, certerr.ErrStateConflict)

	var count int64
	require.NoError(t, fx.db.Model(&model.IssuedCertificate{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDoubleIssueRejected(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)

	_, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
	require.NoError(t, err)

	_, err = fx.service.Issue(ctx, testTenant, testActor, request.ID)
	assert.ErrorIs(t, err, certerr.ErrStateConflict)

	var count int64
	require.NoError(t, fx.db.Model(&model.IssuedCertificate{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentIssueSingleWinner(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, certerr.ErrStateConflict)
		}
	}
	assert.Equal(t, 1, wins)

	var issuedCount, versionCount int64
	require.NoError(t, fx.db.Model(&model.IssuedCertificate{}).Count(&issuedCount).Error)
	require.NoError(t, fx.db.Model(&model.CertificateVersion{}).Count(&versionCount).Error)
	assert.EqualValues(t, 1, issuedCount)
	assert.EqualValues(t, 1, versionCount)
}

func TestIssueWithStaleStatusReadRejected(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)

	// A second caller reads the request while it is still approved.
	stale, err := fx.repo.Request.GetById(ctx, nil, testTenant, request.ID)
	require.NoError(t, err)
	require.Equal(t, constant.RequestStatusApproved, stale.Status)

	_, err = fx.service.Issue(ctx, testTenant, testActor, request.ID)
	require.NoError(t, err)

	// The stale caller proceeds past its status check; the claim inside
	// the transaction must reject it instead of minting a second version.
	_, err = fx.service.issueVersion(ctx, stale, constant.VersionReasonInitialIssue, testActor, nil)
	assert.ErrorIs(t, err, certerr.ErrStateConflict)

	var issuedCount, versionCount int64
	require.NoError(t, fx.db.Model(&model.IssuedCertificate{}).Count(&issuedCount).Error)
	require.NoError(t, fx.db.Model(&model.CertificateVersion{}).Count(&versionCount).Error)
	assert.EqualValues(t, 1, issuedCount)
	assert.EqualValues(t, 1, versionCount)
}

func TestApprovalRequiresCompletedAudit(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	require.NoError(t, fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusUnderReview))

	err := fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusApproved)
	assert.ErrorIs(t, err, certerr.ErrStateConflict)

	_, err = fx.service.AssignAudit(ctx, testTenant, testActor, request.ID, testAuditor)
	require.NoError(t, err)

	err = fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusApproved)
	assert.ErrorIs(t, err, certerr.ErrStateConflict, "an assigned but unfinished audit must not unlock approval")

	require.NoError(t, fx.service.CompleteAudit(ctx, testTenant, testAuditor, request.ID, constant.AuditStatusCompleted, ""))
	assert.NoError(t, fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusApproved))
}

func TestPaymentPendingGatesApproval(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	require.NoError(t, fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusUnderReview))
	_, err := fx.service.AssignAudit(ctx, testTenant, testActor, request.ID, testAuditor)
	require.NoError(t, err)
	require.NoError(t, fx.service.CompleteAudit(ctx, testTenant, testAuditor, request.ID, constant.AuditStatusCompleted, ""))
	require.NoError(t, fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusPaymentPending))

	err = fx.service.Transition(ctx, testTenant, testActor, request.ID, constant.RequestStatusApproved)
	assert.ErrorIs(t, err, certerr.ErrStateConflict, "unpaid fee must block approval")

	require.NoError(t, fx.service.ConfirmPayment(ctx, testTenant, testActor, request.ID))

	stored, err := fx.repo.Request.GetById(ctx, nil, testTenant, request.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.RequestStatusApproved, stored.Status)
	assert.Equal(t, constant.PaymentStatusPaid, stored.PaymentStatus)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)

	tests := []struct {
		name string
		to   constant.RequestStatus
	}{
		{"draft straight to approved", constant.RequestStatusApproved},
		{"draft straight to issued", constant.RequestStatusIssued},
		{"draft straight to rejected", constant.RequestStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fx.service.Transition(ctx, testTenant, testActor, request.ID, tt.to)
			assert.ErrorIs(t, err, certerr.ErrStateConflict)
		})
	}
}

func TestUpdateLockedAfterApproval(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)

	request.Notes = "updated while draft"
	require.NoError(t, fx.service.UpdateRequest(ctx, testTenant, testActor, request, nil))

	fx.advanceToApproved(t, request.ID)

	request.Notes = "updated after approval"
	err := fx.service.UpdateRequest(ctx, testTenant, testActor, request, nil)
	assert.ErrorIs(t, err, certerr.ErrStateConflict)
}

func TestCancelIssuedCancelsCertificate(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)
	issued, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
	require.NoError(t, err)

	require.NoError(t, fx.service.Cancel(ctx, testTenant, testActor, request.ID, "shipment withdrawn"))

	stored, err := fx.repo.Issued.GetById(ctx, nil, issued.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCancelled)
	assert.Equal(t, "shipment withdrawn", stored.CancelReason)
	require.NotNil(t, stored.CancelledBy)
	assert.Equal(t, testActor, *stored.CancelledBy)

	storedRequest, err := fx.repo.Request.GetById(ctx, nil, testTenant, request.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.RequestStatusCancelled, storedRequest.Status)

	err = fx.service.Cancel(ctx, testTenant, testActor, request.ID, "again")
	assert.ErrorIs(t, err, certerr.ErrStateConflict)
}

func TestIssuedIdentifiersUnique(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	numbers := map[string]bool{}
	codes := map[string]bool{}
	for i := 0; i < 3; i++ {
		request := fx.newDraft(t)
		fx.advanceToApproved(t, request.ID)
		issued, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
		require.NoError(t, err)

		assert.False(t, numbers[issued.CertificateNumber], "certificate number reused")
		assert.False(t, codes[issued.VerificationCode], "verification code reused")
		numbers[issued.CertificateNumber] = true
		codes[issued.VerificationCode] = true
	}
}

func TestTenantIsolation(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	request := fx.newDraft(t)

	err := fx.service.Transition(ctx, "other-tenant", testActor, request.ID, constant.RequestStatusUnderReview)
	assert.Error(t, err)

	stored, err := fx.repo.Request.GetById(ctx, nil, testTenant, request.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.RequestStatusDraft, stored.Status)
}

func TestCreateRequestValidation(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	_, err := fx.service.CreateRequest(ctx, testTenant, testActor, &model.CertificateRequest{
		EntityID:        fx.entity.ID,
		CertificateType: "export",
	}, nil)
	assert.ErrorIs(t, err, certerr.ErrValidation)

	_, err = fx.service.CreateRequest(ctx, testTenant, testActor, &model.CertificateRequest{
		ImporterName:    "Gulf Imports LLC",
		ImporterCountry: "AE",
	}, nil)
	assert.ErrorIs(t, err, certerr.ErrValidation)
}

func TestIssueDateAndPrintableWindow(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	frozen := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	fx.service.now = func() time.Time { return frozen }

	request := fx.newDraft(t)
	fx.advanceToApproved(t, request.ID)

	issued, err := fx.service.Issue(ctx, testTenant, testActor, request.ID)
	require.NoError(t, err)

	assert.Equal(t, frozen, issued.IssuedAt)
	require.NotNil(t, issued.PrintableUntil)
	assert.Equal(t, frozen.Add(printableWindow), *issued.PrintableUntil)
	assert.Contains(t, issued.CertificateNumber, "20260830")
}
