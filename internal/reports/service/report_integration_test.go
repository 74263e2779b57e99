package service_test

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/reports/repository"
	"github.com/dentiq/dentiq-backend/internal/reports/service"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	suite.MustMigrate(ctx, testutil.ReportMigrations())
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newTestService() *service.ReportService {
	return service.NewReportService(
		repository.NewReportRepository(suite.DB),
		nil, // no event publisher in tests
		suite.Logger,
	)
}

func draftReport(t *testing.T, ctx context.Context, svc *service.ReportService) *repository.Report {
	t.Helper()

	report, err := svc.Create(ctx, service.CreateReportInput{
		PatientID:  uuid.New().String(),
		StudyType:  "panoramic",
		Findings:   "No abnormalities in the mandible.",
		Impression: "Unremarkable study.",
	})
	require.NoError(t, err)

	return report
}

func TestReportLifecycle(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	report := draftReport(t, ctx, svc)
	assert.Equal(t, "draft", report.Status)
	assert.Nil(t, report.FinalizedAt)
	assert.NotEmpty(t, report.AuthoredBy)

	// Drafts can be edited.
	updated, err := svc.Update(ctx, report.ID, service.UpdateReportInput{
		StudyType:  "panoramic",
		Findings:   "Periapical radiolucency at tooth 36.",
		Impression: "Suspected apical periodontitis.",
	})
	require.NoError(t, err)
	assert.Contains(t, updated.Findings, "tooth 36")

	final, err := svc.Finalize(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", final.Status)
	require.NotNil(t, final.FinalizedAt)

	// Final reports are frozen.
	_, err = svc.Update(ctx, report.ID, service.UpdateReportInput{
		StudyType:  "panoramic",
		Findings:   "changed",
		Impression: "changed",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.Finalize(ctx, report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	err = svc.Delete(ctx, report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestDeleteDraftReport(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	report := draftReport(t, ctx, svc)

	require.NoError(t, svc.Delete(ctx, report.ID))

	_, err := svc.GetByID(ctx, report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListReportsByPatient(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	patientID := uuid.New().String()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, service.CreateReportInput{
			PatientID:  patientID,
			StudyType:  "bitewing",
			Findings:   "Interproximal caries.",
			Impression: "Caries.",
		})
		require.NoError(t, err)
	}
	draftReport(t, ctx, svc)

	reports, total, err := svc.List(ctx, repository.ReportListParams{PatientID: &patientID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, reports, 3)
}

func TestExportReportPDF(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	report := draftReport(t, ctx, svc)

	data, err := svc.ExportPDF(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
