package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypverify-go/internal/models"
	"crypverify-go/internal/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func createTestSubmission(t *testing.T, s *Service, id, ref, name string) *models.VerificationSubmission {
	t.Helper()
	sub, err := s.CreateSubmission(context.Background(), store.CreateSubmissionParams{
		Id:          id,
		ReferenceId: ref,
		FullName:    name,
		Email:       id + "@example.com",
		TxHash:      "0xabc" + id,
		Documents: models.DocumentRefs{
			IdPath:      "ids/1-" + id + ".png",
			SelfiePath:  "selfies/1-" + id + ".png",
			ReceiptPath: "receipts/1-" + id + ".pdf",
		},
	})
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}
	return sub
}

func TestNewService_ValidatesConfig(t *testing.T) {
	cases := []models.DatabaseConfig{
		{Path: "", MaxOpenConns: 1, PingTimeout: time.Second},
		{Path: ":memory:", MaxOpenConns: 0, PingTimeout: time.Second},
		{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second},
		{Path: ":memory:", MaxOpenConns: 1, PingTimeout: 0},
	}
	for _, cfg := range cases {
		if _, err := NewService(context.Background(), cfg); err == nil {
			t.Errorf("Expected error for config %+v", cfg)
		}
	}
}

func TestCreateAndGetSubmission(t *testing.T) {
	s := setupTestService(t)
	created := createTestSubmission(t, s, "sub-1", "ABC123XYZ", "Ada Lovelace")

	if created.Status != models.StatusPending {
		t.Errorf("Expected PENDING, got %s", created.Status)
	}

	got, err := s.GetSubmission(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if got.ReferenceId != "ABC123XYZ" || got.FullName != "Ada Lovelace" {
		t.Errorf("Unexpected submission: %+v", got)
	}
	if got.Documents.ReceiptPath != "receipts/1-sub-1.pdf" {
		t.Errorf("Expected receipt path to round-trip, got %q", got.Documents.ReceiptPath)
	}
	if got.Status != models.StatusPending {
		t.Errorf("Expected PENDING, got %s", got.Status)
	}

	byRef, err := s.GetSubmissionByReference(context.Background(), "abc123xyz")
	if err != nil {
		t.Fatalf("GetSubmissionByReference failed: %v", err)
	}
	if byRef.Id != "sub-1" {
		t.Errorf("Expected sub-1, got %s", byRef.Id)
	}
}

func TestGetSubmission_NotFound(t *testing.T) {
	s := setupTestService(t)

	_, err := s.GetSubmission(context.Background(), "missing")
	if !errors.Is(err, store.ErrSubmissionNotFound) {
		t.Errorf("Expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestCreateSubmission_DuplicateReference(t *testing.T) {
	s := setupTestService(t)
	createTestSubmission(t, s, "sub-1", "DUPREF001", "First")

	_, err := s.CreateSubmission(context.Background(), store.CreateSubmissionParams{
		Id:          "sub-2",
		ReferenceId: "DUPREF001",
		FullName:    "Second",
		Email:       "second@example.com",
		TxHash:      "0xdef",
	})
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Errorf("Expected ErrDuplicateReference, got %v", err)
	}
}

func TestListSubmissions_SearchAndOrder(t *testing.T) {
	s := setupTestService(t)
	createTestSubmission(t, s, "sub-1", "AAA111AAA", "Grace Hopper")
	createTestSubmission(t, s, "sub-2", "BBB222BBB", "Alan Turing")
	createTestSubmission(t, s, "sub-3", "CCC333CCC", "Grace Kelly")

	all, err := s.ListSubmissions(context.Background(), "")
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 submissions, got %d", len(all))
	}
	if all[0].Id != "sub-3" || all[2].Id != "sub-1" {
		t.Errorf("Expected newest first, got %s..%s", all[0].Id, all[2].Id)
	}

	byName, err := s.ListSubmissions(context.Background(), "grace")
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(byName) != 2 {
		t.Errorf("Expected 2 matches for 'grace', got %d", len(byName))
	}

	byRef, err := s.ListSubmissions(context.Background(), "bbb222")
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(byRef) != 1 || byRef[0].Id != "sub-2" {
		t.Errorf("Expected sub-2 for reference search, got %+v", byRef)
	}

	none, err := s.ListSubmissions(context.Background(), "%")
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected wildcard characters to match literally, got %d rows", len(none))
	}
}

func TestUpdateStatus_OnlyFromPending(t *testing.T) {
	s := setupTestService(t)
	createTestSubmission(t, s, "sub-1", "REF000001", "Ada")

	if err := s.UpdateStatus(context.Background(), "sub-1", models.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := s.GetSubmission(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", got.Status)
	}

	err = s.UpdateStatus(context.Background(), "sub-1", models.StatusRejected)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification, got %v", err)
	}

	got, _ = s.GetSubmission(context.Background(), "sub-1")
	if got.Status != models.StatusApproved {
		t.Errorf("Terminal status changed to %s", got.Status)
	}
}

func TestUpdateStatus_RejectsPendingTarget(t *testing.T) {
	s := setupTestService(t)
	createTestSubmission(t, s, "sub-1", "REF000001", "Ada")

	if err := s.UpdateStatus(context.Background(), "sub-1", models.StatusPending); err == nil {
		t.Errorf("Expected error moving to PENDING")
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	s := setupTestService(t)

	err := s.UpdateStatus(context.Background(), "missing", models.StatusRejected)
	if !errors.Is(err, store.ErrSubmissionNotFound) {
		t.Errorf("Expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestDeleteSubmission(t *testing.T) {
	s := setupTestService(t)
	createTestSubmission(t, s, "sub-1", "REF000001", "Ada")

	if err := s.DeleteSubmission(context.Background(), "sub-1"); err != nil {
		t.Fatalf("DeleteSubmission failed: %v", err)
	}
	if _, err := s.GetSubmission(context.Background(), "sub-1"); !errors.Is(err, store.ErrSubmissionNotFound) {
		t.Errorf("Expected deleted submission to be gone, got %v", err)
	}
	if err := s.DeleteSubmission(context.Background(), "sub-1"); !errors.Is(err, store.ErrSubmissionNotFound) {
		t.Errorf("Expected ErrSubmissionNotFound on second delete, got %v", err)
	}
}
