package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
)

// SetupTestDB creates an in-memory sqlite database with the full schema
// applied through the embedded migrations.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// The pool must stay on one connection or each new connection would
	// get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := db.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// CreateTestImage creates a project, document and image chain and returns
// the image. Used by tests that need a valid foreign-key target.
func CreateTestImage(t *testing.T, db *sql.DB) *domain.Image {
	t.Helper()
	ctx := context.Background()

	project, err := NewProjectRepository(db).Create(ctx, "Test Project", "", "tester")
	if err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	document, err := NewDocumentRepository(db).Create(ctx, project.ID, "Test Document", "")
	if err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	img := &domain.Image{
		ID:               uuid.NewString(),
		DocumentID:       document.ID,
		Name:             "page-1",
		OriginalFilename: "page-1.png",
		Width:            800,
		Height:           600,
		Order:            1,
	}
	if err := NewImageRepository(db).Create(ctx, img); err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	return img
}

// CreateTestAnnotation creates a bbox annotation on the given image.
func CreateTestAnnotation(t *testing.T, db *sql.DB, imageID string) *domain.Annotation {
	t.Helper()

	region, err := geometry.NewBBox(10, 10, 100, 40)
	if err != nil {
		t.Fatalf("failed to build test region: %v", err)
	}
	ann := &domain.Annotation{
		ImageID:        imageID,
		Region:         region,
		Classification: "MainZone",
		ReadingOrder:   1,
		CreatedBy:      "tester",
	}
	if err := NewAnnotationRepository(db).Create(context.Background(), ann); err != nil {
		t.Fatalf("failed to create test annotation: %v", err)
	}
	return ann
}
