package importer

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"

	"github.com/lewtec/transcritor/internal/ledger"
	"github.com/lewtec/transcritor/internal/repository"
	"github.com/lewtec/transcritor/internal/storage"
)

type importFixture struct {
	service        *Service
	db             *sql.DB
	blobs          *storage.FS
	projects       *repository.ProjectRepository
	documents      *repository.DocumentRepository
	images         *repository.ImageRepository
	annotations    *repository.AnnotationRepository
	transcriptions *repository.TranscriptionRepository
}

func setupImportTest(t *testing.T) (*importFixture, context.Context) {
	t.Helper()
	db := repository.SetupTestDB(t)
	t.Cleanup(func() { repository.CleanupTestDB(t, db) })

	fixture := &importFixture{
		db:             db,
		blobs:          storage.NewFS(memfs.New()),
		projects:       repository.NewProjectRepository(db),
		documents:      repository.NewDocumentRepository(db),
		images:         repository.NewImageRepository(db),
		annotations:    repository.NewAnnotationRepository(db),
		transcriptions: repository.NewTranscriptionRepository(db),
	}
	ledgerService := ledger.NewService(fixture.transcriptions, fixture.images)
	fixture.service = NewService(fixture.projects, fixture.documents, fixture.images,
		fixture.annotations, ledgerService, fixture.blobs, slog.Default())
	return fixture, context.Background()
}

func TestService_DedupName(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	if _, err := fixture.projects.Create(ctx, "Archive", "", "tester"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := fixture.projects.Create(ctx, "Archive (1)", "", "tester"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("free name passes through", func(t *testing.T) {
		name, err := fixture.service.dedupName(ctx, "tester", "Letters")
		if err != nil {
			t.Fatalf("dedupName() error = %v", err)
		}
		if name != "Letters" {
			t.Errorf("name = %q", name)
		}
	})

	t.Run("taken name gets the next free suffix", func(t *testing.T) {
		name, err := fixture.service.dedupName(ctx, "tester", "Archive")
		if err != nil {
			t.Fatalf("dedupName() error = %v", err)
		}
		if name != "Archive (2)" {
			t.Errorf("name = %q, want Archive (2)", name)
		}
	})

	t.Run("other owners do not collide", func(t *testing.T) {
		name, err := fixture.service.dedupName(ctx, "someone-else", "Archive")
		if err != nil {
			t.Fatalf("dedupName() error = %v", err)
		}
		if name != "Archive" {
			t.Errorf("name = %q", name)
		}
	})
}
