// Package app wires the configuration, database, blob store and services
// into one application container the commands share.
package app

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v6/osfs"

	"github.com/lewtec/transcritor/internal/config"
	"github.com/lewtec/transcritor/internal/export"
	"github.com/lewtec/transcritor/internal/importer"
	"github.com/lewtec/transcritor/internal/ledger"
	"github.com/lewtec/transcritor/internal/ocr"
	"github.com/lewtec/transcritor/internal/repository"
	"github.com/lewtec/transcritor/internal/storage"
)

// App holds every wired component.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Log    *slog.Logger

	Projects       *repository.ProjectRepository
	Documents      *repository.DocumentRepository
	Images         *repository.ImageRepository
	Annotations    *repository.AnnotationRepository
	Transcriptions *repository.TranscriptionRepository
	Profiles       *repository.ProfileRepository
	ExportJobs     *repository.ExportJobRepository

	Blobs    *storage.FS
	Ledger   *ledger.Service
	OCR      *ocr.Service
	Loader   *export.Loader
	Bundles  *export.BundleWriter
	Importer *importer.Service
}

// New opens the database, runs migrations and wires the services.
func New(cfg *config.Config) (*App, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	projects := repository.NewProjectRepository(db)
	documents := repository.NewDocumentRepository(db)
	images := repository.NewImageRepository(db)
	annotations := repository.NewAnnotationRepository(db)
	transcriptions := repository.NewTranscriptionRepository(db)
	profiles := repository.NewProfileRepository(db)
	exportJobs := repository.NewExportJobRepository(db)

	blobs := storage.NewFS(osfs.New(cfg.Storage.Root))
	ledgerSvc := ledger.NewService(transcriptions, images)

	return &App{
		Config:         cfg,
		DB:             db,
		Log:            log,
		Projects:       projects,
		Documents:      documents,
		Images:         images,
		Annotations:    annotations,
		Transcriptions: transcriptions,
		Profiles:       profiles,
		ExportJobs:     exportJobs,
		Blobs:          blobs,
		Ledger:         ledgerSvc,
		OCR:            ocr.NewService(ledgerSvc, annotations, images, blobs, log),
		Loader:         export.NewLoader(projects, documents, images, annotations, transcriptions),
		Bundles:        export.NewBundleWriter(blobs, log),
		Importer:       importer.NewService(projects, documents, images, annotations, ledgerSvc, blobs, log),
	}, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.DB.Close()
}
