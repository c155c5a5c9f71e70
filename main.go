package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"enzclass/adapters/alphafold"
	"enzclass/adapters/annotations"
	"enzclass/adapters/excel"
	"enzclass/adapters/extract"
	"enzclass/adapters/pdb"
	"enzclass/adapters/postgres"
	"enzclass/domain/run"
	"enzclass/internal"
	"enzclass/internal/config"
	"enzclass/internal/model"
	"enzclass/internal/pipeline"
	"enzclass/internal/registry"
	"enzclass/internal/report"
	"enzclass/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects the optional run ledger database
func initDatabase(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	// Structure source
	var source ports.DataSource
	switch appConfig.Data.Source {
	case "alphafold":
		source, err = alphafold.NewSource(appConfig.Data.CacheDir)
	default:
		source, err = pdb.NewSource(appConfig.Data.CacheDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize structure source: %v", err)
	}
	analyzer := annotations.NewAnalyzer()

	// Labels
	labels, err := excel.NewLabelReader(appConfig.Data.LabelFile).Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load labels from %s: %v", appConfig.Data.LabelFile, err)
	}
	logger.Info("Loaded %d labels covering %d classes", labels.Len(), len(labels.Classes()))

	// Feature extractors and model
	extractors, err := extract.NewAll(appConfig.Pipeline.Extractors)
	if err != nil {
		log.Fatalf("Failed to build extractors: %v", err)
	}
	classifier, err := model.New(appConfig.Pipeline.ModelKind, appConfig.Pipeline.Seed)
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	// Optional run ledger
	var ledger ports.RunLedger
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		ledger = postgres.NewRunLedger(db)
		logger.Info("Run ledger enabled")
	} else {
		logger.Info("No DATABASE_URL set, runs will not be persisted")
	}

	// Screen candidates through the registry. With no configured candidate
	// list, fall back to the recommended starter set.
	candidates := appConfig.Data.IDs
	if len(candidates) == 0 {
		candidates = registry.RecommendedStarterSet()
		logger.Info("No PROTEIN_IDS configured, using the starter set")
	}
	reg, err := registry.Load(appConfig.Data.RegistryFile, source, analyzer, labels, registry.DefaultCriteria())
	if err != nil {
		log.Fatalf("Failed to open registry: %v", err)
	}
	for _, id := range candidates {
		if _, err := reg.Add(context.Background(), id); err != nil {
			log.Fatalf("Invalid protein identifier %q: %v", id, err)
		}
	}
	if err := reg.Save(); err != nil {
		log.Fatalf("Failed to save registry: %v", err)
	}
	summary := reg.Summary()
	logger.Info("Registry: %d evaluated, %d valid, %d excluded", summary.Evaluated, summary.Valid, summary.Invalid)

	p, err := pipeline.New(pipeline.Config{
		IDs:         reg.ValidIDs(),
		Source:      source,
		Analyzer:    analyzer,
		Extractors:  extractors,
		Model:       classifier,
		Labels:      labels,
		Ledger:      ledger,
		Logger:      logger,
		TrainRatio:  appConfig.Pipeline.TrainRatio,
		Seed:        appConfig.Pipeline.Seed,
		MinRows:     appConfig.Pipeline.MinRows,
		MaxRetries:  appConfig.Pipeline.MaxRetries,
		Concurrency: appConfig.Pipeline.Concurrency,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	rec, runErr := p.Run(context.Background())
	if rec != nil {
		if err := writeReports(appConfig.Report.Dir, rec); err != nil {
			logger.Warn("Failed to write report files: %v", err)
		}
	}
	if runErr != nil {
		log.Fatalf("Run failed: %v", runErr)
	}

	logger.Info("Run %s complete: accuracy %.4f, macro F1 %.4f over %d test samples",
		rec.ID, rec.Report.Accuracy, rec.Report.MacroF1, rec.Report.NumSamples)
}

// writeReports renders the run record as markdown and HTML files named
// after the run ID.
func writeReports(dir string, rec *run.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, fmt.Sprintf("run-%s", rec.ID))
	if err := os.WriteFile(base+".md", []byte(report.Markdown(rec)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(base+".html", report.HTML(rec), 0o644)
}
