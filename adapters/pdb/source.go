package pdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"enzclass/domain/core"
	"enzclass/domain/protein"
	"enzclass/internal/download"
)

// DownloadURL is the RCSB file endpoint; %s is the lowercase structure code
const DownloadURL = "https://files.rcsb.org/download/%s.pdb"

const defaultTimeout = 30 * time.Second

// Source resolves experimentally determined structures from the Protein
// Data Bank, materializing files into a local cache directory. Resolution
// is idempotent: a valid cached copy short-circuits the download.
type Source struct {
	cacheDir string
	baseURL  string
	client   *http.Client
}

// Option configures a Source
type Option func(*Source)

// WithBaseURL overrides the download endpoint (used by tests)
func WithBaseURL(url string) Option {
	return func(s *Source) { s.baseURL = url }
}

// WithClient overrides the HTTP client
func WithClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// NewSource creates a PDB-backed data source caching under cacheDir
func NewSource(cacheDir string, opts ...Option) (*Source, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", cacheDir, err)
	}
	s := &Source{
		cacheDir: cacheDir,
		baseURL:  DownloadURL,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Printf("[PDB] data source initialized with cache at %s", cacheDir)
	return s, nil
}

// Name returns the source name
func (s *Source) Name() string { return "pdb" }

// Provenance tags every record as experimentally determined
func (s *Source) Provenance() protein.Provenance { return protein.ProvenanceExperimental }

// Resolve materializes the structure file for one identifier. A 404 maps
// to core.ErrNotFound; network errors, timeouts and other HTTP statuses
// map to core.ErrRetrieval so the caller can retry.
func (s *Source) Resolve(ctx context.Context, id core.ProteinID) (protein.StructureRecord, error) {
	if id.IsEmpty() {
		return protein.StructureRecord{}, core.NewNotFoundError(s.Name(), id)
	}
	path := filepath.Join(s.cacheDir, id.String()+".pdb")

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return s.record(id, path), nil
	}

	url := fmt.Sprintf(s.baseURL, id.String())
	log.Printf("[PDB] downloading %s", url)

	if err := download.Fetch(ctx, s.client, url, path); err != nil {
		if errors.Is(err, download.ErrNotFound) {
			return protein.StructureRecord{}, core.NewNotFoundError(s.Name(), id)
		}
		return protein.StructureRecord{}, core.NewRetrievalError(s.Name(), id, err)
	}

	log.Printf("[PDB] saved structure file to %s", path)
	return s.record(id, path), nil
}

func (s *Source) record(id core.ProteinID, path string) protein.StructureRecord {
	return protein.StructureRecord{
		ID:         id,
		Path:       path,
		Provenance: s.Provenance(),
		Source:     s.Name(),
		FetchedAt:  time.Now().UTC(),
	}
}
