package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileSource is the subset of Service the ingester depends on.
type FileSource interface {
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// Loader receives parsed CSV exports. memory.Store satisfies it.
type Loader interface {
	LoadSalesCSV(r io.Reader) (int, error)
	LoadProductsCSV(r io.Reader) (int, error)
}

type IngestService struct {
	files FileSource
	store Loader
}

func NewIngestService(files FileSource, store Loader) *IngestService {
	return &IngestService{
		files: files,
		store: store,
	}
}

// IngestSales loads a sales export (CSV or XLSX) from Drive into the store.
func (s *IngestService) IngestSales(ctx context.Context, fileID string) (int, error) {
	return s.ingest(ctx, fileID, "sales", s.store.LoadSalesCSV)
}

// IngestProducts loads a product catalog export (CSV or XLSX) from Drive into the store.
func (s *IngestService) IngestProducts(ctx context.Context, fileID string) (int, error) {
	return s.ingest(ctx, fileID, "products", s.store.LoadProductsCSV)
}

func (s *IngestService) ingest(ctx context.Context, fileID, kind string, load func(io.Reader) (int, error)) (int, error) {
	if fileID == "" {
		return 0, fmt.Errorf("drive file id is required")
	}

	meta, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return 0, err
	}

	var body io.Reader
	if isXLSX(meta) {
		var raw bytes.Buffer
		if err := s.files.DownloadFile(ctx, fileID, &raw); err != nil {
			return 0, fmt.Errorf("failed to download %s: %w", meta.Name, err)
		}
		var converted bytes.Buffer
		if err := convertXLSXToCSV(&raw, &converted); err != nil {
			return 0, fmt.Errorf("failed to convert %s to csv: %w", meta.Name, err)
		}
		body = &converted
	} else {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(s.files.DownloadFile(ctx, fileID, pw))
		}()
		defer pr.Close()
		body = pr
	}

	n, err := load(body)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s from %s: %w", kind, meta.Name, err)
	}

	log.Info().
		Str("file_id", fileID).
		Str("file", meta.Name).
		Str("kind", kind).
		Int("rows", n).
		Msg("ingested drive export")
	return n, nil
}

func isXLSX(f *File) bool {
	if f.MimeType == xlsxMimeType {
		return true
	}
	return strings.EqualFold(filepath.Ext(f.Name), ".xlsx")
}
