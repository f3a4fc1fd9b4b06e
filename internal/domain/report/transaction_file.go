package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m13/backoffice/internal/domain/shared"
)

// FileKind is the kind of an uploaded Zalando transaction file
type FileKind string

const (
	// FileKindDaily is a daily shipment report
	FileKindDaily FileKind = "DAILY"
	// FileKindSales is a monthly sales report
	FileKindSales FileKind = "SALES"
)

// ParseFileKind accepts "daily" and "sales" in any case
func ParseFileKind(s string) (FileKind, error) {
	k := FileKind(strings.ToUpper(strings.TrimSpace(s)))
	if k != FileKindDaily && k != FileKindSales {
		return "", ErrInvalidFileKind
	}
	return k, nil
}

// TransactionFile is an uploaded report file waiting to be imported
type TransactionFile struct {
	shared.BaseEntity
	// Kind selects the parser
	Kind FileKind
	// FileName is the original file name, unique
	FileName string
	// StorageKey is where the raw file is archived
	StorageKey string
	// Processed is set once the rows were imported
	Processed bool
	// ProcessedAt is when the import finished
	ProcessedAt *time.Time
	// Rows is the number of imported rows
	Rows int
}

// NewTransactionFile registers an uploaded file
func NewTransactionFile(kind FileKind, fileName, storageKey string) (*TransactionFile, error) {
	if kind != FileKindDaily && kind != FileKindSales {
		return nil, ErrInvalidFileKind
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrInvalidFileName
	}
	return &TransactionFile{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		FileName:   strings.TrimSpace(fileName),
		StorageKey: storageKey,
	}, nil
}

// MarkProcessed flags the file as imported
func (f *TransactionFile) MarkProcessed(rows int) {
	now := time.Now()
	f.Processed = true
	f.ProcessedAt = &now
	f.Rows = rows
	f.UpdatedAt = now
}

// TransactionFileRepository persists uploaded report files
type TransactionFileRepository interface {
	// FindByID finds a file
	FindByID(ctx context.Context, id uuid.UUID) (*TransactionFile, error)

	// FindByName finds a file by its unique name
	FindByName(ctx context.Context, fileName string) (*TransactionFile, error)

	// FindUnprocessed lists files not imported yet, oldest first
	FindUnprocessed(ctx context.Context) ([]*TransactionFile, error)

	// FindRecent lists the latest uploads
	FindRecent(ctx context.Context, limit int) ([]*TransactionFile, error)

	// Save creates or updates a file
	Save(ctx context.Context, file *TransactionFile) error
}
