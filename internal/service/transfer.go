package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/store"
)

// ExportVersion is the version written into export documents.
const ExportVersion FormatVersion = "1.0"

// FormatVersion is the document version. Older exports wrote it as a number.
type FormatVersion string

// UnmarshalJSON accepts a string or a number.
func (v *FormatVersion) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FormatVersion(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a string or number: %w", err)
	}
	*v = FormatVersion(n.String())
	return nil
}

// ExportTime is the export timestamp. It is informational only, so a value
// that does not parse decodes as the zero time instead of failing the import.
type ExportTime struct {
	time.Time
}

var exportTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// MarshalJSON writes RFC 3339.
func (t ExportTime) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

// UnmarshalJSON parses the layouts in exportTimeLayouts and otherwise
// leaves t zero.
func (t *ExportTime) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range exportTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// ExportDocument is the bulk export format: every profile and every
// profile's ledger.
type ExportDocument struct {
	Users        []domain.User            `json:"users"        validate:"required,dive"`
	ProgressData map[string]domain.Ledger `json:"progressData" validate:"required"`
	ExportDate   ExportTime               `json:"exportDate"`
	Version      FormatVersion            `json:"version"      validate:"required"`
}

// ParseImport decodes and validates an export document. Every failure
// wraps domain.ErrImportFormat.
func ParseImport(data []byte) (*ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImportFormat, err)
	}
	if err := domain.Validator().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImportFormat, err)
	}
	for id, ledger := range doc.ProgressData {
		if id == "" {
			return nil, fmt.Errorf("%w: progress entry without user id", domain.ErrImportFormat)
		}
		ledger.Normalize()
		doc.ProgressData[id] = ledger
	}
	return &doc, nil
}

// Transfer exports and imports the complete persisted state. It reads and
// writes storage directly; callers reload in-memory services after Import.
type Transfer struct {
	store   *store.Adapter
	emitter events.Emitter
	now     Clock
	logger  *slog.Logger
}

// NewTransfer creates a Transfer.
func NewTransfer(st *store.Adapter, emitter events.Emitter, now Clock, logger *slog.Logger) *Transfer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfer{
		store:   st,
		emitter: emitter,
		now:     now,
		logger:  logger.With(slog.String("component", "transfer")),
	}
}

// Export collects every persisted profile and ledger.
func (t *Transfer) Export(ctx context.Context) *ExportDocument {
	keys := t.store.Keys()

	users := store.GetJSON[[]domain.User](ctx, t.store, keys.Users()).Or(nil)
	if users == nil {
		users = []domain.User{}
	}

	progress := make(map[string]domain.Ledger, len(users))
	for _, u := range users {
		res := store.GetJSON[domain.Ledger](ctx, t.store, keys.Progress(u.ID))
		if !res.OK() {
			continue
		}
		ledger := res.Value
		ledger.Normalize()
		progress[u.ID] = ledger
	}

	t.logger.InfoContext(ctx, "state exported",
		slog.Int("user_count", len(users)),
		slog.Int("ledger_count", len(progress)))

	return &ExportDocument{
		Users:        users,
		ProgressData: progress,
		ExportDate:   ExportTime{t.now().UTC()},
		Version:      ExportVersion,
	}
}

// Import replaces all persisted profiles and ledgers with the document's.
//
// The document is validated before anything is written, and confirm must
// be true because the import is destructive. All writes go in one atomic
// batch: the user list, every ledger in the document, deletion of ledgers
// the document does not carry, and the active marker, which survives only
// if it names an imported user.
func (t *Transfer) Import(ctx context.Context, data []byte, confirm bool) error {
	doc, err := ParseImport(data)
	if err != nil {
		t.logger.WarnContext(ctx, "import rejected", slog.String("error", err.Error()))
		return err
	}
	if !confirm {
		return fmt.Errorf("%w: import replaces all local data", domain.ErrConfirmationRequired)
	}

	ops, err := t.importOps(ctx, doc)
	if err != nil {
		return NewServiceError("import", "failed to encode import", err)
	}

	if err := t.store.Apply(ctx, ops); err != nil {
		t.logger.ErrorContext(ctx, "import failed", slog.String("error", err.Error()))
		return NewServiceError("import", "storage batch failed", err)
	}

	t.logger.InfoContext(ctx, "state imported",
		slog.Int("user_count", len(doc.Users)),
		slog.Int("ledger_count", len(doc.ProgressData)),
		slog.String("version", string(doc.Version)))

	if err := events.Emit(ctx, t.emitter, events.ProgressImported,
		events.ImportPayload{UserCount: len(doc.Users)}); err != nil {
		t.logger.ErrorContext(ctx, "failed to emit event",
			slog.String("event_type", events.ProgressImported),
			slog.String("error", err.Error()))
	}
	return nil
}

func (t *Transfer) importOps(ctx context.Context, doc *ExportDocument) ([]store.Op, error) {
	keys := t.store.Keys()

	usersData, err := json.Marshal(doc.Users)
	if err != nil {
		return nil, err
	}
	ops := []store.Op{store.SetOp(keys.Users(), usersData)}

	for _, key := range t.store.List(ctx, keys.ProgressPrefix()) {
		id, ok := keys.ProgressUserID(key)
		if !ok {
			continue
		}
		if _, kept := doc.ProgressData[id]; !kept {
			ops = append(ops, store.DeleteOp(key))
		}
	}

	ids := make([]string, 0, len(doc.ProgressData))
	for id := range doc.ProgressData {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		data, err := json.Marshal(doc.ProgressData[id])
		if err != nil {
			return nil, err
		}
		ops = append(ops, store.SetOp(keys.Progress(id), data))
	}

	active := store.GetJSON[string](ctx, t.store, keys.ActiveUser()).Or("")
	imported := slices.ContainsFunc(doc.Users, func(u domain.User) bool { return u.ID == active })
	if active != "" && !imported {
		ops = append(ops, store.DeleteOp(keys.ActiveUser()))
	}

	return ops, nil
}
