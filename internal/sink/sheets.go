package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"liquidationLedger/internal/model"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsConfig carries the OAuth credentials and destination folder for the
// remote spreadsheet sink.
type SheetsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string
	RefreshToken string
	FolderID     string
}

// monthStore abstracts the remote spreadsheet operations so the bucketing
// logic can be tested without the Drive API.
type monthStore interface {
	Find(ctx context.Context, name string) (id string, found bool, err error)
	Create(ctx context.Context, name string, header []string) (id string, err error)
	Append(ctx context.Context, id string, row []string) error
}

// SheetsSink groups records by calendar month into one spreadsheet per
// month inside a Drive folder. The first record of a month finds or creates
// the month's spreadsheet; the ID is cached for the rest of the run, and a
// mutex serializes the find-or-create sequence so concurrent emitters
// cannot create a month file twice.
type SheetsSink struct {
	store  monthStore
	logger *zap.Logger

	mu     sync.Mutex
	months map[string]string
}

// NewSheetsSink builds the sink against the Google Drive and Sheets APIs.
func NewSheetsSink(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsSink, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope, sheets.SpreadsheetsScope},
	}
	// Mark the stored access token stale so the refresh token is exercised
	// on first use.
	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	httpClient := oauthCfg.Client(ctx, token)

	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	store := &driveMonthStore{
		drive:    driveSvc,
		sheets:   sheetsSvc,
		folderID: cfg.FolderID,
	}
	return newSheetsSink(store, logger), nil
}

func newSheetsSink(store monthStore, logger *zap.Logger) *SheetsSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsSink{
		store:  store,
		logger: logger,
		months: make(map[string]string),
	}
}

// Emit appends the record to its month's spreadsheet, creating the
// spreadsheet with a header row on the month's first record.
func (s *SheetsSink) Emit(ctx context.Context, record model.AccountingRecord) error {
	month := record.Month()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ensureMonthLocked(ctx, month)
	if err != nil {
		return err
	}

	if err := s.store.Append(ctx, id, record.Row()); err != nil {
		return &OutputError{Op: fmt.Sprintf("append to %s", month), Err: err}
	}
	return nil
}

func (s *SheetsSink) ensureMonthLocked(ctx context.Context, month string) (string, error) {
	if id, ok := s.months[month]; ok {
		return id, nil
	}

	id, found, err := s.store.Find(ctx, month)
	if err != nil {
		return "", &OutputError{Op: fmt.Sprintf("find spreadsheet %s", month), Err: err}
	}
	if !found {
		id, err = s.store.Create(ctx, month, model.CSVHeader())
		if err != nil {
			return "", &OutputError{Op: fmt.Sprintf("create spreadsheet %s", month), Err: err}
		}
		s.logger.Info("created month spreadsheet", zap.String("month", month), zap.String("id", id))
	}

	s.months[month] = id
	return id, nil
}

// Close implements Sink. The remote APIs hold no local resources.
func (s *SheetsSink) Close() error {
	return nil
}

type driveMonthStore struct {
	drive    *drive.Service
	sheets   *sheets.Service
	folderID string
}

func (d *driveMonthStore) Find(ctx context.Context, name string) (string, bool, error) {
	query := fmt.Sprintf(
		"name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		name, d.folderID, spreadsheetMimeType,
	)
	list, err := d.drive.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", false, err
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].Id, true, nil
}

func (d *driveMonthStore) Create(ctx context.Context, name string, header []string) (string, error) {
	file, err := d.drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: spreadsheetMimeType,
		Parents:  []string{d.folderID},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if err := d.Append(ctx, file.Id, header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	return file.Id, nil
}

func (d *driveMonthStore) Append(ctx context.Context, id string, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	_, err := d.sheets.Spreadsheets.Values.
		Append(id, "A1", &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
