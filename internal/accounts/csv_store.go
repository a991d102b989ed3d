package accounts

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// CSVStore reads the account pool from a CSV file and writes usage counts
// back to it. Expected columns (header-mapped, order free):
//
//	cookie, proxy, status, daily_usage
//
// The cookie and daily_usage columns are required; proxy and status are
// optional. Rows keep their file position as the account Row so operators
// can cross-reference log lines against the sheet they exported.
type CSVStore struct {
	path   string
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.AccountStore = (*CSVStore)(nil)

func NewCSVStore(path string, logger arbor.ILogger) *CSVStore {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &CSVStore{
		path:   path,
		logger: logger,
	}
}

type columnMap struct {
	cookie int
	proxy  int
	status int
	usage  int
}

// Load reads the full account pool. Rows with unparseable cookie cells are
// kept with empty tokens so they stay visible as ineligible instead of
// silently disappearing from the pool.
func (s *CSVStore) Load(ctx context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, records, cols, err := s.read()
	if err != nil {
		return nil, err
	}

	accounts := make([]*models.Account, 0, len(records))
	for i, record := range records {
		row := i + 2 // 1-based file position, header is row 1

		if cols.cookie >= len(record) {
			s.logger.Warn().Int("row", row).Msg("Skipping short row")
			continue
		}

		account := &models.Account{
			Row:       row,
			RawCookie: record[cols.cookie],
		}
		if cols.proxy >= 0 && cols.proxy < len(record) {
			account.Proxy = strings.TrimSpace(record[cols.proxy])
		}
		if cols.status >= 0 && cols.status < len(record) {
			account.Status = models.ParseVerificationStatus(record[cols.status])
		} else {
			account.Status = models.VerificationOther
		}
		if cols.usage < len(record) {
			account.DailyUsage = parseUsage(record[cols.usage])
		}

		tokens, err := ParseCookieBlob(account.RawCookie)
		if err != nil {
			s.logger.Warn().Int("row", row).Err(err).Msg("Cookie cell unparseable")
		} else {
			account.Tokens = tokens
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

// IncrementUsage bumps the account's usage count by one and persists the
// new value to its row. The in-memory account is updated as well so pool
// state stays consistent with the file.
func (s *CSVStore) IncrementUsage(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, records, cols, err := s.read()
	if err != nil {
		return err
	}

	idx := account.Row - 2
	if idx < 0 || idx >= len(records) {
		return fmt.Errorf("account row %d not found in %s", account.Row, s.path)
	}

	account.DailyUsage++
	records[idx] = setField(records[idx], cols.usage, strconv.Itoa(account.DailyUsage))

	return s.write(header, records)
}

// ResetAllUsage zeroes the daily_usage column for every row.
func (s *CSVStore) ResetAllUsage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, records, cols, err := s.read()
	if err != nil {
		return err
	}

	for i := range records {
		records[i] = setField(records[i], cols.usage, "0")
	}

	return s.write(header, records)
}

// read parses the whole file and resolves the column layout from the header.
func (s *CSVStore) read() ([]string, [][]string, columnMap, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, columnMap{}, fmt.Errorf("failed to read accounts file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, columnMap{}, fmt.Errorf("failed to parse accounts file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, columnMap{}, fmt.Errorf("accounts file %s is empty", s.path)
	}

	header := rows[0]
	cols := columnMap{cookie: -1, proxy: -1, status: -1, usage: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cookie", "cookies":
			cols.cookie = i
		case "proxy":
			cols.proxy = i
		case "status", "verification", "verification_status":
			cols.status = i
		case "daily_usage", "usage":
			cols.usage = i
		}
	}
	if cols.cookie < 0 {
		return nil, nil, columnMap{}, fmt.Errorf("accounts file %s has no cookie column", s.path)
	}
	if cols.usage < 0 {
		return nil, nil, columnMap{}, fmt.Errorf("accounts file %s has no daily_usage column", s.path)
	}

	return header, rows[1:], cols, nil
}

// write rewrites the whole file. The pool is small (hundreds of rows at
// most), so a full rewrite per update is cheaper than tracking offsets.
func (s *CSVStore) write(header []string, records [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to encode accounts header: %w", err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to encode accounts rows: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to encode accounts file: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	return nil
}

func parseUsage(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// setField assigns record[idx], padding the record when a ragged row is
// shorter than the target column.
func setField(record []string, idx int, value string) []string {
	for len(record) <= idx {
		record = append(record, "")
	}
	record[idx] = value
	return record
}
