// Package regions imports the regulatory region table from CSV exports.
package regions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"playout-engine/internal/storage"
)

var (
	ErrMissingColumn = errors.New("csv file missing required column")
	ErrInvalidRow    = errors.New("invalid region row")
)

// Column names in the region list header.
const (
	colCode             = "code"
	colName             = "name"
	colRequiresApproval = "requires_pre_approval"
	colRegulatorName    = "regulator_name"
	colRegulatorContact = "regulator_contact"
)

var requiredColumns = []string{colCode, colName, colRequiresApproval}

// NewReader returns a CSV reader for UTF-8 input with or without BOM, or
// UTF-16 input with BOM.
func NewReader(r io.Reader) *csv.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return strconv.ParseBool(s)
}

func optional(record []string, idx int) *string {
	if idx < 0 || idx >= len(record) {
		return nil
	}
	v := strings.TrimSpace(record[idx])
	if v == "" {
		return nil
	}
	return &v
}

// Parse reads every region in the CSV stream. Blank lines are skipped.
func Parse(r io.Reader) ([]storage.Region, error) {
	reader := NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := map[string]int{
		colCode:             -1,
		colName:             -1,
		colRequiresApproval: -1,
		colRegulatorName:    -1,
		colRegulatorContact: -1,
	}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[key]; ok {
			idx[key] = i
		}
	}
	for _, col := range requiredColumns {
		if idx[col] == -1 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var regions []storage.Region
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		code := optional(record, idx[colCode])
		name := optional(record, idx[colName])
		if code == nil || name == nil {
			return nil, fmt.Errorf("%w: line %d: code and name are required", ErrInvalidRow, line)
		}

		var requires bool
		if v := optional(record, idx[colRequiresApproval]); v != nil {
			requires, err = parseBool(*v)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s is not a boolean", ErrInvalidRow, line, *v)
			}
		}

		regions = append(regions, storage.Region{
			Code:                strings.ToUpper(*code),
			Name:                *name,
			RequiresPreApproval: requires,
			RegulatorName:       optional(record, idx[colRegulatorName]),
			RegulatorContact:    optional(record, idx[colRegulatorContact]),
		})
	}
	return regions, nil
}

// Import upserts every region of the CSV stream in one transaction and
// returns the number of regions written.
func Import(ctx context.Context, provider storage.Provider, r io.Reader) (int, error) {
	regions, err := Parse(r)
	if err != nil {
		return 0, err
	}

	err = provider.WithTx(ctx, func(tx storage.Tx) error {
		for _, region := range regions {
			if err := tx.UpsertRegion(ctx, region); err != nil {
				return err
			}
			slog.Debug("Imported region", "code", region.Code, "requires_pre_approval", region.RequiresPreApproval)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(regions), nil
}

// ImportFile imports regions from a CSV file on disk.
func ImportFile(ctx context.Context, provider storage.Provider, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return Import(ctx, provider, f)
}
