// Package loader parses and validates activity exports.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// Column names after duplicate-header renaming.
const (
	ColumnID         = "Activity ID"
	ColumnDate       = "Activity Date"
	ColumnName       = "Activity Name"
	ColumnType       = "Activity Type"
	ColumnDistance   = "Distance.1"
	ColumnMovingTime = "Moving Time"
)

// RequiredColumns lists the columns an export must contain.
var RequiredColumns = []string{
	ColumnID,
	ColumnDate,
	ColumnName,
	ColumnType,
	ColumnDistance,
	ColumnMovingTime,
}

// ErrUnparseable is returned when the upload is not delimited text.
var ErrUnparseable = errors.New("incorrect file format: upload a .csv file")

// SchemaError names every required column that is missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset is missing the following columns: %s", strings.Join(e.Missing, ", "))
}

// RowError reports a value that could not be normalized.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Table is a validated activity export.
type Table struct {
	Records []model.ActivityRecord
	Digest  string
}

// Years returns distinct activity years, most recent first.
func (t *Table) Years() []int {
	seen := map[int]struct{}{}
	years := make([]int, 0)
	for _, r := range t.Records {
		y := r.Date.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Digest returns the cache key for upload content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Parse reads and validates an export held in memory.
func Parse(content []byte) (*Table, error) {
	if !utf8.Valid(content) {
		return nil, ErrUnparseable
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	columns := renameDuplicates(header)

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	table := &Table{Digest: Digest(content)}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		rec, err := parseRecord(row, index, line)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// renameDuplicates mirrors the spreadsheet convention of suffixing repeated
// headers: Distance, Distance.1, Distance.2.
func renameDuplicates(header []string) []string {
	out := make([]string, len(header))
	counts := map[string]int{}
	taken := map[string]struct{}{}
	for _, h := range header {
		taken[strings.TrimSpace(h)] = struct{}{}
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		n, dup := counts[h]
		counts[h] = n + 1
		if !dup {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for {
			if _, ok := taken[name]; !ok {
				break
			}
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		counts[h] = n + 1
		taken[name] = struct{}{}
		out[i] = name
	}
	return out
}

func parseRecord(row []string, index map[string]int, line int) (model.ActivityRecord, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rawDate := field(ColumnDate)
	date, err := ParseDate(rawDate)
	if err != nil {
		return model.ActivityRecord{}, &RowError{Line: line, Column: ColumnDate, Value: rawDate, Err: err}
	}
	rawDistance := field(ColumnDistance)
	distance, err := parseNumber(rawDistance)
	if err != nil {
		return model.ActivityRecord{}, &RowError{Line: line, Column: "Distance", Value: rawDistance, Err: err}
	}
	rawMoving := field(ColumnMovingTime)
	moving, err := parseNumber(rawMoving)
	if err != nil {
		return model.ActivityRecord{}, &RowError{Line: line, Column: ColumnMovingTime, Value: rawMoving, Err: err}
	}
	if distance < 0 {
		distance = 0
	}
	if moving < 0 {
		moving = 0
	}

	return model.ActivityRecord{
		ID:         field(ColumnID),
		Date:       date,
		Name:       field(ColumnName),
		Type:       field(ColumnType),
		Distance:   distance,
		MovingTime: int64(moving),
	}, nil
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

var dateLayouts = []string{
	"Jan 2, 2006, 3:04:05 PM",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006, 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate normalizes the export's date formats.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}
