// Package input turns access-log files into LogRecords.
//
// The address/timestamp pattern is fixed: a dotted-quad IPv4 address, the
// literal " - - " delimiter and a bracketed timestamp. The timestamp layout
// itself is configuration driven, so it is kept as raw text here and parsed
// by the consumers (see ResolveTimestampLayout).
//
// Error Policy: a missing or unreadable file yields no records; lines that do
// not match are skipped. Neither aborts a scan.
package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// defaultRecordPattern captures the client address and the raw timestamp.
const defaultRecordPattern = `(?P<ip>\d{1,3}(?:\.\d{1,3}){3}) - - \[(?P<timestamp>[^\]]+)\]`

// ctxCheckInterval is how many lines are read between cancellation checks.
const ctxCheckInterval = 4096

// Extractor reads access logs and returns the hits on a target route.
//
// Thread Safety: Safe for concurrent use; the compiled pattern is read-only.
type Extractor struct {
	pattern *regexp.Regexp
	ipIdx   int
	tsIdx   int
}

// NewExtractor creates an extractor for combined/common log lines.
func NewExtractor() *Extractor {
	re := regexp.MustCompile(defaultRecordPattern)
	return &Extractor{
		pattern: re,
		ipIdx:   re.SubexpIndex("ip"),
		tsIdx:   re.SubexpIndex("timestamp"),
	}
}

// ParseLine applies the route pre-filter and the record pattern to one line.
func (e *Extractor) ParseLine(line, route string) (domain.LogRecord, bool) {
	if !strings.Contains(line, route) {
		return domain.LogRecord{}, false
	}
	m := e.pattern.FindStringSubmatch(line)
	if m == nil {
		return domain.LogRecord{}, false
	}
	return domain.LogRecord{Address: m[e.ipIdx], Timestamp: m[e.tsIdx]}, true
}

// Records returns every (address, timestamp) hit on route in file order.
//
// Returns:
//   - Matching records (empty when the file is missing or unreadable)
//   - ctx.Err() if the scan was cancelled
func (e *Extractor) Records(ctx context.Context, path, route string) ([]domain.LogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("file", path).Msg("Log file not found, treating as empty")
		} else {
			log.Warn().Err(err).Str("file", path).Msg("Cannot open log file, treating as empty")
		}
		return nil, nil
	}
	defer file.Close()

	return e.read(ctx, file, path, route)
}

// Addresses returns the distinct addresses hitting route, in first-seen order.
func (e *Extractor) Addresses(ctx context.Context, path, route string) ([]string, error) {
	records, err := e.Records(ctx, path, route)
	if err != nil {
		return nil, err
	}
	return domain.UniqueAddresses(records), nil
}

func (e *Extractor) read(ctx context.Context, r io.Reader, path, route string) ([]domain.LogRecord, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var records []domain.LogRecord
	lines, skipped := 0, 0

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lines++
			if lines%ctxCheckInterval == 0 {
				if cerr := ctx.Err(); cerr != nil {
					return nil, cerr
				}
			}
			if rec, ok := e.ParseLine(strings.TrimRight(line, "\r\n"), route); ok {
				records = append(records, rec)
			} else if strings.Contains(line, route) {
				skipped++
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Warn().Err(err).Str("file", path).Int("lines", lines).Msg("Log read interrupted, using partial content")
			}
			break
		}
	}

	log.Debug().
		Str("file", path).
		Str("route", route).
		Int("lines", lines).
		Int("records", len(records)).
		Int("unparsable", skipped).
		Msg("Log extracted")
	return records, nil
}
