package dataimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// Encodings reported by Decode.
const (
	EncodingUTF8   = "UTF-8"
	EncodingLatin1 = "Latin-1"
)

var (
	// ErrEmptyFile is returned when the upload has no header row.
	ErrEmptyFile = fmt.Errorf("dataimport: file is empty: %w", httpx.ErrValidation)
	// ErrMalformed wraps CSV syntax errors.
	ErrMalformed = fmt.Errorf("dataimport: malformed csv: %w", httpx.ErrValidation)
)

var delimiters = []rune{',', ';', '\t', '|'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parsed is a decoded CSV upload.
type Parsed struct {
	Columns   []string
	Records   [][]string
	Delimiter rune
	Encoding  string
}

// DelimiterName names a delimiter for display.
func DelimiterName(d rune) string {
	switch d {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	}
	return strconv.QuoteRune(d)
}

// Decode returns data as UTF-8 text, falling back to Latin-1 when data is not valid UTF-8.
func Decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("dataimport: decode latin-1: %w", err)
	}
	return string(out), EncodingLatin1, nil
}

// SniffDelimiter picks the candidate delimiter that appears most often, and
// the same number of times, on the first lines of text. Comma is the fallback.
func SniffDelimiter(text string) rune {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 5 {
			break
		}
	}
	if len(lines) == 0 {
		return ','
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		count := strings.Count(lines[0], string(d))
		if count == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(d)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best, bestCount = d, count
		}
	}
	if bestCount == 0 {
		for _, d := range delimiters {
			if c := strings.Count(lines[0], string(d)); c > bestCount {
				best, bestCount = d, c
			}
		}
	}
	return best
}

// Parse decodes and splits an uploaded CSV file. Short records are padded to
// the header width; longer ones are rejected.
func Parse(data []byte) (*Parsed, error) {
	text, encoding, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	delim := SniffDelimiter(text)
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	p := &Parsed{Columns: NormalizeHeader(header), Records: [][]string{}, Delimiter: delim, Encoding: encoding}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if blank(record) {
			continue
		}
		if len(record) > len(p.Columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, line, len(record), len(p.Columns))
		}
		for len(record) < len(p.Columns) {
			record = append(record, "")
		}
		p.Records = append(p.Records, record)
	}
	return p, nil
}

// Head returns up to n records.
func (p *Parsed) Head(n int) [][]string {
	if n > len(p.Records) {
		n = len(p.Records)
	}
	return p.Records[:n]
}

// NormalizeHeader lower-cases names, replaces separators with underscores,
// names blank columns column_N and suffixes duplicates.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.Map(func(r rune) rune {
			switch {
			case unicode.IsSpace(r), r == '-', r == '.', r == '/':
				return '_'
			}
			return unicode.ToLower(r)
		}, strings.TrimSpace(h))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name += "_" + strconv.Itoa(n)
		}
		out[i] = name
	}
	return out
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
