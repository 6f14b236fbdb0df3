package balance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/internal/service/storage"
	"github.com/dalio-ai/dalio/backend/internal/service/summary"
)

// ErrInvalidSegment is returned for company, year or period values that
// would escape their folder.
var ErrInvalidSegment = errors.New("invalid report path segment")

// ObjectStore is the storage the library reads and writes.
type ObjectStore interface {
	Folders(ctx context.Context, prefix string) ([]string, error)
	Objects(ctx context.Context, prefix string) ([]storage.Object, error)
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, key string, limit int64) ([]byte, error)
	SignedURL(ctx context.Context, key string) (string, error)
}

// Summarizer turns statement text into a report.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summary.Report
}

// Company is one library folder.
type Company struct {
	Name string `json:"name"`
}

// Summary is a summarised report with its location.
type Summary struct {
	Company string         `json:"company"`
	Year    string         `json:"year"`
	Period  string         `json:"period"`
	Report  summary.Report `json:"summary"`
}

// UploadResult describes one file of a bulk upload.
type UploadResult struct {
	File string   `json:"file"`
	Key  string   `json:"key,omitempty"`
	Info FileInfo `json:"info"`
	Size int      `json:"size"`
	Err  error    `json:"-"`
}

// Library browses and fills the report library.
type Library struct {
	store      ObjectStore
	summarizer Summarizer
	maxBytes   int64
	now        func() time.Time
}

// NewLibrary creates a library over store. maxBytes caps downloads.
func NewLibrary(store ObjectStore, summarizer Summarizer, maxBytes int64) *Library {
	return &Library{store: store, summarizer: summarizer, maxBytes: maxBytes, now: time.Now}
}

// Companies lists company folders.
func (l *Library) Companies(ctx context.Context) ([]Company, error) {
	names, err := l.store.Folders(ctx, prefix)
	if err != nil {
		return nil, err
	}
	companies := make([]Company, 0, len(names))
	for _, name := range names {
		companies = append(companies, Company{Name: name})
	}
	return companies, nil
}

// Years lists the years available for a company.
func (l *Library) Years(ctx context.Context, company string) ([]string, error) {
	if err := checkSegments(company); err != nil {
		return nil, err
	}
	return l.store.Folders(ctx, prefix+company+"/")
}

// Periods lists the periods stored for a company and year.
func (l *Library) Periods(ctx context.Context, company, year string) ([]string, error) {
	if err := checkSegments(company, year); err != nil {
		return nil, err
	}
	objects, err := l.store.Objects(ctx, prefix+company+"/"+year+"/")
	if err != nil {
		return nil, err
	}

	periods := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimSuffix(path.Base(obj.Key), ".pdf")
		if name == "" || name == "." {
			continue
		}
		periods = append(periods, name)
	}
	sort.Strings(periods)
	return periods, nil
}

// URL presigns the report PDF.
func (l *Library) URL(ctx context.Context, company, year, period string) (string, error) {
	if err := checkSegments(company, year, period); err != nil {
		return "", err
	}
	return l.store.SignedURL(ctx, Key(company, year, period))
}

// Summarize downloads a report, extracts its text and summarises it.
func (l *Library) Summarize(ctx context.Context, company, year, period string) (Summary, error) {
	if err := checkSegments(company, year, period); err != nil {
		return Summary{}, err
	}

	data, err := l.store.Get(ctx, Key(company, year, period), l.maxBytes)
	if err != nil {
		return Summary{}, err
	}
	text, err := document.ExtractText(data)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Company: company,
		Year:    year,
		Period:  period,
		Report:  l.summarizer.Summarize(ctx, text),
	}, nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// UploadDir stores every PDF in dir under the key derived from its name.
// Files that fail are reported in the results and do not stop the run.
func (l *Library) UploadDir(ctx context.Context, dir string) ([]UploadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var results []UploadResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		result := l.uploadFile(ctx, filepath.Join(dir, entry.Name()))
		if result.Err != nil {
			log.Printf("[balance] upload %s failed: %v", result.File, result.Err)
		} else {
			log.Printf("[balance] uploaded %s as %s", result.File, result.Key)
		}
		results = append(results, result)
	}
	return results, nil
}

func (l *Library) uploadFile(ctx context.Context, file string) UploadResult {
	name := filepath.Base(file)
	info := ParseFileName(name, l.now())
	result := UploadResult{File: name, Info: info}

	data, err := os.ReadFile(file)
	if err != nil {
		result.Err = err
		return result
	}
	result.Size = len(data)

	companyID := info.CompanyID
	if companyID == "" {
		companyID = "1"
	}
	metadata := map[string]string{
		"companyId":        companyID,
		"year":             strconv.Itoa(info.Year),
		"period":           info.Period,
		"originalFileName": unsafeName.ReplaceAllString(name, "_"),
		"uploadedAt":       l.now().UTC().Format(time.RFC3339),
		"fileSize":         strconv.Itoa(len(data)),
	}

	key := info.Key()
	if err := l.store.Put(ctx, key, data, "application/pdf", metadata); err != nil {
		result.Err = err
		return result
	}
	result.Key = key
	return result
}

func checkSegments(segments ...string) error {
	for _, s := range segments {
		if strings.TrimSpace(s) == "" || strings.Contains(s, "/") || s == "." || s == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidSegment, s)
		}
	}
	return nil
}
