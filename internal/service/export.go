package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deroyal/feedback-portal/backend/internal/models"
)

// ErrNoData is returned when an export is requested over an empty collection.
var ErrNoData = errors.New("no data to export")

// utf8BOM keeps Excel and other spreadsheet readers from mangling non-ASCII
// content in the exported file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var stripPolicy = bluemonday.StrictPolicy()

// StripMarkup reduces stored rich text to plain text. Sanitizing entity-
// escapes the surviving text, so the escape is undone afterwards.
func StripMarkup(s string) string {
	return html.UnescapeString(stripPolicy.Sanitize(s))
}

// FilterAndSort narrows a record snapshot with the dashboard filters and
// orders the result newest first. It is pure: the input slice is not
// modified and the result is always a subset of it.
func FilterAndSort(records []models.Feedback, filters models.FeedbackFilters) []models.Feedback {
	out := make([]models.Feedback, 0, len(records))
	for _, r := range records {
		if matchesFilters(&r, filters) {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		// Deterministic order for equal timestamps.
		return out[i].ID.String() > out[j].ID.String()
	})

	return out
}

// matchesFilters ANDs the five filter predicates.
func matchesFilters(r *models.Feedback, filters models.FeedbackFilters) bool {
	if filters.Status != "" && filters.Status != "all" && r.Status != filters.Status {
		return false
	}
	if filters.Type != "" && filters.Type != "all" && r.Type != filters.Type {
		return false
	}

	if filters.Search != "" {
		pv := r.ToPublicView()
		haystack := strings.ToLower(strings.Join([]string{
			pv.Description,
			pv.Type,
			strVal(pv.Email),
			strVal(pv.Name),
			pv.AdminNotes,
		}, " "))
		if !strings.Contains(haystack, strings.ToLower(filters.Search)) {
			return false
		}
	}

	if filters.DateFrom != nil && r.CreatedAt < *filters.DateFrom {
		return false
	}
	if filters.DateTo != nil && r.CreatedAt > *filters.DateTo {
		return false
	}

	return true
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var csvHeader = []string{
	"Submission ID",
	"Date",
	"Type",
	"Description",
	"Anonymous",
	"Email",
	"Name",
	"Title",
	"Location",
	"Attachment",
	"Status",
	"Admin Notes",
	"Archived Date",
	"Archived By",
}

// ExportCSV serializes records in their given order to BOM-prefixed CSV.
// Anonymity is enforced at this boundary: identity columns of anonymous
// records render as the literal "Anonymous" no matter what is stored.
// An empty collection is an ErrNoData, not a header-only file.
func ExportCSV(records []models.Feedback) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	caser := cases.Title(language.English)
	for i := range records {
		pv := records[i].ToPublicView()
		if err := w.Write(csvRow(&pv, caser)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRow(f *models.Feedback, caser cases.Caser) []string {
	identity := func(field *string) string {
		if f.IsAnonymous {
			return "Anonymous"
		}
		return strVal(field)
	}

	anonymous := "No"
	if f.IsAnonymous {
		anonymous = "Yes"
	}

	archivedAt := ""
	if f.ArchivedAt != nil {
		archivedAt = formatExportDate(*f.ArchivedAt)
	}

	return []string{
		f.ID.String(),
		formatExportDate(f.CreatedAt),
		f.Type,
		StripMarkup(f.Description),
		anonymous,
		identity(f.Email),
		identity(f.Name),
		identity(f.Title),
		identity(f.Location),
		strVal(f.AttachmentName),
		caser.String(f.Status),
		f.AdminNotes,
		archivedAt,
		strVal(f.ArchivedBy),
	}
}

// formatExportDate renders an epoch-millisecond timestamp in local time.
func formatExportDate(millis int64) string {
	return time.UnixMilli(millis).Format("2006-01-02 15:04:05")
}

// ComputeStats counts the full collection for the dashboard header cards.
func ComputeStats(records []models.Feedback) models.FeedbackStats {
	stats := models.FeedbackStats{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case models.StatusNew:
			stats.New++
		case models.StatusArchived:
			stats.Archived++
		}
	}
	return stats
}
