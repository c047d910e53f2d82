// Package filename derives the output artifact name from an extracted
// record.
package filename

import (
	"strings"
	"time"

	"dispatchreport/constants"
	"dispatchreport/internal/extract"
	"dispatchreport/internal/jptime"
)

const (
	// placeholderID substitutes an absent management number.
	placeholderID = "UNKNOWN"

	// maxBaseLen caps the name (without extension); excess is truncated
	// from the right.
	maxBaseLen = 120
)

// unsafeReplacer maps path separators and reserved punctuation to an
// underscore. Everything else passes through unchanged.
var unsafeReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Build composes {identifier}[_{siteName}]_{yyyymmdd}{ext}. The anchor date
// is the first parsable of arrival, completion, receipt time; today when
// none parse. The site name and its separator are omitted when absent.
func Build(rec *extract.Record) string {
	return build(rec, time.Now)
}

func build(rec *extract.Record, now func() time.Time) string {
	day := anchorDate(rec, now)

	id, ok := rec.Get(constants.FieldManagementNo)
	if !ok {
		id = placeholderID
	}
	id = unsafeReplacer.Replace(id)

	site := ""
	if s, ok := rec.Get(constants.FieldSiteName); ok {
		site = unsafeReplacer.Replace(s)
	}

	base := id
	if site != "" {
		base += "_" + site
	}
	base += "_" + day
	if runes := []rune(base); len(runes) > maxBaseLen {
		base = string(runes[:maxBaseLen])
	}
	return base + constants.ReportExtension
}

// anchorDate picks the 8-digit date by fixed priority among the timestamp
// fields.
func anchorDate(rec *extract.Record, now func() time.Time) string {
	for _, f := range []constants.Field{
		constants.FieldArrivedAt,
		constants.FieldCompletedAt,
		constants.FieldReceivedAt,
	} {
		if v, ok := rec.Get(f); ok {
			if t, ok := jptime.Parse(v); ok {
				return t.Format("20060102")
			}
		}
	}
	return now().In(jptime.JST).Format("20060102")
}
