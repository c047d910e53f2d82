// Package extract turns normalized incident mail text into a canonical
// field record via a line-scanning state machine over a closed label
// vocabulary.
package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"dispatchreport/constants"
	"dispatchreport/internal/jptime"
	"dispatchreport/internal/textnorm"
)

type state int

const (
	scanning state = iota
	inBlock
	awaitingURL
)

var (
	// A label line: optional leading whitespace, a token free of whitespace
	// and the delimiter, the delimiter, then the remainder.
	labelRe = regexp.MustCompile(`^\s*([^\s:]+)\s*:\s*(.*)$`)

	urlRe = regexp.MustCompile(`https?://\S+`)

	caseTypeRe  = regexp.MustCompile(`【\s*([^】]+?)\s*】`)
	subjectNoRe = regexp.MustCompile(`【[^】]+】\s*([A-Za-z0-9-]+)`)

	// Inline reception numbers sometimes ride along in prose
	// ("お問い合わせの際は受付番号 123456 を…").
	inlineReceptionRe = regexp.MustCompile(`受付番号\s*:?\s*([0-9]+)`)
)

// Extractor scans mail text for labeled fields. Stateless across calls.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract normalizes raw mail text and scans it line by line. It never
// fails: unrecognized labels are ignored and unparsable values stay absent
// from the returned record.
func (e *Extractor) Extract(raw string) *Record {
	t := textnorm.Normalize(raw)
	rec := NewRecord()

	st := scanning
	var blockKey constants.Field
	var blockBuf []string
	var urlKey constants.Field

	flushBlock := func() {
		if st != inBlock {
			return
		}
		rec.Set(blockKey, joinBlock(blockBuf))
		blockBuf = nil
		st = scanning
	}

	for _, line := range strings.Split(t, "\n") {
		m := labelRe.FindStringSubmatch(line)
		var key constants.Field
		known := false
		if m != nil {
			key, known = constants.CanonicalizeLabel(m[1])
		}

		if st == awaitingURL {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
				rec.Set(urlKey, firstURL(trimmed))
				st = scanning
				continue
			}
			if !known {
				// Unlabeled content is never attributed to a field.
				continue
			}
			// A recognized label cancels the pending URL.
			st = scanning
		}

		if known {
			// A recognized label closes whatever was open.
			flushBlock()
			rest := m[2]

			switch constants.FieldKind(key) {
			case constants.KindMulti:
				st = inBlock
				blockKey = key
				blockBuf = nil
				if strings.TrimSpace(rest) != "" {
					blockBuf = append(blockBuf, rest)
				}
			case constants.KindURL:
				if u := firstURL(rest); u != "" {
					rec.Set(key, u)
				} else {
					st = awaitingURL
					urlKey = key
				}
			default:
				rec.Set(key, rest)
			}
			continue
		}

		if m != nil {
			// A label-shaped line with no canonical match is ignored
			// entirely, so foreign labels cannot corrupt an open block.
			continue
		}

		if st == inBlock {
			blockBuf = append(blockBuf, line)
		}
	}
	flushBlock()

	e.scanInlineReception(rec, t)
	e.deriveSubjectFields(rec)
	e.deriveWorkMinutes(rec)
	return rec
}

// deriveSubjectFields pulls the bracketed case type out of the subject line
// and, when the management number label never appeared, falls back to the
// token that follows the bracket.
func (e *Extractor) deriveSubjectFields(rec *Record) {
	subject, ok := rec.Get(constants.FieldSubject)
	if !ok {
		return
	}
	if m := caseTypeRe.FindStringSubmatch(subject); m != nil {
		rec.Set(constants.FieldCaseType, m[1])
	}
	if !rec.Has(constants.FieldManagementNo) {
		if m := subjectNoRe.FindStringSubmatch(subject); m != nil {
			rec.Set(constants.FieldManagementNo, m[1])
		}
	}
}

func (e *Extractor) deriveWorkMinutes(rec *Record) {
	arrived, _ := rec.Get(constants.FieldArrivedAt)
	completed, _ := rec.Get(constants.FieldCompletedAt)
	if mins, ok := jptime.MinutesBetween(arrived, completed); ok {
		rec.Set(constants.FieldWorkMinutes, strconv.Itoa(mins))
		return
	}
	if jptime.Swapped(arrived, completed) {
		e.logger.Warn("timestamps appear swapped, work minutes suppressed",
			"arrived_at", arrived,
			"completed_at", completed,
		)
	}
}

// scanInlineReception captures a reception number embedded mid-line in
// otherwise unrelated text. Called at most once per extraction, and only
// when the labeled form never appeared.
func (e *Extractor) scanInlineReception(rec *Record, t string) {
	if rec.Has(constants.FieldReceptionNo) {
		return
	}
	if m := inlineReceptionRe.FindStringSubmatch(t); m != nil {
		rec.Set(constants.FieldReceptionNo, m[1])
	}
}

// joinBlock trims buffered block lines, drops blanks, and joins the rest.
func joinBlock(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, ln := range lines {
		if s := strings.TrimSpace(ln); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}

// firstURL returns the first URL in s with trailing closing brackets and
// punctuation stripped, or "".
func firstURL(s string) string {
	u := urlRe.FindString(s)
	return strings.TrimRight(u, ")]>）】＞。、.,;")
}
