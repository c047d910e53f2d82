// Package template projects an extracted incident record onto the fixed
// cell layout of a macro-enabled workbook template.
package template

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"dispatchreport/constants"
	"dispatchreport/internal/common"
	"dispatchreport/internal/extract"
	"dispatchreport/internal/jptime"
)

// Projector writes records into copies of a base template. The base bytes
// are never mutated, so one template serves any number of concurrent
// projections.
type Projector struct {
	layout Layout
	logger *slog.Logger
	now    func() time.Time
}

func NewProjector(layout Layout, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{layout: layout, logger: logger, now: time.Now}
}

// Project opens an in-memory working copy of the base template, writes
// every non-empty record field to its layout target plus the unconditional
// generation-date stamp, and returns the re-encoded artifact bytes.
// Fails with common.ErrTemplateLoad when the base cannot be opened and
// common.ErrSerialization when the result cannot be written back; the
// working copy is discarded on failure, there is no partial output.
func (p *Projector) Project(base []byte, rec *extract.Record) ([]byte, error) {
	start := time.Now()

	f, err := excelize.OpenReader(bytes.NewReader(base))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", common.ErrTemplateLoad, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet, err := p.resolveSheet(f)
	if err != nil {
		return nil, err
	}

	var writeErr error
	setCell := func(ref string, v any) {
		if writeErr != nil {
			return
		}
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			writeErr = fmt.Errorf("%w: cell %s: %v", common.ErrSerialization, ref, err)
		}
	}

	// Single cells.
	for field, ref := range p.layout.Cells {
		if v, ok := rec.Get(field); ok {
			setCell(ref, v)
		}
	}

	// Date/time blocks: six sub-cells each, sub-cells of an unparsable
	// timestamp are omitted rather than stamped with a placeholder.
	for field, baseRow := range p.layout.DateBlocks {
		v, ok := rec.Get(field)
		if !ok {
			continue
		}
		ts, ok := jptime.Parse(v)
		if !ok {
			p.logger.Warn("timestamp field not written, unparsable", "field", string(field), "value", v)
			continue
		}
		p.writeDateBlock(setCell, baseRow, jptime.Decompose(ts))
	}

	// Multi-line blocks: pre-clear the whole block, then write the
	// truncated lines from the anchor down.
	for field, block := range p.layout.Blocks {
		v, ok := rec.Get(field)
		if !ok {
			continue
		}
		for i := 0; i < block.Rows; i++ {
			setCell(fmt.Sprintf("%s%d", block.Column, block.StartRow+i), "")
		}
		for i, line := range SplitLines(v, block.Rows) {
			setCell(fmt.Sprintf("%s%d", block.Column, block.StartRow+i), line)
		}
	}

	// Generation-date stamp, written regardless of record content.
	today := p.now().In(jptime.JST)
	setCell(p.layout.Stamp.Year, today.Year())
	setCell(p.layout.Stamp.Month, int(today.Month()))
	setCell(p.layout.Stamp.Day, today.Day())

	if writeErr != nil {
		return nil, writeErr
	}

	// Keep the macro-enabled container on re-encode.
	f.Path = "report" + constants.ReportExtension
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSerialization, err)
	}

	p.logger.Info("template.project.ok",
		"sheet", sheet,
		"fields", rec.Len(),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (p *Projector) writeDateBlock(setCell func(string, any), baseRow int, c jptime.Components) {
	cols := p.layout.DateColumns
	setCell(fmt.Sprintf("%s%d", cols.Year, baseRow), c.Year)
	setCell(fmt.Sprintf("%s%d", cols.Month, baseRow), c.Month)
	setCell(fmt.Sprintf("%s%d", cols.Day, baseRow), c.Day)
	setCell(fmt.Sprintf("%s%d", cols.Weekday, baseRow), c.Weekday)
	setCell(fmt.Sprintf("%s%d", cols.Hour, baseRow), fmt.Sprintf("%02d", c.Hour))
	setCell(fmt.Sprintf("%s%d", cols.Minute, baseRow), fmt.Sprintf("%02d", c.Minute))
}

// resolveSheet returns the configured sheet, or the active sheet when the
// template lacks it.
func (p *Projector) resolveSheet(f *excelize.File) (string, error) {
	if idx, err := f.GetSheetIndex(p.layout.Sheet); err == nil && idx != -1 {
		return p.layout.Sheet, nil
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return "", fmt.Errorf("%w: sheet %q absent and no active sheet", common.ErrTemplateLoad, p.layout.Sheet)
	}
	return sheet, nil
}
