package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"dispatchreport/constants"
)

// Block is an N-row write target for a multi-line field, anchored at
// (Column, StartRow).
type Block struct {
	Column   string `json:"column"`
	StartRow int    `json:"start_row"`
	Rows     int    `json:"rows"`
}

// DateColumns names the six sub-cell columns of a date/time block; the row
// comes from the block's base row.
type DateColumns struct {
	Year    string `json:"year"`
	Month   string `json:"month"`
	Day     string `json:"day"`
	Weekday string `json:"weekday"`
	Hour    string `json:"hour"`
	Minute  string `json:"minute"`
}

// Stamp holds the cells of the unconditional generation-date stamp.
type Stamp struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// Layout is the fixed mapping from field key to template coordinates.
// Immutable at runtime; the projector only reads it.
type Layout struct {
	Sheet       string                    `json:"sheet"`
	Cells       map[constants.Field]string `json:"cells"`
	Blocks      map[constants.Field]Block  `json:"blocks"`
	DateBlocks  map[constants.Field]int    `json:"date_blocks"`
	DateColumns DateColumns               `json:"date_columns"`
	Stamp       Stamp                     `json:"stamp"`
}

// DefaultLayout returns the compiled-in cell layout of the dispatch report
// template.
func DefaultLayout() Layout {
	return Layout{
		Sheet: constants.TemplateSheetName,
		Cells: map[constants.Field]string{
			constants.FieldManagementNo: "C12",
			constants.FieldManufacturer: "J12",
			constants.FieldControlType:  "M12",
			constants.FieldReporter:     "C14",
			constants.FieldResponder:    "L37",
			constants.FieldPostRepair:   "C35",
			constants.FieldAffiliation:  "C37",
		},
		Blocks: map[constants.Field]Block{
			constants.FieldReceivedContent: {Column: "C", StartRow: 15, Rows: 4},
			constants.FieldArrivalStatus:   {Column: "C", StartRow: 20, Rows: 5},
			constants.FieldCause:           {Column: "C", StartRow: 25, Rows: 5},
			constants.FieldRemedy:          {Column: "C", StartRow: 30, Rows: 5},
		},
		DateBlocks: map[constants.Field]int{
			constants.FieldReceivedAt:  13,
			constants.FieldArrivedAt:   19,
			constants.FieldCompletedAt: 36,
		},
		DateColumns: DateColumns{
			Year: "C", Month: "F", Day: "H", Weekday: "J", Hour: "M", Minute: "O",
		},
		Stamp: Stamp{Year: "B5", Month: "D5", Day: "F5"},
	}
}

// LoadLayout reads a JSON layout override, validates it against the layout
// schema, and overlays the provided sections onto the default layout. The
// coordinates are configuration, not semantics; an invalid file is an
// error, never a silent fallback.
func LoadLayout(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout override: %w", err)
	}
	if err := validateLayoutJSON(raw); err != nil {
		return Layout{}, err
	}

	var over struct {
		Sheet       *string          `json:"sheet"`
		Cells       map[string]string `json:"cells"`
		Blocks      map[string]Block  `json:"blocks"`
		DateBlocks  map[string]int    `json:"date_blocks"`
		DateColumns *DateColumns      `json:"date_columns"`
		Stamp       *Stamp            `json:"stamp"`
	}
	if err := json.Unmarshal(raw, &over); err != nil {
		return Layout{}, fmt.Errorf("decode layout override: %w", err)
	}

	layout := DefaultLayout()
	if over.Sheet != nil {
		layout.Sheet = *over.Sheet
	}
	if over.Cells != nil {
		layout.Cells = make(map[constants.Field]string, len(over.Cells))
		for k, v := range over.Cells {
			f := constants.Field(k)
			if !constants.IsKnown(f) {
				return Layout{}, fmt.Errorf("layout override: unknown field %q", k)
			}
			layout.Cells[f] = v
		}
	}
	if over.Blocks != nil {
		layout.Blocks = make(map[constants.Field]Block, len(over.Blocks))
		for k, v := range over.Blocks {
			f := constants.Field(k)
			if !constants.IsKnown(f) {
				return Layout{}, fmt.Errorf("layout override: unknown field %q", k)
			}
			layout.Blocks[f] = v
		}
	}
	if over.DateBlocks != nil {
		layout.DateBlocks = make(map[constants.Field]int, len(over.DateBlocks))
		for k, v := range over.DateBlocks {
			f := constants.Field(k)
			if !constants.IsKnown(f) {
				return Layout{}, fmt.Errorf("layout override: unknown field %q", k)
			}
			layout.DateBlocks[f] = v
		}
	}
	if over.DateColumns != nil {
		layout.DateColumns = *over.DateColumns
	}
	if over.Stamp != nil {
		layout.Stamp = *over.Stamp
	}
	return layout, nil
}

// buildLayoutSchema returns the JSON-Schema the override file must satisfy.
func buildLayoutSchema() map[string]any {
	cellRef := map[string]any{"type": "string", "pattern": `^[A-Z]{1,3}[1-9][0-9]*$`}
	column := map[string]any{"type": "string", "pattern": `^[A-Z]{1,3}$`}
	row := map[string]any{"type": "integer", "minimum": 1}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"sheet": map[string]any{"type": "string", "minLength": 1},
			"cells": map[string]any{
				"type":                 "object",
				"additionalProperties": cellRef,
			},
			"blocks": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"column", "start_row", "rows"},
					"properties": map[string]any{
						"column":    column,
						"start_row": row,
						"rows":      map[string]any{"type": "integer", "minimum": 1, "maximum": 20},
					},
				},
			},
			"date_blocks": map[string]any{
				"type":                 "object",
				"additionalProperties": row,
			},
			"date_columns": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"year", "month", "day", "weekday", "hour", "minute"},
				"properties": map[string]any{
					"year": column, "month": column, "day": column,
					"weekday": column, "hour": column, "minute": column,
				},
			},
			"stamp": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"year", "month", "day"},
				"properties": map[string]any{
					"year": cellRef, "month": cellRef, "day": cellRef,
				},
			},
		},
	}
}

// validateLayoutJSON validates data against the layout schema.
func validateLayoutJSON(data []byte) error {
	b, err := json.Marshal(buildLayoutSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("layout.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("layout.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal layout override: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("layout override does not match schema: %w", err)
	}
	return nil
}
