package template

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dispatchreport/constants"
	"dispatchreport/internal/common"
	"dispatchreport/internal/extract"
	"dispatchreport/internal/jptime"
)

// newTemplate builds a minimal in-memory workbook to project into.
func newTemplate(t *testing.T, sheet string) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	f.Path = "template" + constants.ReportExtension
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func cell(t *testing.T, artifact []byte, sheet, ref string) string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(artifact))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func fixedProjector() *Projector {
	p := NewProjector(DefaultLayout(), nil)
	p.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, jptime.JST)
	}
	return p
}

func TestSplitLines(t *testing.T) {
	seven := "l1\nl2\nl3\nl4\nl5\nl6\nl7"
	got := SplitLines(seven, 5)
	assert.Equal(t, []string{"l1", "l2", "l3", "l4", "l5…"}, got)

	three := "a\nb\nc"
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines(three, 5))

	assert.Empty(t, SplitLines("", 5))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\n\n\nb\n", 5))
}

func TestProjectWritesRecord(t *testing.T) {
	base := newTemplate(t, constants.TemplateSheetName)

	rec := extract.NewRecord()
	rec.Set(constants.FieldManagementNo, "HK-001")
	rec.Set(constants.FieldManufacturer, "東芝")
	rec.Set(constants.FieldReporter, "田中")
	rec.Set(constants.FieldArrivedAt, "2025/05/10 9:05")
	rec.Set(constants.FieldCause, "基板故障\n湿気による腐食")

	out, err := fixedProjector().Project(base, rec)
	require.NoError(t, err)

	sheet := constants.TemplateSheetName
	assert.Equal(t, "HK-001", cell(t, out, sheet, "C12"))
	assert.Equal(t, "東芝", cell(t, out, sheet, "J12"))
	assert.Equal(t, "田中", cell(t, out, sheet, "C14"))

	// Arrival date block at base row 19: 2025-05-10 is a Saturday.
	assert.Equal(t, "2025", cell(t, out, sheet, "C19"))
	assert.Equal(t, "5", cell(t, out, sheet, "F19"))
	assert.Equal(t, "10", cell(t, out, sheet, "H19"))
	assert.Equal(t, "土", cell(t, out, sheet, "J19"))
	assert.Equal(t, "09", cell(t, out, sheet, "M19"))
	assert.Equal(t, "05", cell(t, out, sheet, "O19"))

	// Cause block anchored at C25.
	assert.Equal(t, "基板故障", cell(t, out, sheet, "C25"))
	assert.Equal(t, "湿気による腐食", cell(t, out, sheet, "C26"))
	assert.Equal(t, "", cell(t, out, sheet, "C27"))

	// Generation stamp from the injected clock.
	assert.Equal(t, "2025", cell(t, out, sheet, "B5"))
	assert.Equal(t, "6", cell(t, out, sheet, "D5"))
	assert.Equal(t, "1", cell(t, out, sheet, "F5"))
}

func TestProjectPreClearsBlocks(t *testing.T) {
	// Simulate residue from a previous, longer value in the template.
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", constants.TemplateSheetName))
	for row := 25; row < 30; row++ {
		require.NoError(t, f.SetCellValue(constants.TemplateSheetName, fmtCell("C", row), "古い行"))
	}
	f.Path = "template" + constants.ReportExtension
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec := extract.NewRecord()
	rec.Set(constants.FieldCause, "新しい原因")

	out, err := fixedProjector().Project(buf.Bytes(), rec)
	require.NoError(t, err)

	sheet := constants.TemplateSheetName
	assert.Equal(t, "新しい原因", cell(t, out, sheet, "C25"))
	for row := 26; row < 30; row++ {
		assert.Equal(t, "", cell(t, out, sheet, fmtCell("C", row)), "row %d should be cleared", row)
	}
}

func TestProjectBlockTruncation(t *testing.T) {
	base := newTemplate(t, constants.TemplateSheetName)

	rec := extract.NewRecord()
	rec.Set(constants.FieldRemedy, "1行目\n2行目\n3行目\n4行目\n5行目\n6行目\n7行目")

	out, err := fixedProjector().Project(base, rec)
	require.NoError(t, err)

	sheet := constants.TemplateSheetName
	assert.Equal(t, "1行目", cell(t, out, sheet, "C30"))
	assert.Equal(t, "4行目", cell(t, out, sheet, "C33"))
	assert.Equal(t, "5行目…", cell(t, out, sheet, "C34"))
}

func TestProjectEmptyRecordWritesOnlyStamp(t *testing.T) {
	base := newTemplate(t, constants.TemplateSheetName)

	out, err := fixedProjector().Project(base, extract.NewRecord())
	require.NoError(t, err)

	sheet := constants.TemplateSheetName
	layout := DefaultLayout()
	for _, ref := range layout.Cells {
		assert.Equal(t, "", cell(t, out, sheet, ref))
	}
	for _, block := range layout.Blocks {
		assert.Equal(t, "", cell(t, out, sheet, fmtCell(block.Column, block.StartRow)))
	}
	for _, row := range layout.DateBlocks {
		assert.Equal(t, "", cell(t, out, sheet, fmtCell(layout.DateColumns.Year, row)))
	}
	assert.Equal(t, "2025", cell(t, out, sheet, "B5"))
	assert.Equal(t, "6", cell(t, out, sheet, "D5"))
	assert.Equal(t, "1", cell(t, out, sheet, "F5"))
}

func TestProjectUnparsableTimestampOmitted(t *testing.T) {
	base := newTemplate(t, constants.TemplateSheetName)

	rec := extract.NewRecord()
	rec.Set(constants.FieldReceivedAt, "あとで確認")

	out, err := fixedProjector().Project(base, rec)
	require.NoError(t, err)
	assert.Equal(t, "", cell(t, out, constants.TemplateSheetName, "C13"))
}

func TestProjectSheetFallback(t *testing.T) {
	base := newTemplate(t, "別のシート")

	rec := extract.NewRecord()
	rec.Set(constants.FieldManagementNo, "HK-001")

	out, err := fixedProjector().Project(base, rec)
	require.NoError(t, err)
	assert.Equal(t, "HK-001", cell(t, out, "別のシート", "C12"))
}

func TestProjectBadBytes(t *testing.T) {
	_, err := fixedProjector().Project([]byte("not a workbook"), extract.NewRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTemplateLoad)
}

func TestProjectDeterministic(t *testing.T) {
	base := newTemplate(t, constants.TemplateSheetName)

	rec := extract.NewRecord()
	rec.Set(constants.FieldManagementNo, "HK-001")
	rec.Set(constants.FieldCause, "基板故障")

	p := fixedProjector()
	a, err := p.Project(base, rec)
	require.NoError(t, err)
	b, err := p.Project(base, rec)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "repeated projection should be byte-identical")

	// The base template itself is untouched.
	assert.Equal(t, "", cell(t, base, constants.TemplateSheetName, "C12"))
}

func fmtCell(col string, row int) string {
	name, _ := excelize.JoinCellName(col, row)
	return name
}
