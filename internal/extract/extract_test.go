package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchreport/constants"
)

func get(t *testing.T, r *Record, f constants.Field) string {
	t.Helper()
	v, ok := r.Get(f)
	require.True(t, ok, "field %s should be present", f)
	return v
}

const sampleMail = `件名: 【故障対応】HK-001
管理番号: HK-001
物件名: サンプルビル
住所: 札幌市中央区1-2-3
窓口: 株式会社サンプル
メーカー: 東芝
制御方式: インバータ
契約種別: フルメンテ
受信時刻: 2025/05/10 09:30
通報者: 田中
受信内容:
エレベーター停止
閉じ込めなし
現着時刻: 2025/05/10 10:00
現着状況:
かご内無人
1階に停止中
原因:
ドアスイッチ接触不良
処置内容:
スイッチ清掃・調整
動作確認済み
完了時刻: 2025/05/10 11:30
対応者: 佐藤
送信者: システム
受付番号: 123456
詳細はこちら: https://example.jp/cases/123456
現着・完了登録はこちら:
https://example.jp/register/123456
`

func TestExtractSampleMail(t *testing.T) {
	rec := NewExtractor(nil).Extract(sampleMail)

	assert.Equal(t, "HK-001", get(t, rec, constants.FieldManagementNo))
	assert.Equal(t, "サンプルビル", get(t, rec, constants.FieldSiteName))
	assert.Equal(t, "札幌市中央区1-2-3", get(t, rec, constants.FieldAddress))
	assert.Equal(t, "株式会社サンプル", get(t, rec, constants.FieldContactCompany))
	assert.Equal(t, "東芝", get(t, rec, constants.FieldManufacturer))
	assert.Equal(t, "インバータ", get(t, rec, constants.FieldControlType))
	assert.Equal(t, "フルメンテ", get(t, rec, constants.FieldContractType))
	assert.Equal(t, "2025/05/10 09:30", get(t, rec, constants.FieldReceivedAt))
	assert.Equal(t, "田中", get(t, rec, constants.FieldReporter))
	assert.Equal(t, "佐藤", get(t, rec, constants.FieldResponder))
	assert.Equal(t, "システム", get(t, rec, constants.FieldSender))
	assert.Equal(t, "123456", get(t, rec, constants.FieldReceptionNo))

	assert.Equal(t, "エレベーター停止\n閉じ込めなし", get(t, rec, constants.FieldReceivedContent))
	assert.Equal(t, "かご内無人\n1階に停止中", get(t, rec, constants.FieldArrivalStatus))
	assert.Equal(t, "ドアスイッチ接触不良", get(t, rec, constants.FieldCause))
	assert.Equal(t, "スイッチ清掃・調整\n動作確認済み", get(t, rec, constants.FieldRemedy))

	assert.Equal(t, "https://example.jp/cases/123456", get(t, rec, constants.FieldReceptionURL))
	assert.Equal(t, "https://example.jp/register/123456", get(t, rec, constants.FieldRegistrationURL))

	assert.Equal(t, "故障対応", get(t, rec, constants.FieldCaseType))
	assert.Equal(t, "90", get(t, rec, constants.FieldWorkMinutes))
}

func TestExtractSingleLineTrimmed(t *testing.T) {
	rec := NewExtractor(nil).Extract("物件名:   サンプルビル  \n")
	assert.Equal(t, "サンプルビル", get(t, rec, constants.FieldSiteName))
}

func TestExtractNoLabels(t *testing.T) {
	rec := NewExtractor(nil).Extract("こんにちは。\n特に報告事項はありません。\n")
	assert.Equal(t, 0, rec.Len())
}

func TestExtractEmpty(t *testing.T) {
	rec := NewExtractor(nil).Extract("")
	assert.Equal(t, 0, rec.Len())
}

func TestExtractFullWidthLabel(t *testing.T) {
	// Full-width colon and digits normalize before label matching.
	rec := NewExtractor(nil).Extract("受付番号：１２３４５６\n")
	assert.Equal(t, "123456", get(t, rec, constants.FieldReceptionNo))
}

func TestExtractForeignLabelIgnoredEntirely(t *testing.T) {
	// A label-shaped line with no canonical match is neither stored nor
	// treated as block content; the open block survives it.
	text := "原因:\n基板故障\n謎ラベル: 何か\nまだ原因の続き\n処置内容:\n交換\n"
	rec := NewExtractor(nil).Extract(text)
	assert.Equal(t, "基板故障\nまだ原因の続き", get(t, rec, constants.FieldCause))
	assert.Equal(t, "交換", get(t, rec, constants.FieldRemedy))
	assert.Equal(t, 2, rec.Len())
}

func TestExtractLastOccurrenceWins(t *testing.T) {
	rec := NewExtractor(nil).Extract("対応者: 佐藤\n対応者: 鈴木\n")
	assert.Equal(t, "鈴木", get(t, rec, constants.FieldResponder))

	// Synonym labels collide on the same key; the later one wins too.
	rec = NewExtractor(nil).Extract("窓口: A社\n窓口会社: B社\n")
	assert.Equal(t, "B社", get(t, rec, constants.FieldContactCompany))
}

func TestExtractBlockBlankLinesDropped(t *testing.T) {
	rec := NewExtractor(nil).Extract("処置内容:\n\n部品交換\n\n動作確認\n\n")
	assert.Equal(t, "部品交換\n動作確認", get(t, rec, constants.FieldRemedy))
}

func TestExtractBlockSeededByRemainder(t *testing.T) {
	rec := NewExtractor(nil).Extract("原因: 基板故障\n湿気による腐食\n")
	assert.Equal(t, "基板故障\n湿気による腐食", get(t, rec, constants.FieldCause))
}

func TestExtractEmptyBlockStaysAbsent(t *testing.T) {
	rec := NewExtractor(nil).Extract("原因:\n\n処置内容: 交換\n")
	assert.False(t, rec.Has(constants.FieldCause))
}

func TestExtractURLTrailingPunctuationStripped(t *testing.T) {
	rec := NewExtractor(nil).Extract("詳細はこちら: 登録ページ(https://example.jp/c/9)。\n")
	assert.Equal(t, "https://example.jp/c/9", get(t, rec, constants.FieldReceptionURL))
}

func TestExtractAwaitingURLSkipsProse(t *testing.T) {
	text := "現着・完了登録はこちら:\n下のリンクから登録してください\nhttps://example.jp/register/1\n"
	rec := NewExtractor(nil).Extract(text)
	assert.Equal(t, "https://example.jp/register/1", get(t, rec, constants.FieldRegistrationURL))
}

func TestExtractAwaitingURLCancelledByLabel(t *testing.T) {
	text := "詳細はこちら:\n対応者: 佐藤\n"
	rec := NewExtractor(nil).Extract(text)
	assert.False(t, rec.Has(constants.FieldReceptionURL))
	assert.Equal(t, "佐藤", get(t, rec, constants.FieldResponder))
}

func TestExtractManagementNoFromSubject(t *testing.T) {
	rec := NewExtractor(nil).Extract("件名: 【定期点検】AB-123 サンプルビル\n")
	assert.Equal(t, "AB-123", get(t, rec, constants.FieldManagementNo))
	assert.Equal(t, "定期点検", get(t, rec, constants.FieldCaseType))

	// The labeled form has priority over the subject fallback.
	rec = NewExtractor(nil).Extract("件名: 【故障】ZZ-999\n管理番号: HK-001\n")
	assert.Equal(t, "HK-001", get(t, rec, constants.FieldManagementNo))
}

func TestExtractInlineReceptionFallback(t *testing.T) {
	rec := NewExtractor(nil).Extract("お問い合わせの際は受付番号 654321 をお伝えください。\n")
	assert.Equal(t, "654321", get(t, rec, constants.FieldReceptionNo))
}

func TestExtractSwappedTimestampsSuppressWorkMinutes(t *testing.T) {
	rec := NewExtractor(nil).Extract("現着時刻: 2025/05/10 11:30\n完了時刻: 2025/05/10 10:00\n")
	assert.False(t, rec.Has(constants.FieldWorkMinutes))
}

func TestExtractTrailingBlockFlushedAtEOF(t *testing.T) {
	rec := NewExtractor(nil).Extract("処置内容:\n部品交換")
	assert.Equal(t, "部品交換", get(t, rec, constants.FieldRemedy))
}

func TestDraftCommit(t *testing.T) {
	base := NewRecord()
	base.Set(constants.FieldReporter, "田中")

	draft := base.Draft()
	draft.Set(constants.FieldReporter, "山田")
	draft.Set(constants.FieldAffiliation, "札幌支店")

	// Uncommitted edits never leak into the base.
	assert.Equal(t, "田中", get(t, base, constants.FieldReporter))
	assert.False(t, base.Has(constants.FieldAffiliation))

	base.Commit(draft)
	assert.Equal(t, "山田", get(t, base, constants.FieldReporter))
	assert.Equal(t, "札幌支店", get(t, base, constants.FieldAffiliation))
}

func TestRecordSetEmptyClears(t *testing.T) {
	r := NewRecord()
	r.Set(constants.FieldCause, "基板故障")
	r.Set(constants.FieldCause, "   ")
	assert.False(t, r.Has(constants.FieldCause))
}

func TestFromMapDropsUnknownKeys(t *testing.T) {
	r := FromMap(map[string]string{
		"cause":    "基板故障",
		"invented": "値",
	})
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "基板故障", get(t, r, constants.FieldCause))
}

func TestExtractLongMailStaysLinear(t *testing.T) {
	// Not a benchmark, just a sanity check that a large unlabeled body
	// passes through without capturing anything.
	text := strings.Repeat("ただのテキスト行\n", 2000)
	rec := NewExtractor(nil).Extract(text)
	assert.Equal(t, 0, rec.Len())
}
