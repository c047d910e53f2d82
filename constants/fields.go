package constants

// Field is the canonical key for one attribute of an incident record.
// The vocabulary is closed: unrecognized surface labels are never promoted
// to new keys.
type Field string

const (
	FieldManagementNo    Field = "management_no"
	FieldSiteName        Field = "site_name"
	FieldAddress         Field = "address"
	FieldContactCompany  Field = "contact_company"
	FieldManufacturer    Field = "manufacturer"
	FieldControlType     Field = "control_type"
	FieldContractType    Field = "contract_type"
	FieldReceivedAt      Field = "received_at"
	FieldReporter        Field = "reporter"
	FieldArrivedAt       Field = "arrived_at"
	FieldCompletedAt     Field = "completed_at"
	FieldResponder       Field = "responder"
	FieldSender          Field = "sender"
	FieldReceptionNo     Field = "reception_no"
	FieldReceptionURL    Field = "reception_url"
	FieldRegistrationURL Field = "registration_url"
	FieldReceivedContent Field = "received_content"
	FieldArrivalStatus   Field = "arrival_status"
	FieldCause           Field = "cause"
	FieldRemedy          Field = "remedy"
	FieldSubject         Field = "subject"

	// Derived during extraction, no surface label of their own.
	FieldCaseType    Field = "case_type"
	FieldWorkMinutes Field = "work_minutes"

	// Caller-supplied before projection, never parsed from the mail body.
	FieldAffiliation Field = "affiliation"
	FieldPostRepair  Field = "post_repair"
)

// Kind classifies how a field's value is captured.
type Kind int

const (
	KindSingle Kind = iota // value is the remainder of the label line
	KindMulti              // value spans lines until the next recognized label
	KindURL                // value is a URL on the label line or the next line
)

var allFields = []Field{
	FieldManagementNo,
	FieldSiteName,
	FieldAddress,
	FieldContactCompany,
	FieldManufacturer,
	FieldControlType,
	FieldContractType,
	FieldReceivedAt,
	FieldReporter,
	FieldArrivedAt,
	FieldCompletedAt,
	FieldResponder,
	FieldSender,
	FieldReceptionNo,
	FieldReceptionURL,
	FieldRegistrationURL,
	FieldReceivedContent,
	FieldArrivalStatus,
	FieldCause,
	FieldRemedy,
	FieldSubject,
	FieldCaseType,
	FieldWorkMinutes,
	FieldAffiliation,
	FieldPostRepair,
}

var fieldKinds = map[Field]Kind{
	FieldReceivedContent: KindMulti,
	FieldArrivalStatus:   KindMulti,
	FieldCause:           KindMulti,
	FieldRemedy:          KindMulti,
	FieldReceptionURL:    KindURL,
	FieldRegistrationURL: KindURL,
}

// labelSynonyms maps surface label text (after normalization) to the
// canonical key. Multiple spellings of the same label collapse here.
var labelSynonyms = map[string]Field{
	"管理番号":        FieldManagementNo,
	"物件名":         FieldSiteName,
	"物件":          FieldSiteName,
	"住所":          FieldAddress,
	"窓口":          FieldContactCompany,
	"窓口会社":        FieldContactCompany,
	"メーカー":        FieldManufacturer,
	"メーカ":         FieldManufacturer,
	"制御方式":        FieldControlType,
	"契約種別":        FieldContractType,
	"受信時刻":        FieldReceivedAt,
	"受信日時":        FieldReceivedAt,
	"通報者":         FieldReporter,
	"現着時刻":        FieldArrivedAt,
	"現着日時":        FieldArrivedAt,
	"完了時刻":        FieldCompletedAt,
	"完了日時":        FieldCompletedAt,
	"対応者":         FieldResponder,
	"送信者":         FieldSender,
	"受付番号":        FieldReceptionNo,
	"詳細はこちら":      FieldReceptionURL,
	"受付URL":       FieldReceptionURL,
	"現着・完了登録はこちら": FieldRegistrationURL,
	"現着完了登録URL":   FieldRegistrationURL,
	"受信内容":        FieldReceivedContent,
	"現着状況":        FieldArrivalStatus,
	"原因":          FieldCause,
	"処置内容":        FieldRemedy,
	"件名":          FieldSubject,
}

// AllFields returns the full canonical vocabulary.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// FieldKind returns how a field's value is captured. Fields without an
// explicit entry are single-line.
func FieldKind(f Field) Kind {
	if k, ok := fieldKinds[f]; ok {
		return k
	}
	return KindSingle
}

// CanonicalizeLabel resolves a surface label token to its canonical key.
func CanonicalizeLabel(token string) (Field, bool) {
	f, ok := labelSynonyms[token]
	return f, ok
}

// IsKnown reports whether f belongs to the closed vocabulary.
func IsKnown(f Field) bool {
	for _, k := range allFields {
		if k == f {
			return true
		}
	}
	return false
}
