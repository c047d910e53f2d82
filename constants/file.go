package constants

import "strings"

// TemplateSheetName is the sheet the projector writes into; the active
// sheet is used when the template lacks it.
const TemplateSheetName = "緊急出動報告書（リンク付き）"

// ReportExtension is the fixed extension of generated artifacts.
const ReportExtension = ".xlsm"

// AllowedMailExtensions holds the file extensions the inbox watcher treats
// as incident mail bodies.
var AllowedMailExtensions = map[string]struct{}{
	"txt": {},
	"eml": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
