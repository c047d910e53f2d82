package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "full-width colon",
			input: "管理番号：HK-001",
			want:  "管理番号:HK-001",
		},
		{
			name:  "full-width digits and letters",
			input: "受付番号:１２３４５６",
			want:  "受付番号:123456",
		},
		{
			name:  "tab to space",
			input: "住所:\t札幌市中央区",
			want:  "住所: 札幌市中央区",
		},
		{
			name:  "crlf and cr to lf",
			input: "原因:\r\n基板故障\rリレー不良",
			want:  "原因:\n基板故障\nリレー不良",
		},
		{
			name:  "half-width katakana folded",
			input: "ﾒｰｶｰ:東芝",
			want:  "メーカー:東芝",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}
