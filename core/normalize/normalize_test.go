package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Ascii Space Between Kanji", "山田 太郎", "山田太郎"},
		{"Ideographic Space", "山田　太郎", "山田太郎"},
		{"Already Canonical", "山田太郎", "山田太郎"},
		{"Halfwidth Katakana", "ﾔﾏﾓﾄ ﾀﾛｳ", "ヤマモトタロウ"},
		{"Fullwidth Latin", "ＴＡＲＯ　ＹＡＭＡＤＡ", "taro yamada"},
		{"Bracketed Role", "山田太郎（主将）", "山田太郎"},
		{"Trailing Role Word", "山田太郎 監督", "山田太郎"},
		{"Attached Role Word", "山田太郎監督", "山田太郎"},
		{"Compound Role Kept Whole", "佐藤ヘッドコーチ", "佐藤"},
		{"Role Alone Is Kept", "監督", "監督"},
		{"Middle Dot", "鈴木・一郎", "鈴木一郎"},
		{"Halfwidth Middle Dot", "鈴木･一郎", "鈴木一郎"},
		{"Latin Periods", "J. Smith", "j smith"},
		{"Latin Honorific And Role", "Mr. John  Smith Coach", "john smith"},
		{"Honorific Only Stripped When Separate", "山田様", "山田様"},
		{"Separate Honorific", "山田 様", "山田"},
		{"Mixed Script", "Taro 山田", "taro山田"},
		{"Empty", "", ""},
		{"Whitespace Only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestString_FixedPoint(t *testing.T) {
	inputs := []string{
		"山田 太郎", "ﾔﾏﾓﾄ ﾀﾛｳ", "ＴＡＲＯ　ＹＡＭＡＤＡ", "山田太郎（主将）",
		"smith coach監督", "Mr. Mr. Dr. Who", "(監督) 鈴木・一郎 コーチ 監督",
		"A大学", "Ａ大学 バスケットボール部", "o'brien, sean", "[[nested] brackets]",
		"監督 コーチ", "  leading and trailing  ", "ÉCOLE Ｎｏ．１",
	}

	for _, in := range inputs {
		once := String(in)
		assert.Equal(t, once, String(once), "input %q", in)
	}
}

func TestString_Symmetric(t *testing.T) {
	// Applicant and registry spellings of the same person converge.
	assert.Equal(t, String("山田太郎"), String("山田 太郎"))
	assert.Equal(t, String("鈴木　一郎（副将）"), String("鈴木一郎"))
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7", "7"},
		{"07", "7"},
		{"７", "7"},
		{"#7", "7"},
		{"No. 12", "12"},
		{"背番号4", "4"},
		{"00", "0"},
		{"A12", "a12"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
			assert.Equal(t, Number(tt.in), Number(Number(tt.in)))
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2003/04/05", "2003-04-05"},
		{"2003/4/5", "2003-04-05"},
		{"2003-04-05", "2003-04-05"},
		{"2003年4月5日", "2003-04-05"},
		{"２００３／４／５", "2003-04-05"},
		{"20030405", "2003-04-05"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.in))
		})
	}
}
