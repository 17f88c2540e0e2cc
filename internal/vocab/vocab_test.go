package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessBrand(t *testing.T) {
	v := Default()
	cases := []struct {
		digits string
		want   string
	}{
		{"4111111111111111", "Visa"},
		{"4222222222222", "Visa"},
		{"378282246310005", "American Express"},
		{"5555555555554444", "Mastercard"},
		{"2221000000000009", "Mastercard"},
		{"6011111111111117", "Discover"},
		{"6445644564456445", "Discover"},
		{"6221260000000000", "Discover"},
		{"41111111111111", UnknownBrand},
		{"9999999999999999", UnknownBrand},
		{"", UnknownBrand},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, v.GuessBrand(tc.digits), tc.digits)
	}
}

func TestIsBrandText(t *testing.T) {
	v := Default()
	assert.True(t, v.IsBrandText("VISA"))
	assert.True(t, v.IsBrandText("world elite"))
	assert.True(t, v.IsBrandText("American  Express"))
	assert.True(t, v.IsBrandText("UnionPay"))
	assert.False(t, v.IsBrandText("JOHN DOE"))
	assert.False(t, v.IsBrandText(""))
}

func TestIsStopword(t *testing.T) {
	v := Default()
	assert.True(t, v.IsStopword("valid"))
	assert.True(t, v.IsStopword("THRU"))
	assert.False(t, v.IsStopword("JOHN"))
}

func TestLoadOverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	data := []byte(`
brand_words: [ACME]
brand_rules:
  - name: Acme Pay
    lengths: [16]
    prefixes:
      - {from: "99", to: "99"}
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.True(t, v.IsBrandText("acme"))
	assert.False(t, v.IsBrandText("PLATINUM"))
	assert.True(t, v.IsBrandText("VISA"), "phrases fall back to defaults")
	assert.Equal(t, "Acme Pay", v.GuessBrand("9912345678901234"))
	assert.Equal(t, UnknownBrand, v.GuessBrand("4111111111111111"))
}

func TestParseRejectsBadTables(t *testing.T) {
	_, err := Parse([]byte("brand_phrases: ['(unclosed']"))
	assert.Error(t, err)

	_, err = Parse([]byte(`
brand_rules:
  - name: Broken
    prefixes: [{from: "4", to: "49"}]
`))
	assert.Error(t, err)
}
