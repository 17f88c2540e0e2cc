package tesseract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageCodes(t *testing.T) {
	assert.Equal(t, []string{"eng", "kor"}, LanguageCodes([]string{"eng", " ko ", "kor", ""}))
	assert.Equal(t, []string{"chi_sim", "deu"}, LanguageCodes([]string{"ch_sim", "DEU"}))
	assert.Nil(t, LanguageCodes(nil))
}
