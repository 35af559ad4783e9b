package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledLocalesShareKeys(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
	assert.Equal(t, "Please connect your wallet first", T("en", KeyWalletRequired))
	assert.Equal(t, "請先連接您的錢包", T("zh_TW", KeyWalletRequired))

	en := instance.translations["en"]
	zh := instance.translations["zh_TW"]
	for key := range en {
		assert.Contains(t, zh, key, "zh_TW is missing %s", key)
	}
}

func TestFallbackAndArgs(t *testing.T) {
	tr := New("en")
	fsys := fstest.MapFS{
		"l/en.json":    {Data: []byte(`{"greet":"Hello %s","only_en":"English"}`)},
		"l/fr.json":    {Data: []byte(`{"greet":"Bonjour %s"}`)},
		"l/README.txt": {Data: []byte("ignored")},
	}
	require.NoError(t, tr.LoadTranslations(fsys, "l"))

	assert.Equal(t, "Bonjour Ada", tr.T("fr", "greet", "Ada"))
	assert.Equal(t, "English", tr.T("fr", "only_en"))
	assert.Equal(t, "missing.key", tr.T("fr", "missing.key"))
	assert.Equal(t, []string{"en", "fr"}, tr.Languages())
}

func TestLoadTranslationsRejectsBadJSON(t *testing.T) {
	tr := New("en")
	fsys := fstest.MapFS{"l/en.json": {Data: []byte(`{`)}}
	assert.Error(t, tr.LoadTranslations(fsys, "l"))
}
