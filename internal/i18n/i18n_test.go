package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHonorsQValues(t *testing.T) {
	b, err := Load("../../locales", "ko", []string{"ko", "en"})
	require.NoError(t, err)
	require.Equal(t, "en", b.Resolve("ko;q=0.8, en;q=0.9"))
	require.Equal(t, "ko", b.Resolve("ko-KR,ko;q=0.9"))
	require.Equal(t, "ko", b.Resolve("fr-FR"))
	require.Equal(t, "ko", b.Resolve(""))
}

func TestLocaleFilesShareKeys(t *testing.T) {
	b, err := Load("../../locales", "ko", []string{"ko", "en"})
	require.NoError(t, err)
	for key := range b.catalogs["ko"] {
		_, ok := b.catalogs["en"][key]
		require.True(t, ok, "en.json is missing %q", key)
	}
	for key := range b.catalogs["en"] {
		_, ok := b.catalogs["ko"][key]
		require.True(t, ok, "ko.json is missing %q", key)
	}
}

func TestTranslateFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ko.json"), []byte(`{"greet":"안녕 %s","only.ko":"한국어"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"greet":"hi %s"}`), 0o644))

	b, err := Load(dir, "ko", []string{"ko", "en"})
	require.NoError(t, err)
	require.Equal(t, "hi there", b.Tf("en", "greet", "there"))
	require.Equal(t, "한국어", b.T("en", "only.ko"))
	require.Equal(t, "missing.key", b.T("en", "missing.key"))
	require.True(t, b.IsSupported("en"))
	require.False(t, b.IsSupported("ja"))
	require.Equal(t, []string{"en", "ko"}, b.Supported())
}

func TestLoadRequiresFallback(t *testing.T) {
	_, err := Load(t.TempDir(), "ko", []string{"ko", "en"})
	require.Error(t, err)
}

func TestPlaceMessages(t *testing.T) {
	b, err := Load("../../locales", "ko", []string{"ko", "en"})
	require.NoError(t, err)
	place := Place{Province: "강원특별자치도", City: "강릉시"}

	require.Equal(t, "강원특별자치도 강릉시 - 테마별 랜덤 여행", b.In("ko", "theme.title", place))
	require.Equal(t, "Pick a random city in 강원특별자치도.", b.In("en", "city.description", Place{Province: "강원특별자치도"}))
	require.Contains(t, b.In("ko", "result.description", place), "강릉시에서")
	require.Equal(t, "nothing.here.in", b.In("ko", "nothing.here", place))
}

func TestExportLabels(t *testing.T) {
	b, err := Load("../../locales", "ko", []string{"ko", "en"})
	require.NoError(t, err)
	require.Equal(t, "여행 코스", b.ExportLabels("ko").Course)
	en := b.ExportLabels("en")
	require.Equal(t, "travel course", en.Course)
	require.Equal(t, "Theme", en.Theme)
	require.Equal(t, "Constraint", en.Constraint)
}
