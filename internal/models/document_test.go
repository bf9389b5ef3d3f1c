package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOptionsNormalizeDefaults(t *testing.T) {
	opts, err := RenderOptions{}.Normalize(LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, LanguageEN, opts.Language)
	assert.Equal(t, PageA4, opts.PageFormat)
	assert.Equal(t, SchemeOfficial, opts.ColorScheme)
}

func TestRenderOptionsNormalizeCase(t *testing.T) {
	opts, err := RenderOptions{Language: "FR", PageFormat: "letter", ColorScheme: "modern"}.Normalize(LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, LanguageFR, opts.Language)
	assert.Equal(t, PageLetter, opts.PageFormat)
	assert.Equal(t, SchemeModern, opts.ColorScheme)
}

func TestRenderOptionsRejectUnknownValues(t *testing.T) {
	_, err := RenderOptions{ColorScheme: "neon"}.Normalize(LanguageFR)
	require.Error(t, err)
	_, err = RenderOptions{Language: "de"}.Normalize(LanguageFR)
	require.Error(t, err)
	_, err = RenderOptions{PageFormat: "A3"}.Normalize(LanguageFR)
	require.Error(t, err)
}

func TestDecisionValid(t *testing.T) {
	assert.True(t, DecisionPassed.Valid())
	assert.True(t, DecisionTransferred.Valid())
	assert.False(t, Decision("EXPELLED").Valid())
	assert.False(t, Decision("").Valid())
}

func TestStudentFullName(t *testing.T) {
	s := StudentIdentity{FirstName: "Awa", LastName: "Diallo"}
	assert.Equal(t, "Awa DIALLO", s.FullName())
}
