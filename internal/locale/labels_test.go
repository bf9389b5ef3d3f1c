package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-records-api/internal/models"
)

func TestLabelsCoverEveryVariant(t *testing.T) {
	for _, lang := range []models.Language{models.LanguageFR, models.LanguageEN} {
		l := For(lang)
		for _, d := range []models.Decision{models.DecisionPassed, models.DecisionRepeat, models.DecisionTransferred} {
			assert.NotEqual(t, string(d), l.DecisionLabel(d), "lang %s decision %s", lang, d)
		}
		for _, m := range []models.Mention{models.MentionExcellent, models.MentionGood, models.MentionFairlyGood, models.MentionPass, models.MentionInsufficient} {
			assert.NotEmpty(t, l.Mentions[m], "lang %s mention %s", lang, m)
		}
		assert.Len(t, l.Fields, len(For(models.LanguageFR).Fields))
	}
}

func TestLabelsFallback(t *testing.T) {
	assert.Equal(t, "RELEVÉ DE NOTES", For("de").Title(models.DocumentTranscript))
	assert.Equal(t, "REPORT CARD", For(models.LanguageEN).Title(models.DocumentBulletin))
	assert.Equal(t, "UNKNOWN", For(models.LanguageEN).DecisionLabel("UNKNOWN"))
}
