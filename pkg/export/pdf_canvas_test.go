package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFCanvasRendersPages(t *testing.T) {
	canvas := NewPDFCanvas("A4", "Bulletin")
	w, h := canvas.PageSize()
	assert.InDelta(t, 210.0, w, 0.01)
	assert.InDelta(t, 297.0, h, 0.01)

	canvas.AddPage()
	canvas.FillRect(10, 10, 50, 8, Color{R: 20, G: 40, B: 90})
	canvas.Text(10, 10, 50, 8, "Élève : Awa DIALLO", TextStyle{Bold: true, Size: 11, Align: AlignCenter})
	require.NoError(t, canvas.QRCode("https://example.test/verify?code=abc", 150, 240, 30))
	canvas.AddPage()
	assert.Equal(t, 2, canvas.PageNo())

	out, err := canvas.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFCanvasImageFailureIsRecoverable(t *testing.T) {
	canvas := NewPDFCanvas("Letter", "")
	canvas.AddPage()
	err := canvas.Image("photo", "jpg", []byte("not a jpeg"), 10, 10, 30, 40)
	require.Error(t, err)

	canvas.Text(10, 60, 80, 6, "still rendering", TextStyle{})
	_, err = canvas.Bytes()
	require.NoError(t, err)
}

func TestPDFCanvasTextWidth(t *testing.T) {
	canvas := NewPDFCanvas("A4", "")
	canvas.AddPage()
	short := canvas.TextWidth("Math", TextStyle{Size: 10})
	long := canvas.TextWidth("Mathématiques appliquées", TextStyle{Size: 10})
	assert.Greater(t, long, short)
}
