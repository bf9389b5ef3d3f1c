package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

func twoPagePDF(t *testing.T) []byte {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "page one")
	pdf.AddPage()
	pdf.Cell(40, 10, "page two")
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestDocumentIndexRefreshIsExplicit(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	index := NewDocumentIndex(store, nil)

	_, err = store.Save("bulletin.pdf", twoPagePDF(t))
	require.NoError(t, err)
	require.Empty(t, index.List(), "nothing is scanned before Refresh")
	require.True(t, index.RefreshedAt().IsZero())

	count, err := index.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	entries := index.List()
	require.Len(t, entries, 1)
	require.Equal(t, "bulletin.pdf", entries[0].Name)
	require.NotNil(t, entries[0].Pages)
	require.Equal(t, 2, *entries[0].Pages)
	require.False(t, index.RefreshedAt().IsZero())

	_, err = store.Save("notes.csv", []byte("a,b\n"))
	require.NoError(t, err)
	_, err = store.Save("broken.pdf", []byte("not a pdf"))
	require.NoError(t, err)
	require.Len(t, index.List(), 1)

	count, err = index.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
	for _, e := range index.List() {
		if e.Name != "bulletin.pdf" {
			require.Nil(t, e.Pages, e.Name)
		}
	}
}

func TestDocumentIndexRefreshHonoursContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("a.csv", []byte("x"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDocumentIndex(store, nil).Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
