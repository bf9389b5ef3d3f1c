package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/barcode"
)

// PDFCanvas renders Canvas operations into a PDF document.
type PDFCanvas struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	width     float64
	height    float64
}

// NewPDFCanvas builds a portrait canvas for the gofpdf size name ("A4", "Letter").
// Page breaks are driven by the caller, so automatic breaking is disabled.
func NewPDFCanvas(size, title string) *PDFCanvas {
	pdf := gofpdf.New("P", "mm", size, "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("sma-records-api", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	w, h := pdf.GetPageSize()
	return &PDFCanvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		width:     w,
		height:    h,
	}
}

// PageSize implements Canvas.
func (c *PDFCanvas) PageSize() (float64, float64) {
	return c.width, c.height
}

// AddPage implements Canvas.
func (c *PDFCanvas) AddPage() {
	c.pdf.AddPage()
}

// PageNo implements Canvas.
func (c *PDFCanvas) PageNo() int {
	return c.pdf.PageNo()
}

// Text implements Canvas.
func (c *PDFCanvas) Text(x, y, w, h float64, text string, style TextStyle) {
	c.applyFont(style)
	c.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.translate(text), "", 0, alignString(style.Align), false, 0, "")
}

// TextWidth implements Canvas.
func (c *PDFCanvas) TextWidth(text string, style TextStyle) float64 {
	c.applyFont(style)
	return c.pdf.GetStringWidth(c.translate(text))
}

// FillRect implements Canvas.
func (c *PDFCanvas) FillRect(x, y, w, h float64, fill Color) {
	c.pdf.SetFillColor(fill.R, fill.G, fill.B)
	c.pdf.Rect(x, y, w, h, "F")
}

// Image implements Canvas. A failed registration is reported and cleared so
// the document can continue without the image.
func (c *PDFCanvas) Image(name, imageType string, data []byte, x, y, w, h float64) error {
	if len(data) == 0 {
		return fmt.Errorf("image %s: empty data", name)
	}
	opts := gofpdf.ImageOptions{ImageType: strings.ToUpper(imageType), ReadDpi: false}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return fmt.Errorf("register image %s: %w", name, err)
	}
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return fmt.Errorf("place image %s: %w", name, err)
	}
	return nil
}

// QRCode implements Canvas.
func (c *PDFCanvas) QRCode(payload string, x, y, size float64) error {
	if payload == "" {
		return fmt.Errorf("qr payload required")
	}
	key := barcode.RegisterQR(c.pdf, payload, qr.M, qr.Auto)
	barcode.Barcode(c.pdf, key, x, y, size, size, false)
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}
	return nil
}

// Bytes implements Canvas.
func (c *PDFCanvas) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := c.pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *PDFCanvas) applyFont(style TextStyle) {
	family := style.Family
	if family == "" {
		family = "Helvetica"
	}
	fontStyle := ""
	if style.Bold {
		fontStyle += "B"
	}
	if style.Italic {
		fontStyle += "I"
	}
	size := style.Size
	if size <= 0 {
		size = 10
	}
	c.pdf.SetFont(family, fontStyle, size)
}

func alignString(a Align) string {
	switch a {
	case AlignCenter:
		return "CM"
	case AlignRight:
		return "RM"
	default:
		return "LM"
	}
}
