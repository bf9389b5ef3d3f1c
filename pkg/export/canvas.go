package export

// Align is a horizontal text alignment inside a cell.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Color is an RGB triple in the 0-255 range.
type Color struct {
	R, G, B int
}

// TextStyle describes how a text cell is drawn.
type TextStyle struct {
	Family string
	Bold   bool
	Italic bool
	Size   float64
	Color  Color
	Align  Align
}

// Canvas is a fixed-size page surface. Coordinates are millimetres from the
// top-left corner of the current page.
type Canvas interface {
	PageSize() (width, height float64)
	AddPage()
	PageNo() int
	Text(x, y, w, h float64, text string, style TextStyle)
	TextWidth(text string, style TextStyle) float64
	FillRect(x, y, w, h float64, fill Color)
	Image(name, imageType string, data []byte, x, y, w, h float64) error
	QRCode(payload string, x, y, size float64) error
	Bytes() ([]byte, error)
}
