package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/facilisimo/sorteos/internal/assets"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// Slogan is printed in the footer of every page
const Slogan = "Sorteos FaciFacilísimo - ¡Tu sorteo, fácil y transparente!"

var (
	ErrNotReady    = errors.New("export images are not loaded")
	ErrEmptyReport = errors.New("report has no winners")
)

// ImageSource provides the export images and tells whether they are loaded
type ImageSource interface {
	Ready() bool
	Set() assets.Set
}

type rgb struct{ r, g, b int }

var (
	brandYellow = rgb{255, 221, 51}
	brandDark   = rgb{33, 37, 41}
	zebraGrey   = rgb{245, 245, 245}
)

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"#", 12, "CM"},
	{"Usuario", 40, "LM"},
	{"Comentario", 80, "LM"},
	{"Plataforma", 30, "CM"},
}

const (
	pageWidth    = 210.0
	headerHeight = 40.0
	footerHeight = 20.0
	tableTop     = 50.0
	marginLeft   = 10.0
	cellPadding  = 4.0
	lineHeight   = 4.5
	fontFamily   = "Helvetica"
)

// PDFExporter renders a winners report as an A4 document
type PDFExporter struct {
	images ImageSource
}

// NewPDFExporter creates an exporter drawing the given images
func NewPDFExporter(images ImageSource) *PDFExporter {
	return &PDFExporter{images: images}
}

// Write renders report into w
func (e *PDFExporter) Write(w io.Writer, report *models.WinnersReport) error {
	if !e.images.Ready() {
		return ErrNotReady
	}
	if report == nil || len(report.Winners) == 0 {
		return ErrEmptyReport
	}

	set := e.images.Set()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, tableTop, marginLeft)
	pdf.SetAutoPageBreak(false, 0)

	logo := register(pdf, set.Logo)
	watermark := register(pdf, set.Watermark)
	footerLogo := register(pdf, set.FooterLogo)

	_, pageHeight := pdf.GetPageSize()

	pdf.SetHeaderFunc(func() {
		if watermark != "" {
			pdf.SetAlpha(0.15, "Normal")
			imgWidth, imgHeight := pageWidth*1.5, pageHeight*0.7
			pdf.ImageOptions(watermark, (pageWidth-imgWidth)/2, (pageHeight-imgHeight)/2, imgWidth, imgHeight,
				false, gofpdf.ImageOptions{AllowNegativePosition: true}, 0, "")
			pdf.SetAlpha(1, "Normal")
		}
	})

	pdf.SetFooterFunc(func() {
		fill(pdf, brandDark)
		pdf.Rect(0, pageHeight-footerHeight, pageWidth, footerHeight, "F")
		if footerLogo != "" {
			pdf.ImageOptions(footerLogo, 10, pageHeight-18, 12, 12, false, gofpdf.ImageOptions{}, 0, "")
		}
		pdf.SetFont(fontFamily, "", 12)
		text(pdf, brandYellow)
		pdf.Text(25, pageHeight-8, latin1(Slogan))
	})

	pdf.AddPage()

	fill(pdf, brandYellow)
	pdf.Rect(0, 0, pageWidth, headerHeight, "F")
	if logo != "" {
		pdf.ImageOptions(logo, 5, 8, 60, 25, false, gofpdf.ImageOptions{}, 0, "")
	}
	text(pdf, brandDark)
	pdf.SetFont(fontFamily, "", 25)
	pdf.Text(70, 20, latin1(report.Title))
	pdf.SetFont(fontFamily, "", 12)
	pdf.Text(70, 35, latin1(DateLine(report.GeneratedAt)))

	pdf.SetXY(marginLeft, tableTop)
	tableHead(pdf)

	bottom := pageHeight - footerHeight - 5
	for i, row := range Rows(report.Winners) {
		cells := []string{
			fmt.Sprintf("%d", row.Index),
			latin1(row.Username),
			latin1(row.Comment),
			row.Platform,
		}
		tableRow(pdf, cells, i%2 == 1, bottom)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}

	logrus.Infof("Exported %d winners to PDF (%d pages)", len(report.Winners), pdf.PageNo())
	return nil
}

// Render returns the PDF as bytes, for attachments
func (e *PDFExporter) Render(report *models.WinnersReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func register(pdf *gofpdf.Fpdf, img *assets.Image) string {
	if img == nil {
		return ""
	}
	pdf.RegisterImageOptionsReader(img.Name, gofpdf.ImageOptions{ImageType: img.Type}, bytes.NewReader(img.Data))
	if pdf.Err() {
		logrus.Warnf("Skipping %s image: %v", img.Name, pdf.Error())
		pdf.ClearError()
		return ""
	}
	return img.Name
}

func tableHead(pdf *gofpdf.Fpdf) {
	fill(pdf, brandDark)
	text(pdf, brandYellow)
	pdf.SetFont(fontFamily, "B", 10)
	for _, col := range columns {
		pdf.CellFormat(col.width, lineHeight+2*cellPadding, col.title, "", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetX(marginLeft)
}

func tableRow(pdf *gofpdf.Fpdf, cells []string, zebra bool, bottom float64) {
	pdf.SetFont(fontFamily, "", 10)

	lines := make([][]string, len(cells))
	maxLines := 1
	for i, cell := range cells {
		for _, line := range pdf.SplitLines([]byte(cell), columns[i].width-2*cellPadding) {
			lines[i] = append(lines[i], string(line))
		}
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	height := float64(maxLines)*lineHeight + 2*cellPadding

	if pdf.GetY()+height > bottom {
		pdf.AddPage()
		pdf.SetXY(marginLeft, 15)
		tableHead(pdf)
		pdf.SetFont(fontFamily, "", 10)
	}

	x, y := marginLeft, pdf.GetY()
	text(pdf, brandDark)
	for i, col := range columns {
		if zebra {
			fill(pdf, zebraGrey)
			pdf.Rect(x, y, col.width, height, "F")
		}
		for j, line := range lines[i] {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(col.width-2*cellPadding, lineHeight, line, "", 0, col.align, false, 0, "")
		}
		x += col.width
	}
	pdf.SetXY(marginLeft, y+height)
}

func fill(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}

func text(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

// latin1 encodes s as Windows-1252, the encoding of the core PDF fonts.
// Characters outside it become "?".
func latin1(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}
