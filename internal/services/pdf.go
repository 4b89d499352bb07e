package services

import (
	"bytes"
	"strconv"
	"time"

	"codeberg.org/go-pdf/fpdf"
)

type pdfColumn struct {
	title string
	width float64
	value func(v ResponseView) string
}

var pdfColumns = []pdfColumn{
	{"Survey", 55, func(v ResponseView) string { return v.Survey.Title }},
	{"Customer", 45, func(v ResponseView) string { return v.Customer.Name }},
	{"Email", 50, func(v ResponseView) string { return v.Customer.Email }},
	{"Date", 32, func(v ResponseView) string {
		if v.CreatedAt.IsZero() {
			return ""
		}
		return v.CreatedAt.UTC().Format("2006-01-02 15:04")
	}},
	{"Answers", 18, func(v ResponseView) string { return strconv.Itoa(len(v.Answers)) }},
	{"Points", 18, func(v ResponseView) string { return strconv.Itoa(v.RewardPoints) }},
	{"Status", 24, func(v ResponseView) string { return v.PointsStatus() }},
}

// ExportResponsesPDF renders a landscape A4 table of responses with the
// core Helvetica font; text outside cp1252 is replaced by the translator.
func ExportResponsesPDF(views []ResponseView, at time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Responses", true)
	pdf.SetCreator("echoform", true)
	pdf.SetCreationDate(at.UTC())
	pdf.SetAutoPageBreak(true, 12)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(37, 99, 235)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, tr(c.title), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.SetTextColor(15, 23, 42)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Survey responses"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(at.UTC().Format("2006-01-02 15:04 MST")+"  |  "+strconv.Itoa(len(views))+" responses"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, v := range views {
		if pdf.GetY()+6 > pageH-bottom-12 {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(241, 245, 249)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, fitText(pdf, tr(c.value(v)), c.width-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitText trims s with an ellipsis until it fits width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
