// Package report renders a diagnosis as a downloadable PDF.
package report

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/Skufu/fluscreen/internal/diagnosis"
)

const (
	Title      = "AI-Based Seasonal Flu Diagnostic Report"
	Disclaimer = "For academic demonstration purposes only."
	// Filename is the attachment name offered to the browser.
	Filename = "Flu_Report.pdf"

	dateLayout = "2006-01-02 15:04:05"
	logoSizeMM = 28.0
	lineHeight = 6.0
)

// textFamily is registered from the embedded TrueType file and used for
// values the user typed.
const textFamily = "DejaVu"

//go:embed fonts/DejaVuSansCondensed.ttf
var textFont []byte

var ErrRender = errors.New("render report")

// Report is everything printed on one PDF.
type Report struct {
	ID          string
	GeneratedAt time.Time
	PatientName string
	Age         int
	Assessment  diagnosis.RiskAssessment
}

// New stamps an assessment with a fresh identifier and timestamp.
func New(in diagnosis.PatientInput, a diagnosis.RiskAssessment, now time.Time) Report {
	return Report{
		ID:          NewID(),
		GeneratedAt: now,
		PatientName: in.Name,
		Age:         in.Age,
		Assessment:  a,
	}
}

// LogValue groups the fields worth logging for a report. The service logger
// redacts patient_name unless told otherwise.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", r.ID),
		slog.String("patient_name", r.PatientName),
		slog.String("risk_level", string(r.Assessment.RiskLevel)),
		slog.Int("risk_percent", r.Assessment.RiskPercent),
	)
}

// NewID returns 8 random lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Renderer writes reports as A4 PDFs. Logo names an optional header image.
// A relative Logo is looked up in SearchDirs on every render, so an image
// added after startup is picked up; a missing file is skipped.
type Renderer struct {
	Logo       string
	SearchDirs []string
}

func NewRenderer(logo string, searchDirs ...string) *Renderer {
	return &Renderer{Logo: logo, SearchDirs: searchDirs}
}

func (r *Renderer) Render(w io.Writer, rep Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// keep text searchable in the raw file
	pdf.SetCompression(false)
	pdf.SetTitle(Title, false)
	pdf.SetCreator("fluscreen", false)
	pdf.SetCreationDate(rep.GeneratedAt)
	pdf.SetXmpMetadata(xmpPacket(rep))
	// free text typed by the user needs more than cp1252
	pdf.AddUTF8FontFromBytes(textFamily, "", textFont)
	pdf.AddPage()

	if logo := r.LogoPath(); logo != "" {
		pdf.ImageOptions(logo, 10, 10, logoSizeMM, logoSizeMM, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	field := func(label, family, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(pdf.GetStringWidth(label+" ")+1, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFont(family, "", 11)
		pdf.CellFormat(0, lineHeight, value, "", 1, "L", false, 0, "")
	}

	a := rep.Assessment
	field("Report ID:", "Helvetica", rep.ID)
	field("Date:", "Helvetica", rep.GeneratedAt.Format(dateLayout))
	pdf.Ln(4)
	field("Patient Name:", textFamily, rep.PatientName)
	field("Age:", "Helvetica", strconv.Itoa(rep.Age))
	field("Temperature Status:", "Helvetica", a.TemperatureStatus.Label())
	field("Blood Pressure Status:", "Helvetica", a.BloodPressureStatus.Label())
	field("Risk Level:", "Helvetica", a.RiskLevel.Label())
	field("Risk Probability:", "Helvetica", fmt.Sprintf("%d%%", a.RiskPercent))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Recommended Medication:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, m := range a.RecommendedMedications {
		pdf.CellFormat(0, lineHeight, "- "+m, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, lineHeight, Disclaimer, "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w %s: %w", ErrRender, rep.ID, err)
	}
	return nil
}

// LogoPath returns the first existing regular file for Logo, or "" when
// there is none.
func (r *Renderer) LogoPath() string {
	if r.Logo == "" {
		return ""
	}
	if filepath.IsAbs(r.Logo) || len(r.SearchDirs) == 0 {
		if isRegularFile(r.Logo) {
			return r.Logo
		}
		return ""
	}
	for _, dir := range r.SearchDirs {
		path := filepath.Join(dir, r.Logo)
		if isRegularFile(path) {
			return path
		}
	}
	return ""
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

var xmpEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// xmpPacket carries the report fields as UTF-8 so that tools which cannot
// decode embedded font text can still index the document.
func xmpPacket(rep Report) []byte {
	var b strings.Builder
	b.WriteString("<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">` + "\n")
	b.WriteString(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` + "\n")
	b.WriteString(`<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:flu="urn:fluscreen:report:1">` + "\n")
	fmt.Fprintf(&b, "<dc:title>%s</dc:title>\n", xmpEscaper.Replace(Title))
	fmt.Fprintf(&b, "<flu:reportId>%s</flu:reportId>\n", xmpEscaper.Replace(rep.ID))
	fmt.Fprintf(&b, "<flu:generatedAt>%s</flu:generatedAt>\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "<flu:patientName>%s</flu:patientName>\n", xmpEscaper.Replace(rep.PatientName))
	fmt.Fprintf(&b, "<flu:age>%d</flu:age>\n", rep.Age)
	fmt.Fprintf(&b, "<flu:riskLevel>%s</flu:riskLevel>\n", rep.Assessment.RiskLevel.Label())
	fmt.Fprintf(&b, "<flu:riskPercent>%d</flu:riskPercent>\n", rep.Assessment.RiskPercent)
	b.WriteString("</rdf:Description>\n</rdf:RDF>\n</x:xmpmeta>\n")
	b.WriteString(`<?xpacket end="w"?>`)
	return []byte(b.String())
}
