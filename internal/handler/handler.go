package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/fluscreen/internal/diagnosis"
	"github.com/Skufu/fluscreen/internal/intake"
	"github.com/Skufu/fluscreen/internal/observability"
	"github.com/Skufu/fluscreen/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	indexTemplate = "index.html"
	maxFormMemory = 1 << 20
)

// SymptomOptions are the checkboxes offered on the intake form.
var SymptomOptions = []string{
	"fever", "cough", "sore throat", "runny nose",
	"body aches", "headache", "fatigue", "chills",
}

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).ParseFS(templateFS, "templates/*.html"))
}

type Handler struct {
	renderer *report.Renderer
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func New(renderer *report.Renderer, metrics *observability.Metrics, logger *slog.Logger) Handler {
	return Handler{
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

type pageData struct {
	Symptoms []string
	Values   map[string]string
	Checked  map[string]bool
	Errors   []intake.FieldError
	Input    *diagnosis.PatientInput
	Result   *diagnosis.RiskAssessment
}

func newPage(form url.Values) pageData {
	page := pageData{
		Symptoms: SymptomOptions,
		Values:   map[string]string{},
		Checked:  map[string]bool{},
	}
	for _, key := range []string{intake.FieldName, intake.FieldAge, intake.FieldTemperature, intake.FieldSystolic, intake.FieldDiastolic} {
		page.Values[key] = form.Get(key)
	}
	for _, s := range form[intake.FieldSymptoms] {
		page.Checked[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return page
}

// Form renders the empty intake form.
func (h Handler) Form() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, indexTemplate, newPage(url.Values{}))
	}
}

// Diagnose scores the submitted form and renders the result view under it.
func (h Handler) Diagnose() gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := postedForm(c)
		if err != nil {
			c.HTML(http.StatusBadRequest, indexTemplate, pageData{
				Symptoms: SymptomOptions,
				Errors:   []intake.FieldError{{Field: "form", Reason: "could not be read"}},
			})
			return
		}

		page := newPage(form)
		in, err := intake.ParseForm(form)
		if err != nil {
			h.rejected(c, err)
			page.Errors = fieldErrors(err)
			c.HTML(http.StatusBadRequest, indexTemplate, page)
			return
		}

		result := h.assess(in)
		page.Input = &in
		page.Result = &result
		c.HTML(http.StatusOK, indexTemplate, page)
	}
}

// Download renders the submitted form as a PDF attachment. The document is
// built in memory so a render failure never leaves a partial download.
func (h Handler) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := postedForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		in, err := intake.ParseForm(form)
		if err != nil {
			h.rejected(c, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": fieldErrors(err)})
			return
		}

		rep := report.New(in, h.assess(in), h.now())

		var buf bytes.Buffer
		if err := h.renderer.Render(&buf, rep); err != nil {
			h.metrics.ReportGenerated(observability.OutcomeError)
			h.logger.Error("report generation failed", slog.Any("report", rep), observability.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
			return
		}
		h.metrics.ReportGenerated(observability.OutcomeOK)
		h.logger.Info("report generated", slog.Any("report", rep))

		c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

// Assess is the JSON variant of Diagnose.
func (h Handler) Assess() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req intake.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		in, err := req.Input()
		if err != nil {
			h.rejected(c, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "details": fieldErrors(err)})
			return
		}

		c.JSON(http.StatusOK, h.assess(in))
	}
}

func (h Handler) assess(in diagnosis.PatientInput) diagnosis.RiskAssessment {
	result := diagnosis.Assess(in)
	h.metrics.AssessmentRecorded(string(result.RiskLevel))
	h.logger.Debug("assessment computed",
		slog.Int("risk_percent", result.RiskPercent),
		slog.String("risk_level", string(result.RiskLevel)),
	)
	return result
}

func (h Handler) rejected(c *gin.Context, err error) {
	h.metrics.InputRejected(c.FullPath())
	h.logger.Info("rejected submission", slog.String("path", c.FullPath()), observability.Err(err))
}

func postedForm(c *gin.Context) (url.Values, error) {
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return c.Request.PostForm, nil
}

func fieldErrors(err error) []intake.FieldError {
	var fe *intake.FormatError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return []intake.FieldError{{Field: "form", Reason: err.Error()}}
}
