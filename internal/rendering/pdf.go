package rendering

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jonathan/interview-prep/internal/types"
)

// Page geometry in points; 54pt is 0.75in.
const (
	margin     = 54.0
	lineHeight = 14.0
)

type style struct {
	size  float64
	font  string
	color [3]int
	line  float64
	after float64
}

var styles = map[BlockKind]style{
	BlockTitle:    {size: 18, font: "B", color: [3]int{17, 17, 17}, line: 22},
	BlockHeading:  {size: 13, font: "B", color: [3]int{17, 17, 17}, line: 16, after: 6},
	BlockQuestion: {size: 11, font: "B", color: [3]int{0, 0, 0}, line: 14, after: 4},
	BlockTags:     {size: 10, font: "I", color: [3]int{68, 68, 68}, line: 14},
	BlockMeta:     {size: 10, font: "", color: [3]int{68, 68, 68}, line: 14},
	BlockBody:     {size: 10, font: "", color: [3]int{34, 34, 34}, line: 14, after: 8},
}

// PackRenderer draws packs with fpdf on US Letter pages.
type PackRenderer struct {
	Now func() time.Time
}

// NewPackRenderer returns a renderer stamped with the current time.
func NewPackRenderer() *PackRenderer {
	return &PackRenderer{Now: time.Now}
}

// Render writes the pack for set to path, creating parent directories.
func (r *PackRenderer) Render(set *types.QASet, name, email, path string) error {
	return r.writeFile(path, PackData{Set: set, CandidateName: name, CandidateEmail: email, Generated: r.now()})
}

// RenderRound writes the pack restricted to one round.
func (r *PackRenderer) RenderRound(set *types.QASet, round, name, email, path string) error {
	if set == nil {
		return &RenderError{Path: path, Message: "no question set"}
	}
	return r.writeFile(path, PackData{Set: ForRound(set, round), CandidateName: name, CandidateEmail: email, Generated: r.now()})
}

// Write draws the pack to w.
func (r *PackRenderer) Write(w io.Writer, data PackData) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(PackTitle, true)
	pdf.SetCreator("interview_prep", true)
	if !data.Generated.IsZero() {
		pdf.SetCreationDate(data.Generated)
		pdf.SetModificationDate(data.Generated)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	textWidth := width - 2*margin

	for _, b := range Layout(data) {
		switch b.Kind {
		case BlockSpacer:
			pdf.Ln(lineHeight)
			continue
		case BlockPageBreak:
			pdf.AddPage()
			continue
		}

		st := styles[b.Kind]
		pdf.SetTextColor(st.color[0], st.color[1], st.color[2])
		if b.Label != "" {
			pdf.SetFont("Helvetica", "B", st.size)
			label := tr(NormalizeText(b.Label)) + " "
			pdf.Write(st.line, label)
			pdf.SetFont("Helvetica", st.font, st.size)
			pdf.Write(st.line, tr(NormalizeText(b.Text)))
			pdf.Ln(st.line)
		} else {
			pdf.SetFont("Helvetica", st.font, st.size)
			pdf.MultiCell(textWidth, st.line, tr(NormalizeText(b.Text)), "", "L", false)
		}
		if st.after > 0 {
			pdf.Ln(st.after)
		}
	}

	if err := pdf.Error(); err != nil {
		return &RenderError{Message: "failed to lay out pack", Cause: err}
	}
	if err := pdf.Output(w); err != nil {
		return &RenderError{Message: "failed to write pack", Cause: err}
	}
	return nil
}

func (r *PackRenderer) writeFile(path string, data PackData) error {
	var buf bytes.Buffer
	if err := r.Write(&buf, data); err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			re.Path = path
		}
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &RenderError{Path: path, Message: "failed to create output directory", Cause: err}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &RenderError{Path: path, Message: fmt.Sprintf("failed to write %s", filepath.Base(path)), Cause: err}
	}
	return nil
}

func (r *PackRenderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
