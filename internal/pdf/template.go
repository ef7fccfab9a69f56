package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// BuildTemplate renders the static artwork of layout with gofpdf and adds
// the AcroForm fields on top of it.
func BuildTemplate(layout *Layout) ([]byte, error) {
	art, err := drawArtwork(layout)
	if err != nil {
		return nil, err
	}
	ctx, err := readDocument(art)
	if err != nil {
		return nil, err
	}
	if err := addFormFields(ctx.XRefTable, layout); err != nil {
		return nil, err
	}
	return writeDocument(ctx)
}

func drawArtwork(layout *Layout) ([]byte, error) {
	pageH := layout.Page.Height
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: layout.Page.Width, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("billdesk", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, b := range layout.Boxes {
		x, y, w, h := b.Rect[0], b.Rect[1], b.Rect[2], b.Rect[3]
		r, g, bl := rgb(b.Fill, 255)
		pdf.SetFillColor(r, g, bl)
		pdf.Rect(x, pageH-(y+h), w, h, "F")
	}
	for _, rule := range layout.Rules {
		r, g, bl := rgb(rule.Color, 0)
		pdf.SetDrawColor(r, g, bl)
		pdf.SetLineWidth(rule.Width)
		pdf.Line(rule.From[0], pageH-rule.From[1], rule.To[0], pageH-rule.To[1])
	}
	for _, lb := range layout.Labels {
		style := ""
		if lb.Bold {
			style = "B"
		}
		r, g, bl := rgb(lb.Color, 0)
		pdf.SetTextColor(r, g, bl)
		pdf.SetFont("Helvetica", style, lb.Size)
		pdf.Text(lb.At[0], pageH-lb.At[1], tr(lb.Text))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("draw template artwork: %w", err)
	}
	return buf.Bytes(), nil
}

func rgb(c []int, fallback int) (int, int, int) {
	if len(c) != 3 {
		return fallback, fallback, fallback
	}
	return c[0], c[1], c[2]
}

func helveticaFont(base string) types.Dict {
	return types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(base),
		"Encoding": types.Name("WinAnsiEncoding"),
	}
}

func quaddingOf(align string) int {
	switch align {
	case "center":
		return int(alignCenter)
	case "right":
		return int(alignRight)
	}
	return int(alignLeft)
}

// addFormFields places every layout field as a merged field/widget
// dictionary on the first page.
func addFormFields(xrt *model.XRefTable, layout *Layout) error {
	root, err := xrt.Catalog()
	if err != nil {
		return err
	}
	ps, err := pages(xrt)
	if err != nil {
		return err
	}
	first := ps[0]

	fontRef, err := xrt.IndRefForNewObject(helveticaFont("Helvetica"))
	if err != nil {
		return err
	}

	annots, err := first.annots(xrt)
	if err != nil {
		return err
	}
	var fields types.Array
	for _, spec := range layout.AllFields() {
		x, y, w, h := spec.Rect[0], spec.Rect[1], spec.Rect[2], spec.Rect[3]
		d := types.Dict{
			"Type":    types.Name("Annot"),
			"Subtype": types.Name("Widget"),
			"T":       types.StringLiteral(escapeLiteral(spec.Name)),
			"Rect":    rectArray(x, y, w, h),
			"F":       types.Integer(4),
			"P":       first.ref,
		}
		if spec.Kind == "button" {
			d["FT"] = types.Name("Btn")
			d["Ff"] = types.Integer(flagPushButton)
		} else {
			size := spec.Size
			if size == 0 {
				size = defaultFontSize
			}
			d["FT"] = types.Name("Tx")
			d["DA"] = types.StringLiteral(fmt.Sprintf("/%s %s Tf 0 g", fontRegular, formatNumber(size)))
			d["Q"] = types.Integer(quaddingOf(spec.Align))
			if spec.Multiline {
				d["Ff"] = types.Integer(flagMultiline)
			}
		}
		ref, err := xrt.IndRefForNewObject(d)
		if err != nil {
			return err
		}
		fields = append(fields, *ref)
		annots = append(annots, *ref)
	}
	first.dict["Annots"] = annots

	root["AcroForm"] = types.Dict{
		"Fields":          fields,
		"DA":              types.StringLiteral(fmt.Sprintf("/%s 0 Tf 0 g", fontRegular)),
		"DR":              types.Dict{"Font": types.Dict{fontRegular: *fontRef}},
		"NeedAppearances": types.Boolean(true),
	}
	return nil
}
