// Package pdf fills the bill template: a one-page PDF whose AcroForm fields
// receive the bill data, the company logo and the payment QR code before
// the form is flattened into static content.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"billdesk/internal/logger"
	"billdesk/internal/models"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrCapacityExceeded is returned when a bill has more lines than the
// template has rows.
var ErrCapacityExceeded = errors.New("bill exceeds template line capacity")

const (
	billNumberWidth = 8
	dateLayout      = "02/01/2006"
	currencyPrefix  = "$ "
)

type Config struct {
	// TemplatePath points at a custom template; empty uses the built-in one.
	TemplatePath string
	Flatten      bool
}

type Renderer struct {
	template []byte
	inv      *inventory
	flatten  bool
	log      *logger.Logger
}

func NewRenderer(cfg Config, log *logger.Logger) (*Renderer, error) {
	var tpl []byte
	var err error
	if cfg.TemplatePath != "" {
		tpl, err = os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
	} else {
		layout, err := DefaultLayout()
		if err != nil {
			return nil, err
		}
		if tpl, err = BuildTemplate(layout); err != nil {
			return nil, err
		}
	}
	return NewRendererFromTemplate(tpl, cfg.Flatten, log)
}

// NewRendererFromTemplate checks the field contract of tpl once and keeps
// the bytes for every render.
func NewRendererFromTemplate(tpl []byte, flatten bool, log *logger.Logger) (*Renderer, error) {
	ctx, err := readDocument(tpl)
	if err != nil {
		return nil, err
	}
	form, err := acroForm(ctx.XRefTable)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, errors.New("template has no interactive form")
	}
	fields, err := collectFields(ctx.XRefTable, form)
	if err != nil {
		return nil, err
	}
	inv, err := buildInventory(fields)
	if err != nil {
		return nil, err
	}
	return &Renderer{template: tpl, inv: inv, flatten: flatten, log: log}, nil
}

// LineCapacity is the number of bill lines the template can hold.
func (r *Renderer) LineCapacity() int {
	return r.inv.capacity()
}

// Render fills the template for bill. logo and qr are optional PNG or JPEG
// images.
func (r *Renderer) Render(ctx context.Context, bill *models.Bill, logo, qr []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bill.Lines) > r.inv.capacity() {
		return nil, fmt.Errorf("%w: %d lines, %d rows", ErrCapacityExceeded, len(bill.Lines), r.inv.capacity())
	}

	doc, err := readDocument(r.template)
	if err != nil {
		return nil, err
	}
	xrt := doc.XRefTable
	form, err := acroForm(xrt)
	if err != nil {
		return nil, err
	}
	fields, err := collectFields(xrt, form)
	if err != nil {
		return nil, err
	}
	form["NeedAppearances"] = types.Boolean(false)

	fonts, err := injectFonts(xrt, form)
	if err != nil {
		return nil, err
	}
	formDA, _ := textEntry(xrt, form, "DA")

	values := r.values(bill)
	m := newMeasurer()
	for name, f := range fields {
		if f.kind != kindText {
			continue
		}
		if err := fillText(xrt, f, values, formDA, fonts, m); err != nil {
			return nil, fmt.Errorf("fill %s: %w", name, err)
		}
	}

	if len(logo) > 0 {
		if err := fillImage(xrt, fields[FieldLogo], logo, true); err != nil {
			r.log.Warnw("Skipping company logo", "bill_id", bill.ID, "error", err)
		}
	}
	if len(qr) > 0 {
		if err := fillImage(xrt, fields[FieldQR], qr, false); err != nil {
			return nil, fmt.Errorf("fill %s: %w", FieldQR, err)
		}
	}

	if r.flatten {
		if err := flatten(xrt); err != nil {
			return nil, fmt.Errorf("flatten: %w", err)
		}
	}
	return writeDocument(doc)
}

// values maps field names to their text for bill.
func (r *Renderer) values(bill *models.Bill) map[string]string {
	v := map[string]string{
		FieldCompanyTitle: bill.CompanyName,
		FieldCompanyName:  bill.CompanyName,
		FieldCompanyInfo:  contactBlock(bill.CompanyEmail, bill.CompanyAddress),
		FieldCustomerInfo: contactBlock(bill.CustomerEmail, bill.CustomerAddress),
		FieldCustomerName: bill.CustomerName,
		FieldBillNumber:   FormatBillNumber(bill.BillNumber),
		FieldIssueDate:    bill.IssueDate.Format(dateLayout),
		FieldTotalAmount:  FormatAmount(bill.TotalAmount.StringFixed(2)),
	}
	if bill.DueDate != nil {
		v[FieldDueDate] = bill.DueDate.Format(dateLayout)
	}

	lines := make([]*models.BillLine, len(bill.Lines))
	copy(lines, bill.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	for i, line := range lines {
		row := r.inv.lines[i]
		if line.Code != nil {
			v[row.code] = *line.Code
		}
		v[row.product] = line.Name
		v[row.price] = line.Price.StringFixed(2)
		v[row.quantity] = strconv.Itoa(line.Quantity)
		v[row.total] = line.Total.StringFixed(2)
	}
	return v
}

// FormatBillNumber left-pads n with zeros to eight digits.
func FormatBillNumber(n int64) string {
	return fmt.Sprintf("%0*d", billNumberWidth, n)
}

func FormatAmount(fixed string) string {
	return currencyPrefix + fixed
}

func contactBlock(email, address *string) string {
	var b strings.Builder
	if email != nil && strings.TrimSpace(*email) != "" {
		b.WriteString(*email)
		b.WriteString("\n")
	}
	if address != nil {
		b.WriteString(*address)
	}
	return b.String()
}

type fontRefs struct {
	regular, bold types.IndirectRef
}

func (f fontRefs) resources() types.Dict {
	return types.Dict{
		"Font": types.Dict{fontRegular: f.regular, fontBold: f.bold},
	}
}

// injectFonts registers the regular and bold faces in the form's default
// resources.
func injectFonts(xrt *model.XRefTable, form types.Dict) (fontRefs, error) {
	regular, err := xrt.IndRefForNewObject(helveticaFont("Helvetica"))
	if err != nil {
		return fontRefs{}, err
	}
	bold, err := xrt.IndRefForNewObject(helveticaFont("Helvetica-Bold"))
	if err != nil {
		return fontRefs{}, err
	}
	dr, err := subDict(xrt, form, "DR")
	if err != nil {
		return fontRefs{}, err
	}
	fonts, err := subDict(xrt, dr, "Font")
	if err != nil {
		return fontRefs{}, err
	}
	fonts[fontRegular] = *regular
	fonts[fontBold] = *bold
	return fontRefs{regular: *regular, bold: *bold}, nil
}

// fillText rewrites the default appearance of f and, when values holds an
// entry for it, sets its value and appearance stream.
func fillText(xrt *model.XRefTable, f *formField, values map[string]string, formDA string, fonts fontRefs, m *measurer) error {
	daText, ok := textEntry(xrt, f.dict, "DA")
	if !ok {
		daText = formDA
	}
	da := parseDA(daText)
	font := fontRegular
	if boldFields[f.name] {
		font = fontBold
	}
	f.dict["DA"] = types.StringLiteral(escapeLiteral(da.string(font)))

	value, ok := values[f.name]
	if !ok {
		return nil
	}
	f.dict["V"] = textString(value)

	multiline := intEntry(xrt, f.dict, "Ff")&flagMultiline != 0
	for _, w := range f.widgets {
		_, _, width, height, err := rect(xrt, w)
		if err != nil {
			return err
		}
		q := quadding(intEntry(xrt, w, "Q"))
		if _, found := w["Q"]; !found {
			q = quadding(intEntry(xrt, f.dict, "Q"))
		}
		content := textAppearance(m, value, da, font, q, multiline, width, height)
		ref, err := newStream(xrt, content, types.Dict{
			"Type":      types.Name("XObject"),
			"Subtype":   types.Name("Form"),
			"BBox":      types.Array{types.Float(0), types.Float(0), types.Float(width), types.Float(height)},
			"Resources": fonts.resources(),
		})
		if err != nil {
			return err
		}
		w["AP"] = types.Dict{"N": *ref}
	}
	return nil
}

// fillImage composites data into the single widget of a button field.
func fillImage(xrt *model.XRefTable, f *formField, data []byte, keepAspect bool) error {
	if f == nil || len(f.widgets) == 0 {
		return errors.New("image field has no widget")
	}
	img, err := embedImage(xrt, data)
	if err != nil {
		return err
	}
	w := f.widgets[0]
	_, _, width, height, err := rect(xrt, w)
	if err != nil {
		return err
	}
	ref, err := imageAppearance(xrt, img, width, height, keepAspect)
	if err != nil {
		return err
	}
	w["AP"] = types.Dict{"N": *ref}
	return nil
}
