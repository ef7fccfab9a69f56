package pdf

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Template field names.
const (
	FieldCompanyTitle  = "companyNameTittle"
	FieldCompanyInfo   = "companyInfo"
	FieldCustomerInfo  = "customerInfo"
	FieldBillNumber    = "billNumber"
	FieldIssueDate     = "issue_af_date"
	FieldDueDate       = "due_af_date"
	FieldCompanyName   = "companyName"
	FieldCustomerName  = "customerName"
	FieldTotalAmount   = "totalAmount"
	FieldLogo          = "logo_af_image"
	FieldQR            = "qr_af_image"
	LinePrefixCode     = "code"
	LinePrefixProduct  = "productName"
	LinePrefixPrice    = "unitPrice"
	LinePrefixQuantity = "quantity"
	LinePrefixTotal    = "total"
)

var requiredTextFields = []string{
	FieldCompanyTitle, FieldCompanyInfo, FieldCustomerInfo, FieldBillNumber, FieldIssueDate,
	FieldDueDate, FieldCompanyName, FieldCustomerName, FieldTotalAmount,
}

var requiredButtonFields = []string{FieldLogo, FieldQR}

// boldFields are rendered with the bold face.
var boldFields = map[string]bool{
	FieldCompanyTitle: true,
	FieldCompanyName:  true,
	FieldCustomerName: true,
	FieldTotalAmount:  true,
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindButton
)

const (
	flagMultiline  = 1 << 12
	flagPushButton = 1 << 16
)

// formField is a terminal AcroForm field and its widget annotations.
type formField struct {
	name    string
	kind    fieldKind
	dict    types.Dict
	widgets []types.Dict
}

// lineFields holds the field names of one table row.
type lineFields struct {
	code, product, price, quantity, total string
}

// inventory is the field contract of a template, computed once.
type inventory struct {
	kinds map[string]fieldKind
	lines []lineFields
}

func (inv *inventory) capacity() int { return len(inv.lines) }

func buildInventory(fields map[string]*formField) (*inventory, error) {
	inv := &inventory{kinds: make(map[string]fieldKind, len(fields))}
	for name, f := range fields {
		inv.kinds[name] = f.kind
	}
	for _, name := range requiredTextFields {
		if k, ok := inv.kinds[name]; !ok || k != kindText {
			return nil, fmt.Errorf("template is missing text field %q", name)
		}
	}
	for _, name := range requiredButtonFields {
		if k, ok := inv.kinds[name]; !ok || k != kindButton {
			return nil, fmt.Errorf("template is missing button field %q", name)
		}
	}
	for n := 1; ; n++ {
		row := lineFields{
			code:     fmt.Sprintf("%s%d", LinePrefixCode, n),
			product:  fmt.Sprintf("%s%d", LinePrefixProduct, n),
			price:    fmt.Sprintf("%s%d", LinePrefixPrice, n),
			quantity: fmt.Sprintf("%s%d", LinePrefixQuantity, n),
			total:    fmt.Sprintf("%s%d", LinePrefixTotal, n),
		}
		complete := true
		for _, name := range []string{row.code, row.product, row.price, row.quantity, row.total} {
			if k, ok := inv.kinds[name]; !ok || k != kindText {
				complete = false
				break
			}
		}
		if !complete {
			break
		}
		inv.lines = append(inv.lines, row)
	}
	return inv, nil
}

// acroForm returns the interactive form dictionary of the document.
func acroForm(xrt *model.XRefTable) (types.Dict, error) {
	root, err := xrt.Catalog()
	if err != nil {
		return nil, err
	}
	o, found := root["AcroForm"]
	if !found {
		return nil, nil
	}
	return xrt.DereferenceDict(o)
}

// collectFields flattens the field tree into terminal fields keyed by fully
// qualified name.
func collectFields(xrt *model.XRefTable, form types.Dict) (map[string]*formField, error) {
	fields := map[string]*formField{}
	if form == nil {
		return fields, nil
	}
	roots, err := xrt.DereferenceArray(form["Fields"])
	if err != nil {
		return nil, err
	}

	var walk func(o types.Object, prefix, inheritedFT string, inheritedFf int, depth int) error
	walk = func(o types.Object, prefix, inheritedFT string, inheritedFf int, depth int) error {
		if depth > 16 {
			return errors.New("form field tree too deep")
		}
		d, err := xrt.DereferenceDict(o)
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		name := prefix
		if partial, ok := textEntry(xrt, d, "T"); ok {
			if prefix != "" {
				name = prefix + "." + partial
			} else {
				name = partial
			}
		}
		ft := inheritedFT
		if v := nameEntry(xrt, d, "FT"); v != "" {
			ft = v
		}
		ff := inheritedFf
		if _, found := d["Ff"]; found {
			ff = intEntry(xrt, d, "Ff")
		}

		kids, err := xrt.DereferenceArray(d["Kids"])
		if err != nil {
			return err
		}
		var widgets []types.Dict
		var childFields []types.Object
		for _, kid := range kids {
			kd, err := xrt.DereferenceDict(kid)
			if err != nil {
				return err
			}
			if _, hasName := kd["T"]; hasName {
				childFields = append(childFields, kid)
			} else {
				widgets = append(widgets, kd)
			}
		}
		for _, child := range childFields {
			if err := walk(child, name, ft, ff, depth+1); err != nil {
				return err
			}
		}
		if len(childFields) > 0 && len(widgets) == 0 {
			return nil
		}
		if len(kids) == 0 {
			widgets = []types.Dict{d}
		}

		kind := kindText
		switch {
		case ft == "Btn" && ff&flagPushButton != 0:
			kind = kindButton
		case ft == "Btn":
			// checkboxes and radios are not part of the template contract
			return nil
		case ft != "Tx":
			return nil
		}
		fields[name] = &formField{name: name, kind: kind, dict: d, widgets: widgets}
		return nil
	}

	for _, o := range roots {
		if err := walk(o, "", "", 0, 0); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// FieldValues reads the current value of every text field of a document
// that still carries its form. A flattened document yields an empty map.
func FieldValues(document []byte) (map[string]string, error) {
	ctx, err := readDocument(document)
	if err != nil {
		return nil, err
	}
	form, err := acroForm(ctx.XRefTable)
	if err != nil {
		return nil, err
	}
	fields, err := collectFields(ctx.XRefTable, form)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(fields))
	for name, f := range fields {
		if f.kind != kindText {
			continue
		}
		if v, ok := textEntry(ctx.XRefTable, f.dict, "V"); ok {
			values[name] = v
		}
	}
	return values, nil
}
