package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// flatten paints every widget's normal appearance into its page content,
// removes the widgets and drops the interactive form.
func flatten(xrt *model.XRefTable) error {
	root, err := xrt.Catalog()
	if err != nil {
		return err
	}
	ps, err := pages(xrt)
	if err != nil {
		return err
	}

	for pageNr, p := range ps {
		annots, err := p.annots(xrt)
		if err != nil {
			return err
		}
		if len(annots) == 0 {
			continue
		}

		var kept types.Array
		var ops bytes.Buffer
		var xobjects types.Dict
		for i, a := range annots {
			d, err := xrt.DereferenceDict(a)
			if err != nil {
				return err
			}
			if d == nil || nameEntry(xrt, d, "Subtype") != "Widget" {
				kept = append(kept, a)
				continue
			}
			ap, err := xrt.DereferenceDict(d["AP"])
			if err != nil {
				return err
			}
			normal, ok := ap["N"].(types.IndirectRef)
			if !ok {
				continue
			}
			x, y, _, _, err := rect(xrt, d)
			if err != nil {
				return err
			}
			if xobjects == nil {
				res, err := pageResources(xrt, p)
				if err != nil {
					return err
				}
				if xobjects, err = subDict(xrt, res, "XObject"); err != nil {
					return err
				}
			}
			name := fmt.Sprintf("Flat%d_%d", pageNr+1, i)
			xobjects[name] = normal
			fmt.Fprintf(&ops, "q 1 0 0 1 %.4f %.4f cm /%s Do Q\n", x, y, name)
		}

		if ops.Len() > 0 {
			if err := appendContent(xrt, p, ops.Bytes()); err != nil {
				return err
			}
		}
		if len(kept) == 0 {
			delete(p.dict, "Annots")
		} else {
			p.dict["Annots"] = kept
		}
	}

	delete(root, "AcroForm")
	return nil
}

// appendContent wraps the existing page content in q/Q and appends ops after it.
func appendContent(xrt *model.XRefTable, p page, ops []byte) error {
	var existing types.Array
	if o, found := p.dict["Contents"]; found {
		switch v := o.(type) {
		case types.IndirectRef:
			deref, err := xrt.Dereference(v)
			if err != nil {
				return err
			}
			if arr, ok := deref.(types.Array); ok {
				existing = arr
			} else {
				existing = types.Array{v}
			}
		case types.Array:
			existing = v
		}
	}

	head, err := newStream(xrt, []byte("q\n"), nil)
	if err != nil {
		return err
	}
	tail, err := newStream(xrt, append([]byte("Q\n"), ops...), nil)
	if err != nil {
		return err
	}

	contents := make(types.Array, 0, len(existing)+2)
	contents = append(contents, *head)
	contents = append(contents, existing...)
	contents = append(contents, *tail)
	p.dict["Contents"] = contents
	return nil
}
