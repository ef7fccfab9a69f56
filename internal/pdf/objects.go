package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

func newConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readDocument(data []byte) (*model.Context, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return ctx, nil
}

func writeDocument(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type page struct {
	ref  types.IndirectRef
	dict types.Dict
}

// pages walks the page tree in document order.
func pages(xrt *model.XRefTable) ([]page, error) {
	root, err := xrt.Catalog()
	if err != nil {
		return nil, err
	}
	var out []page
	var walk func(o types.Object, depth int) error
	walk = func(o types.Object, depth int) error {
		if depth > 32 {
			return errors.New("page tree too deep")
		}
		ir, ok := o.(types.IndirectRef)
		if !ok {
			return errors.New("page tree node is not an indirect reference")
		}
		d, err := xrt.DereferenceDict(ir)
		if err != nil {
			return err
		}
		if t := d.NameEntry("Type"); t != nil && *t == "Page" {
			out = append(out, page{ref: ir, dict: d})
			return nil
		}
		kids, err := xrt.DereferenceArray(d["Kids"])
		if err != nil {
			return err
		}
		for _, kid := range kids {
			if err := walk(kid, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root["Pages"], 0); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("document has no pages")
	}
	return out, nil
}

// pageResources returns the resource dictionary of a page, following
// inheritance through the page tree and creating one when none exists.
func pageResources(xrt *model.XRefTable, p page) (types.Dict, error) {
	node := p.dict
	for i := 0; node != nil && i < 32; i++ {
		if o, found := node["Resources"]; found {
			return xrt.DereferenceDict(o)
		}
		parent, found := node["Parent"]
		if !found {
			break
		}
		d, err := xrt.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		node = d
	}
	res := types.NewDict()
	p.dict["Resources"] = res
	return res, nil
}

// subDict returns d[key] as a dictionary, inserting an empty one if absent.
func subDict(xrt *model.XRefTable, d types.Dict, key string) (types.Dict, error) {
	o, found := d[key]
	if !found || o == nil {
		sub := types.NewDict()
		d[key] = sub
		return sub, nil
	}
	sub, err := xrt.DereferenceDict(o)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub = types.NewDict()
		d[key] = sub
	}
	return sub, nil
}

func (p page) annots(xrt *model.XRefTable) (types.Array, error) {
	o, found := p.dict["Annots"]
	if !found {
		return nil, nil
	}
	return xrt.DereferenceArray(o)
}

// newStream stores content as a new Flate encoded stream object.
func newStream(xrt *model.XRefTable, content []byte, entries types.Dict) (*types.IndirectRef, error) {
	sd, err := xrt.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	for k, v := range entries {
		sd.Dict[k] = v
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return xrt.IndRefForNewObject(*sd)
}

func rectArray(x, y, w, h float64) types.Array {
	return types.Array{types.Float(x), types.Float(y), types.Float(x + w), types.Float(y + h)}
}

func number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Float:
		return float64(v), true
	case types.Integer:
		return float64(v), true
	}
	return 0, false
}

// rect reads a widget /Rect as lower-left corner plus size.
func rect(xrt *model.XRefTable, d types.Dict) (x, y, w, h float64, err error) {
	arr, err := xrt.DereferenceArray(d["Rect"])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(arr) != 4 {
		return 0, 0, 0, 0, errors.New("malformed widget rect")
	}
	var v [4]float64
	for i, o := range arr {
		o, err := xrt.Dereference(o)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		n, ok := number(o)
		if !ok {
			return 0, 0, 0, 0, errors.New("malformed widget rect")
		}
		v[i] = n
	}
	x, y = min(v[0], v[2]), min(v[1], v[3])
	return x, y, max(v[0], v[2]) - x, max(v[1], v[3]) - y, nil
}

func intEntry(xrt *model.XRefTable, d types.Dict, key string) int {
	o, found := d[key]
	if !found {
		return 0
	}
	o, err := xrt.Dereference(o)
	if err != nil {
		return 0
	}
	if n, ok := number(o); ok {
		return int(n)
	}
	return 0
}

func nameEntry(xrt *model.XRefTable, d types.Dict, key string) string {
	o, found := d[key]
	if !found {
		return ""
	}
	o, err := xrt.Dereference(o)
	if err != nil {
		return ""
	}
	if n, ok := o.(types.Name); ok {
		return string(n)
	}
	return ""
}

func textEntry(xrt *model.XRefTable, d types.Dict, key string) (string, bool) {
	o, found := d[key]
	if !found {
		return "", false
	}
	o, err := xrt.Dereference(o)
	if err != nil {
		return "", false
	}
	return decodeText(o)
}
