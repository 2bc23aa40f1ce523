package fill

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Annotation flags
const (
	annotHidden = 1 << 1
	annotNoView = 1 << 5
)

// Flatten draws the normal appearance of every widget annotation into its
// page's content, removes the widgets from the page and drops the AcroForm
// from the catalog. It returns the number of appearances drawn. Widgets
// without an appearance and hidden widgets are removed without drawing.
// An appearance /Matrix other than the identity is not applied.
func Flatten(ctx *model.Context) (int, error) {
	catalog, err := ctx.Catalog()
	if err != nil {
		return 0, fmt.Errorf("failed to get catalog: %w", err)
	}
	if _, found := catalog.Find("AcroForm"); !found {
		return 0, nil
	}

	drawn := 0
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		n, err := flattenPage(ctx, pageNr)
		if err != nil {
			return drawn, fmt.Errorf("page %d: %w", pageNr, err)
		}
		drawn += n
	}

	catalog.Delete("AcroForm")
	ctx.XRefTable.Form = nil
	return drawn, nil
}

func flattenPage(ctx *model.Context, pageNr int) (int, error) {
	pageDict, _, inherited, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return 0, err
	}

	obj, found := pageDict.Find("Annots")
	if !found {
		return 0, nil
	}
	annots, err := ctx.DereferenceArray(obj)
	if err != nil || len(annots) == 0 {
		return 0, err
	}

	var content bytes.Buffer
	kept := make(types.Array, 0, len(annots))
	drawn := 0

	for _, entry := range annots {
		annot, err := ctx.DereferenceDict(entry)
		if err != nil || annot == nil {
			kept = append(kept, entry)
			continue
		}
		if subtype := annot.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
			kept = append(kept, entry)
			continue
		}

		if flags := annot.IntEntry("F"); flags != nil && *flags&(annotHidden|annotNoView) != 0 {
			continue
		}

		ap, ok := appearance(ctx, annot)
		if !ok {
			continue
		}
		rect, ok := rectEntry(ctx, annot, "Rect")
		if !ok {
			continue
		}

		sd, _, err := ctx.DereferenceStreamDict(ap)
		if err != nil || sd == nil {
			continue
		}
		sd.InsertName("Type", "XObject")
		sd.InsertName("Subtype", "Form")

		bbox, ok := rectEntry(ctx, sd.Dict, "BBox")
		if !ok {
			continue
		}

		resources, err := pageResources(ctx, pageDict, inherited)
		if err != nil {
			return drawn, err
		}
		name, err := addXObject(ctx, resources, ap)
		if err != nil {
			return drawn, err
		}

		content.WriteString(placeForm(name, bbox, rect))
		drawn++
	}

	if content.Len() > 0 {
		if err := ctx.AppendContent(pageDict, content.Bytes()); err != nil {
			return drawn, fmt.Errorf("failed to append page content: %w", err)
		}
	}

	if len(kept) == 0 {
		pageDict.Delete("Annots")
	} else {
		pageDict.Update("Annots", kept)
	}
	return drawn, nil
}

// appearance resolves /AP /N to a form XObject reference, choosing the
// /AS state for checkboxes and radio buttons.
func appearance(ctx *model.Context, annot types.Dict) (types.IndirectRef, bool) {
	apObj, found := annot.Find("AP")
	if !found {
		return types.IndirectRef{}, false
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return types.IndirectRef{}, false
	}
	normal, found := ap.Find("N")
	if !found {
		return types.IndirectRef{}, false
	}

	if ref, ok := normal.(types.IndirectRef); ok {
		if sd, _, err := ctx.DereferenceStreamDict(ref); err == nil && sd != nil {
			return ref, true
		}
	}

	states, err := ctx.DereferenceDict(normal)
	if err != nil || states == nil {
		return types.IndirectRef{}, false
	}
	as := annot.NameEntry("AS")
	if as == nil {
		return types.IndirectRef{}, false
	}
	state, found := states.Find(*as)
	if !found {
		return types.IndirectRef{}, false
	}
	ref, ok := state.(types.IndirectRef)
	return ref, ok
}

func rectEntry(ctx *model.Context, d types.Dict, key string) (*types.Rectangle, bool) {
	obj, found := d.Find(key)
	if !found {
		return nil, false
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return nil, false
	}

	var v [4]float64
	for i, o := range arr {
		f, err := ctx.DereferenceNumber(o)
		if err != nil {
			return nil, false
		}
		v[i] = f
	}
	llx, urx := min(v[0], v[2]), max(v[0], v[2])
	lly, ury := min(v[1], v[3]), max(v[1], v[3])
	return types.NewRectangle(llx, lly, urx, ury), true
}

// pageResources returns the page's own resource dictionary, copying
// inherited resources onto the page when it has none.
func pageResources(ctx *model.Context, pageDict types.Dict, inherited *model.InheritedPageAttrs) (types.Dict, error) {
	if obj, found := pageDict.Find("Resources"); found {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve page resources: %w", err)
		}
		if d != nil {
			return d, nil
		}
	}

	d := types.NewDict()
	if inherited != nil && inherited.Resources != nil {
		d = inherited.Resources.Clone().(types.Dict)
	}
	pageDict.Update("Resources", d)
	return d, nil
}

func addXObject(ctx *model.Context, resources types.Dict, ref types.IndirectRef) (string, error) {
	var xobjects types.Dict
	if obj, found := resources.Find("XObject"); found {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return "", fmt.Errorf("failed to resolve XObject resources: %w", err)
		}
		xobjects = d
	}
	if xobjects == nil {
		xobjects = types.NewDict()
		resources.Update("XObject", xobjects)
	}

	for i := 0; ; i++ {
		name := "Flat" + strconv.Itoa(i)
		if _, found := xobjects.Find(name); !found {
			xobjects.Insert(name, ref)
			return name, nil
		}
	}
}

// placeForm maps the form's bounding box onto the annotation rectangle.
func placeForm(name string, bbox, rect *types.Rectangle) string {
	sx, sy := 1.0, 1.0
	if w := bbox.Width(); w > 0 {
		sx = rect.Width() / w
	}
	if h := bbox.Height(); h > 0 {
		sy = rect.Height() / h
	}
	tx := rect.LL.X - bbox.LL.X*sx
	ty := rect.LL.Y - bbox.LL.Y*sy
	return fmt.Sprintf("q %.4f 0 0 %.4f %.4f %.4f cm /%s Do Q\n", sx, sy, tx, ty, name)
}
