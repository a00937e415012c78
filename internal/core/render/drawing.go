package render

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	emuPerInch = 914400
	emuPerPt   = 12700

	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsC   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	slideNamespaces = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`
	groupShapeProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
)

// inches converts to EMU.
func inches(v float64) int64 {
	return int64(v * emuPerInch)
}

type rect struct {
	x, y, cx, cy int64
}

func box(x, y, w, h float64) rect {
	return rect{inches(x), inches(y), inches(w), inches(h)}
}

func (r rect) xfrm(prefix string) string {
	return fmt.Sprintf(`<%s:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></%s:xfrm>`, prefix, r.x, r.y, r.cx, r.cy, prefix)
}

// paragraph is one <a:p>. Lines are joined with soft breaks.
type paragraph struct {
	lines       []string
	sizePt      int
	bold        bool
	color       string
	align       string // "l" | "ctr"
	bullet      bool
	spaceBefore int
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func (p paragraph) runProps() string {
	bold := ""
	if p.bold {
		bold = ` b="1"`
	}
	return fmt.Sprintf(`<a:rPr lang="en-US" sz="%d"%s dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr>`, p.sizePt*100, bold, p.color)
}

func (p paragraph) xml() string {
	var b strings.Builder
	b.WriteString("<a:p>")

	align := p.align
	if align == "" {
		align = "l"
	}
	if p.bullet {
		fmt.Fprintf(&b, `<a:pPr marL="285750" indent="-285750" algn="%s">`, align)
	} else {
		fmt.Fprintf(&b, `<a:pPr algn="%s">`, align)
	}
	if p.spaceBefore > 0 {
		fmt.Fprintf(&b, `<a:spcBef><a:spcPts val="%d"/></a:spcBef>`, p.spaceBefore*100)
	}
	if p.bullet {
		fmt.Fprintf(&b, `<a:buClr><a:srgbClr val="%s"/></a:buClr><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>`, p.color)
	} else {
		b.WriteString(`<a:buNone/>`)
	}
	b.WriteString(`</a:pPr>`)

	rPr := p.runProps()
	for i, line := range p.lines {
		if i > 0 {
			fmt.Fprintf(&b, `<a:br>%s</a:br>`, rPr)
		}
		fmt.Fprintf(&b, `<a:r>%s<a:t>%s</a:t></a:r>`, rPr, escape(line))
	}
	fmt.Fprintf(&b, `<a:endParaRPr lang="en-US" sz="%d" dirty="0"/></a:p>`, p.sizePt*100)
	return b.String()
}

// spTree accumulates the shapes of one slide and hands out shape ids.
type spTree struct {
	b      strings.Builder
	nextID int
}

func newSpTree() *spTree {
	return &spTree{nextID: 2}
}

func (t *spTree) id() int {
	id := t.nextID
	t.nextID++
	return id
}

// textBox adds a word-wrapped text box. anchor is "t" or "ctr".
func (t *spTree) textBox(name string, r rect, anchor string, paras []paragraph) {
	id := t.id()
	fmt.Fprintf(&t.b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, escape(name), id)
	fmt.Fprintf(&t.b, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`, r.xfrm("a"))
	fmt.Fprintf(&t.b, `<p:txBody><a:bodyPr wrap="square" rtlCol="0" anchor="%s"><a:noAutofit/></a:bodyPr><a:lstStyle/>`, anchor)
	for _, p := range paras {
		t.b.WriteString(p.xml())
	}
	t.b.WriteString(`</p:txBody></p:sp>`)
}

// filledRect adds a borderless solid rectangle, used for accent rules.
func (t *spTree) filledRect(name string, r rect, color string) {
	id := t.id()
	fmt.Fprintf(&t.b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, escape(name), id)
	fmt.Fprintf(&t.b, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:ln><a:noFill/></a:ln></p:spPr></p:sp>`, r.xfrm("a"), color)
}

func (t *spTree) picture(name string, r rect, relID string) {
	id := t.id()
	fmt.Fprintf(&t.b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, id, escape(name), id)
	fmt.Fprintf(&t.b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, relID)
	fmt.Fprintf(&t.b, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, r.xfrm("a"))
}

func (t *spTree) chartFrame(name string, r rect, relID string) {
	id := t.id()
	fmt.Fprintf(&t.b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s %d"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`, id, escape(name), id)
	t.b.WriteString(r.xfrm("p"))
	fmt.Fprintf(&t.b, `<a:graphic><a:graphicData uri="%s"><c:chart xmlns:c="%s" r:id="%s"/></a:graphicData></a:graphic></p:graphicFrame>`, nsC, nsC, relID)
}

// slideXML wraps the shapes in a <p:sld> with a solid background.
func (t *spTree) slideXML(background string) string {
	return xml.Header + `<p:sld ` + slideNamespaces + `><p:cSld>` +
		`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="` + background + `"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + groupShapeProps + t.b.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

// notesXML builds the notes page that carries speaker notes for one slide.
func notesXML(text string) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<p:notes ` + slideNamespaces + `><p:cSld><p:spTree>` + groupShapeProps)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, escape(line))
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`)
	return b.String()
}
