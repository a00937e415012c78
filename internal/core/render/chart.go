package render

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/markdave123-py/Slidewise/internal/models"
)

// normalizeChartType maps unknown chart types to bar.
func normalizeChartType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case models.ChartColumn:
		return models.ChartColumn
	case models.ChartLine:
		return models.ChartLine
	case models.ChartPie:
		return models.ChartPie
	default:
		return models.ChartBar
	}
}

// chartXML renders a single-series chart part with literal (workbook-free) data.
func chartXML(spec *models.ChartSpec, theme Theme) string {
	n := len(spec.Categories)
	if len(spec.Values) < n {
		n = len(spec.Values)
	}
	name := spec.SeriesName
	if name == "" {
		name = "Series 1"
	}

	var cat, val strings.Builder
	fmt.Fprintf(&cat, `<c:cat><c:strLit><c:ptCount val="%d"/>`, n)
	fmt.Fprintf(&val, `<c:val><c:numLit><c:formatCode>General</c:formatCode><c:ptCount val="%d"/>`, n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&cat, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, escape(spec.Categories[i]))
		fmt.Fprintf(&val, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, strconv.FormatFloat(spec.Values[i], 'g', -1, 64))
	}
	cat.WriteString(`</c:strLit></c:cat>`)
	val.WriteString(`</c:numLit></c:val>`)

	fill := fmt.Sprintf(`<c:spPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill></c:spPr>`, theme.Accent)
	series := `<c:idx val="0"/><c:order val="0"/><c:tx><c:v>` + escape(name) + `</c:v></c:tx>`
	axes := `<c:axId val="50010001"/><c:axId val="50010002"/>`

	var plot string
	catPos, valPos := "b", "l"
	switch normalizeChartType(spec.Type) {
	case models.ChartPie:
		plot = `<c:pieChart><c:varyColors val="1"/><c:ser>` + series + cat.String() + val.String() +
			`</c:ser><c:firstSliceAng val="0"/></c:pieChart>`
	case models.ChartLine:
		lineProps := fmt.Sprintf(`<c:spPr><a:ln w="28575"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:ln></c:spPr>`, theme.Accent)
		plot = `<c:lineChart><c:grouping val="standard"/><c:varyColors val="0"/><c:ser>` + series + lineProps +
			`<c:marker><c:symbol val="circle"/></c:marker>` + cat.String() + val.String() +
			`<c:smooth val="0"/></c:ser><c:marker val="1"/>` + axes + `</c:lineChart>`
	case models.ChartColumn:
		plot = `<c:barChart><c:barDir val="col"/><c:grouping val="clustered"/><c:varyColors val="0"/><c:ser>` + series + fill +
			`<c:invertIfNegative val="0"/>` + cat.String() + val.String() + `</c:ser><c:gapWidth val="150"/>` + axes + `</c:barChart>`
	default:
		catPos, valPos = "l", "b"
		plot = `<c:barChart><c:barDir val="bar"/><c:grouping val="clustered"/><c:varyColors val="0"/><c:ser>` + series + fill +
			`<c:invertIfNegative val="0"/>` + cat.String() + val.String() + `</c:ser><c:gapWidth val="150"/>` + axes + `</c:barChart>`
	}

	if normalizeChartType(spec.Type) != models.ChartPie {
		plot += `<c:catAx><c:axId val="50010001"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/>` +
			`<c:axPos val="` + catPos + `"/><c:numFmt formatCode="General" sourceLinked="0"/><c:tickLblPos val="nextTo"/>` +
			`<c:crossAx val="50010002"/><c:crosses val="autoZero"/><c:auto val="1"/><c:lblAlgn val="ctr"/><c:lblOffset val="100"/></c:catAx>` +
			`<c:valAx><c:axId val="50010002"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/>` +
			`<c:axPos val="` + valPos + `"/><c:majorGridlines/><c:numFmt formatCode="General" sourceLinked="0"/><c:tickLblPos val="nextTo"/>` +
			`<c:crossAx val="50010001"/><c:crosses val="autoZero"/><c:crossBetween val="between"/></c:valAx>`
	}

	legend := `<c:legend><c:legendPos val="b"/><c:overlay val="0"/></c:legend>`
	return xml.Header + `<c:chartSpace xmlns:c="` + nsC + `" xmlns:a="` + nsA + `" xmlns:r="` + nsR + `">` +
		`<c:roundedCorners val="0"/><c:chart><c:autoTitleDeleted val="1"/><c:plotArea><c:layout/>` + plot + `</c:plotArea>` +
		legend + `<c:plotVisOnly val="1"/></c:chart>` +
		fmt.Sprintf(`<c:txPr><a:bodyPr/><a:lstStyle/><a:p><a:pPr><a:defRPr sz="1400"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:defRPr></a:pPr><a:endParaRPr lang="en-US"/></a:p></c:txPr>`, theme.Text) +
		`</c:chartSpace>`
}
