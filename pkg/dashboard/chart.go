package dashboard

import (
	"fmt"

	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/util"
)

const (
	chartWidth     = 480
	chartBarHeight = 22
	chartGap       = 8
	chartLabelW    = 60
	chartTop       = 30
	chartTitleLine = 16 // 14px title at 1.2 spacing
)

// ImportanceChart draws the report's top features as horizontal bars scaled
// to the most important one. Long fixture titles wrap and push the bars down.
func ImportanceChart(r *app.Report) (*util.SVG, error) {
	p := r.Prediction
	n := len(p.TopFeatures)
	title := fmt.Sprintf("Top influencing features for %s v %s", r.Home.Team, r.Away.Team)

	// height is fixed up once the title has wrapped
	svg, err := util.NewBlankSVG(chartWidth, chartTop)
	if err != nil {
		return nil, err
	}
	svg.Name = "importance"

	t, err := svg.AddWrappedText("title", title, "font-size: 14px; font-family: Arial; fill: #222;", 4, 18, chartWidth-8, 12, 2)
	if err != nil {
		return nil, err
	}
	top := chartTop + (len(t.Lines)-1)*chartTitleLine
	svg.Height = top + n*(chartBarHeight+chartGap) + chartGap
	if n == 0 {
		return svg, nil
	}

	most := p.TopFeatures[0].Importance
	for _, fw := range p.TopFeatures {
		most = max(most, fw.Importance)
	}
	barSpace := chartWidth - chartLabelW - 70

	for i, fw := range p.TopFeatures {
		y := top + i*(chartBarHeight+chartGap)
		w := 0
		if most > 0 {
			w = int(float64(barSpace) * fw.Importance / most)
		}
		svg.AddRect(&util.SVGRect{
			Name:   "bar-" + fw.Feature,
			X:      chartLabelW,
			Y:      y,
			Width:  w,
			Height: chartBarHeight,
			Layer:  1,
			Title:  fmt.Sprintf("%s importance %.3f, value %.2f", fw.Feature, fw.Importance, fw.Value),
		})
		if _, err := svg.AddText("label-"+fw.Feature, fw.Feature, "font-size: 12px; font-family: Arial; fill: #222;", 4, y+15, 2); err != nil {
			return nil, err
		}
		if _, err := svg.AddText("value-"+fw.Feature, fmt.Sprintf("%.3f", fw.Importance), "font-size: 12px; font-family: Arial; fill: #555;", chartLabelW+w+6, y+15, 2); err != nil {
			return nil, err
		}
	}
	return svg, nil
}
