package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/dashboard"
	"github.com/richard-senior/matchpredict/pkg/protocol"
)

func ImportanceChartTool() protocol.Tool {
	return protocol.Tool{
		Name: "importance_chart",
		Description: `
		Draws the features that most influenced the prediction for a fixture as an SVG bar chart, five unless top is given.
		- Use home and away exactly as listed by list_teams
		- Use destpath to write the chart to an absolute .svg filepath, otherwise the SVG markup is returned
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home":     {Type: "string", Description: "The home team"},
				"away":     {Type: "string", Description: "The away team"},
				"top":      {Type: "integer", Description: "How many features to draw, from 1 to 12"},
				"destpath": {Type: "string", Description: "Absolute filepath of the SVG file to create"},
			},
			Required: []string{"home", "away"},
		},
	}
}

func HandleImportanceChart(a *app.App) func(any) (any, error) {
	return func(params any) (any, error) {
		home, away, top, err := predictParams(a, params)
		if err != nil {
			return nil, err
		}
		report, err := a.PredictTop(home, away, top)
		if err != nil {
			return nil, err
		}
		chart, err := dashboard.ImportanceChart(report)
		if err != nil {
			return nil, err
		}

		dest, _ := params.(map[string]any)["destpath"].(string)
		if dest == "" {
			markup, err := chart.ToSVG()
			if err != nil {
				return nil, err
			}
			return protocol.TextResult(markup, nil), nil
		}
		if !filepath.IsAbs(dest) || !strings.HasSuffix(strings.ToLower(dest), ".svg") {
			return nil, fmt.Errorf("destpath must be an absolute path ending in .svg, got %q", dest)
		}
		if err := chart.ToSVGFile(dest); err != nil {
			return nil, err
		}
		return protocol.TextResult(fmt.Sprintf("Wrote %s v %s chart to %s", home, away, dest), map[string]string{"path": dest}), nil
	}
}
