package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/dashboard"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/protocol"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
	"github.com/richard-senior/matchpredict/pkg/util"
)

// Registrar is satisfied by *server.Server.
type Registrar interface {
	RegisterTool(tool protocol.Tool, handler func(params any) (any, error))
}

// Register adds every prediction tool, bound to a.
func Register(r Registrar, a *app.App) {
	r.RegisterTool(ListTeamsTool(), HandleListTeams(a))
	r.RegisterTool(PredictMatchTool(), HandlePredictMatch(a))
	r.RegisterTool(TeamStatsTool(), HandleTeamStats(a))
	r.RegisterTool(TeamSentimentTool(), HandleTeamSentiment(a))
	r.RegisterTool(ImportanceChartTool(), HandleImportanceChart(a))
}

func teamSchema(description string) protocol.InputSchema {
	return protocol.InputSchema{
		Type: "object",
		Properties: map[string]protocol.ToolProperty{
			"team": {Type: "string", Description: description},
		},
		Required: []string{"team"},
	}
}

// stringParam reads a required, non-empty string argument.
func stringParam(params any, name string) (string, error) {
	paramsMap, ok := params.(map[string]any)
	if !ok {
		return "", fmt.Errorf("invalid parameters format")
	}
	v, ok := paramsMap[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s parameter is required and must be a string", name)
	}
	return strings.TrimSpace(v), nil
}

// intParam reads an optional integer argument, returning def when it is absent.
func intParam(params any, name string, def int) (int, error) {
	paramsMap, ok := params.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("invalid parameters format")
	}
	v, ok := paramsMap[name]
	if !ok || v == nil {
		return def, nil
	}
	n, err := util.GetAsInteger(v)
	if err != nil {
		return 0, fmt.Errorf("%s parameter must be an integer: %w", name, err)
	}
	return n, nil
}

// predictParams reads home, away and the optional top count shared by the
// prediction tools.
func predictParams(a *app.App, params any) (home, away string, top int, err error) {
	if home, err = stringParam(params, "home"); err != nil {
		return
	}
	if away, err = stringParam(params, "away"); err != nil {
		return
	}
	top, err = intParam(params, "top", a.Config.Server.TopFeatures)
	return
}

func ListTeamsTool() protocol.Tool {
	return protocol.Tool{
		Name:        "list_teams",
		Description: "Lists every team that has match statistics and can be used with predict_match, team_stats and team_sentiment. Names must be passed exactly as listed.",
		InputSchema: protocol.InputSchema{Type: "object", Required: []string{}},
	}
}

func HandleListTeams(a *app.App) func(any) (any, error) {
	return func(params any) (any, error) {
		teams := a.Teams()
		return protocol.TextResult(strings.Join(teams, "\n"), map[string]any{"teams": teams}), nil
	}
}

func PredictMatchTool() protocol.Tool {
	return protocol.Tool{
		Name: "predict_match",
		Description: `
		Predicts the full-time result of a fixture between two different teams using the trained match outcome model.
		Returns the predicted outcome (Home Win, Draw or Away Win), the confidence, the probability of each outcome,
		both teams' average statistics, fan sentiment and the most influential features (five unless top is given).
		Use list_teams first if unsure of the exact team names.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home": {Type: "string", Description: "The home team, eg. Arsenal"},
				"away": {Type: "string", Description: "The away team, eg. Chelsea. Must differ from home"},
				"top":  {Type: "integer", Description: "How many of the most influential features to list, from 1 to 12"},
			},
			Required: []string{"home", "away"},
		},
	}
}

func HandlePredictMatch(a *app.App) func(any) (any, error) {
	return func(params any) (any, error) {
		home, away, top, err := predictParams(a, params)
		if err != nil {
			return nil, err
		}
		report, err := a.PredictTop(home, away, top)
		if err != nil {
			return nil, err
		}
		md, err := dashboard.RenderMarkdown(context.Background(), report)
		if err != nil {
			logger.Warn("Falling back to plain summary", err)
			md = fmt.Sprintf("%s v %s: %s (%.1f%%)", home, away, report.Prediction.Label, 100*report.Prediction.Confidence)
		}
		return protocol.TextResult(md, report), nil
	}
}

func TeamStatsTool() protocol.Tool {
	return protocol.Tool{
		Name:        "team_stats",
		Description: "Returns a team's average per-match statistics (own and conceded shots, shots on target, corners, fouls, cards), its win/draw/loss record and recent form.",
		InputSchema: teamSchema("The team name, eg. Arsenal"),
	}
}

func HandleTeamStats(a *app.App) func(any) (any, error) {
	return func(params any) (any, error) {
		team, err := stringParam(params, "team")
		if err != nil {
			return nil, err
		}
		summary, err := a.Team(team)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", summary.Record)
		fmt.Fprintf(&b, "Averages over %d matches:\n", summary.Features.Matches)
		for sl := predictor.Slot(0); sl < predictor.NumSlots; sl++ {
			fmt.Fprintf(&b, "  %-26s %.2f\n", sl, summary.Features.Get(sl))
		}
		return protocol.TextResult(b.String(), map[string]any{
			"team":     summary.Team,
			"matches":  summary.Features.Matches,
			"averages": summary.Features.Named(),
			"record":   summary.Record,
		}), nil
	}
}

func TeamSentimentTool() protocol.Tool {
	return protocol.Tool{
		Name:        "team_sentiment",
		Description: "Returns the positive, neutral and negative fan sentiment counts recorded for a team. Teams without records report no data.",
		InputSchema: teamSchema("The team name exactly as listed by list_teams"),
	}
}

func HandleTeamSentiment(a *app.App) func(any) (any, error) {
	return func(params any) (any, error) {
		team, err := stringParam(params, "team")
		if err != nil {
			return nil, err
		}
		tally := a.Sentiment.For(team)
		if tally.IsEmpty() {
			return protocol.TextResult(fmt.Sprintf("No sentiment data for %s", team), tally), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %d records\n", team, tally.Total())
		for _, l := range sentiment.Labels {
			fmt.Fprintf(&b, "  %-8s %d (%.1f%%)\n", l, tally.Count(l), 100*tally.Share(l))
		}
		return protocol.TextResult(b.String(), tally), nil
	}
}
