package prompts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/protocol"
)

// Registrar is satisfied by *server.Server.
type Registrar interface {
	RegisterPrompt(prompt protocol.Prompt, renderer func(args map[string]string) (*protocol.GetPromptResult, error))
}

var validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var placeholder = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*)\s*\}\}`)

// Builtin returns the prompts that ship with the server.
func Builtin() []protocol.Prompt {
	return []protocol.Prompt{
		{
			Name:        "match_preview",
			Description: "Write a preview of a fixture using the model's prediction and both teams' statistics",
			Arguments: []protocol.PromptArgument{
				{Name: "home", Description: "The home team", Required: true},
				{Name: "away", Description: "The away team", Required: true},
			},
			Template: `Write a short preview of {{home}} v {{away}}.
Call predict_match with home "{{home}}" and away "{{away}}" and base the preview on its result.
Quote the predicted outcome and confidence, compare the two sides using the most influential features,
and mention fan sentiment where there is data for it. Do not invent statistics the tools did not return.`,
		},
		{
			Name:        "team_report",
			Description: "Summarise a team's season from its averages, record and fan sentiment",
			Arguments: []protocol.PromptArgument{
				{Name: "team", Description: "The team name as listed by list_teams", Required: true},
			},
			Template: `Summarise how {{team}} are doing.
Use team_stats for "{{team}}" to describe their attacking and defensive averages, record and recent form,
then team_sentiment for "{{team}}" to describe how their fans feel.`,
		},
	}
}

// Render substitutes args into the prompt's template. Every required argument
// must be present and non-blank; unknown placeholders are left as they are.
func Render(p protocol.Prompt, args map[string]string) (*protocol.GetPromptResult, error) {
	var missing []string
	for _, a := range p.Arguments {
		if a.Required && strings.TrimSpace(args[a.Name]) == "" {
			missing = append(missing, a.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt %s is missing required arguments: %s", p.Name, strings.Join(missing, ", "))
	}

	text := placeholder.ReplaceAllStringFunc(p.Template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if v, ok := args[key]; ok {
			return strings.TrimSpace(v)
		}
		return m
	})
	return &protocol.GetPromptResult{
		Description: p.Description,
		Messages: []protocol.PromptMessage{
			{Role: "user", Content: protocol.PromptContent{Type: "text", Text: text}},
		},
	}, nil
}

// LoadDir reads every *.json prompt in dir. A file that cannot be read or
// parsed is logged and skipped.
func LoadDir(dir string) ([]protocol.Prompt, error) {
	var prompts []protocol.Prompt
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		p, err := readPrompt(path)
		if err != nil {
			logger.Warn("Failed to read prompt", path, err)
			return nil
		}
		prompts = append(prompts, *p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

func readPrompt(path string) (*protocol.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p protocol.Prompt
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if !validName.MatchString(p.Name) {
		return nil, fmt.Errorf("invalid prompt name %q", p.Name)
	}
	if strings.TrimSpace(p.Template) == "" {
		return nil, fmt.Errorf("prompt %s has no template", p.Name)
	}
	return &p, nil
}

// Register adds the built-in prompts and any found in dir. A prompt in dir
// replaces a built-in of the same name.
func Register(r Registrar, dir string) error {
	byName := map[string]protocol.Prompt{}
	var order []string
	add := func(p protocol.Prompt) {
		if _, ok := byName[p.Name]; !ok {
			order = append(order, p.Name)
		}
		byName[p.Name] = p
	}
	for _, p := range Builtin() {
		add(p)
	}
	if dir != "" {
		extra, err := LoadDir(dir)
		if err != nil {
			return err
		}
		for _, p := range extra {
			add(p)
		}
	}

	for _, name := range order {
		p := byName[name]
		r.RegisterPrompt(p, func(args map[string]string) (*protocol.GetPromptResult, error) {
			return Render(p, args)
		})
	}
	return nil
}
