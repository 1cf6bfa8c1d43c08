package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchpredict/pkg/protocol"
)

type recorder struct {
	prompts   []protocol.Prompt
	renderers map[string]func(map[string]string) (*protocol.GetPromptResult, error)
}

func (r *recorder) RegisterPrompt(p protocol.Prompt, fn func(map[string]string) (*protocol.GetPromptResult, error)) {
	if r.renderers == nil {
		r.renderers = map[string]func(map[string]string) (*protocol.GetPromptResult, error){}
	}
	r.prompts = append(r.prompts, p)
	r.renderers[p.Name] = fn
}

func TestRender(t *testing.T) {
	p := Builtin()[0]
	res, err := Render(p, map[string]string{"home": " Arsenal ", "away": "Chelsea"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "user", res.Messages[0].Role)
	assert.Contains(t, res.Messages[0].Content.Text, "Arsenal v Chelsea")
	assert.NotContains(t, res.Messages[0].Content.Text, "{{")

	_, err = Render(p, map[string]string{"home": "Arsenal", "away": "  "})
	assert.ErrorContains(t, err, "missing required arguments: away")
}

func TestRenderKeepsUnknownPlaceholders(t *testing.T) {
	p := protocol.Prompt{Name: "x", Template: "{{team}} and {{other}}"}
	res, err := Render(p, map[string]string{"team": "Spurs"})
	require.NoError(t, err)
	assert.Equal(t, "Spurs and {{other}}", res.Messages[0].Content.Text)
}

func TestRegisterWithDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("derby.json", `{"description":"Derby day","arguments":[{"name":"home","required":true}],"template":"{{home}} derby"}`)
	write("team_report.json", `{"name":"team_report","template":"Short report on {{team}}"}`)
	write("broken.json", `{not json`)
	write("Bad Name.json", `{"template":"x"}`)
	write("notes.txt", `ignored`)

	r := &recorder{}
	require.NoError(t, Register(r, dir))

	var names []string
	for _, p := range r.prompts {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"match_preview", "team_report", "derby"}, names)

	res, err := r.renderers["team_report"](map[string]string{"team": "Spurs"})
	require.NoError(t, err)
	assert.Equal(t, "Short report on Spurs", res.Messages[0].Content.Text)

	res, err = r.renderers["derby"](map[string]string{"home": "Arsenal"})
	require.NoError(t, err)
	assert.Equal(t, "Arsenal derby", res.Messages[0].Content.Text)
}

func TestRegisterMissingDirectory(t *testing.T) {
	assert.Error(t, Register(&recorder{}, filepath.Join(t.TempDir(), "missing")))
}
