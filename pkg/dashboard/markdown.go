package dashboard

import (
	"bytes"
	"context"
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/richard-senior/matchpredict/pkg/app"
)

// RenderMarkdown renders the report's HTML view and converts it to Markdown,
// for terminals and MCP clients.
func RenderMarkdown(ctx context.Context, r *app.Report) (string, error) {
	var buf bytes.Buffer
	if err := ReportView(r).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert report to markdown: %w", err)
	}
	return md, nil
}
