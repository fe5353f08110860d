package chat

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// instruction tags some models echo back from the prompt template.
var promptTags = strings.NewReplacer("<s>[INST]", "", "[/INST]</s>", "")

// CleanAnswer strips echoed prompt tags and surrounding whitespace.
func CleanAnswer(answer string) string {
	return strings.TrimSpace(promptTags.Replace(answer))
}

// Format renders an answer and its citations as Slack mrkdwn.
func Format(result *domain.QueryResult) string {
	var b strings.Builder
	b.WriteString("*Answer*:\n")
	b.WriteString(CleanAnswer(result.Answer))
	b.WriteString("\n\n*Sources (Citations)*:")
	for _, s := range result.Sources {
		page := s.Page
		if page == "" {
			page = domain.UnknownPage
		}
		fmt.Fprintf(&b, "\n> *Source*: %s (Page: %s)", s.Source, page)
	}
	return b.String()
}
