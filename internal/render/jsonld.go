package render

import (
	"encoding/json"
	"fmt"
)

// buildJSONLD assembles the schema.org Article/FAQPage/BreadcrumbList
// graph required by spec §4.11, returning it wrapped in a
// <script type="application/ld+json"> tag.
func buildJSONLD(in Input) string {
	graph := []any{articleNode(in)}
	if len(in.FAQs) > 0 {
		graph = append(graph, faqPageNode(in.FAQs))
	}
	graph = append(graph, breadcrumbNode(in.Headline))

	doc := map[string]any{
		"@context": "https://schema.org",
		"@graph":   graph,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return fmt.Sprintf("<script type=\"application/ld+json\">\n%s\n</script>", data)
}

func articleNode(in Input) map[string]any {
	return map[string]any{
		"@type":       "Article",
		"headline":    in.Headline,
		"description": in.MetaDescription,
		"articleBody": in.Intro,
	}
}

func faqPageNode(faqs []InputQA) map[string]any {
	entities := make([]map[string]any, 0, len(faqs))
	for _, f := range faqs {
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  f.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  f.Answer,
			},
		})
	}
	return map[string]any{
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

func breadcrumbNode(headline string) map[string]any {
	return map[string]any{
		"@type": "BreadcrumbList",
		"itemListElement": []map[string]any{
			{
				"@type":    "ListItem",
				"position": 1,
				"name":     "Home",
			},
			{
				"@type":    "ListItem",
				"position": 2,
				"name":     headline,
			},
		},
	}
}
