package analysis

import (
	"fmt"
	"strings"

	"decklens/deck"
	"decklens/research"
)

// analysisPrompt frames the deck content for the model. The response is
// expected to follow the eleven numbered sections; the report stage takes
// it as free-form markdown either way.
const analysisPrompt = `You are an expert investment analyst specializing in early-stage startup evaluation. Analyze the following pitch deck content and provide a comprehensive investment analysis report.

**COMPANY:** %s

**PITCH DECK CONTENT:**
%s
%s
**ANALYSIS REQUIREMENTS:**
Provide a detailed analysis covering the following areas:

1. **COMPANY OVERVIEW** - name, mission, industry, stage, geography
2. **BUSINESS MODEL ANALYSIS** - revenue model, unit economics, customer acquisition, scalability
3. **MARKET ANALYSIS** - TAM/SAM/SOM, trends, competitive landscape, timing
4. **PRODUCT/SERVICE EVALUATION** - value proposition, technology, product-market fit, moats
5. **TEAM ASSESSMENT** - founder backgrounds, composition, advisors, execution capability
6. **FINANCIAL ANALYSIS** - current status, projections, funding requirements, key metrics
7. **TRACTION AND MILESTONES** - customers, revenue growth, partnerships, product milestones
8. **RISK ASSESSMENT** - market, execution, financial, regulatory risks
9. **INVESTMENT RECOMMENDATION** - attractiveness (1-10), strengths, red flags, due diligence areas
10. **ADDITIONAL RESEARCH SUGGESTIONS** - questions for management, areas to investigate, comparables
11. **ONLINE RESEARCH** - what the company's web presence (links and findings above) confirms or contradicts

**OUTPUT FORMAT:**
Structure the response as a well-formatted markdown document suitable for an investment manager. Use clear headings and bullet points. If information is missing from the deck, say what would be needed for a complete assessment.`

// BuildPrompt serializes the bundle and research findings into the single
// analysis request. Image parts are attached separately by the client.
func BuildPrompt(b *deck.ContentBundle, companyName string, findings []research.Finding) string {
	return fmt.Sprintf(analysisPrompt, companyName, b.FullText(), appendix(b, findings))
}

func appendix(b *deck.ContentBundle, findings []research.Finding) string {
	var sb strings.Builder

	if len(b.URLs) > 0 {
		sb.WriteString("\n**URLS FOUND IN DECK:**\n")
		for _, u := range b.URLs {
			state := "well-formed"
			if !u.WellFormed {
				state = "malformed"
			}
			fmt.Fprintf(&sb, "- %s (page %d, from %s, %s)\n", u.Raw, u.PageOrdinal, u.Source, state)
		}
	}
	if len(b.Emails) > 0 {
		sb.WriteString("\n**EMAIL ADDRESSES:**\n")
		for _, e := range b.Emails {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}
	if len(findings) > 0 {
		sb.WriteString("\n**ONLINE RESEARCH FINDINGS:**\n")
		for _, f := range findings {
			if !f.Reachable {
				fmt.Fprintf(&sb, "- %s: unreachable (%s)\n", f.URL, f.Error)
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", f.URL, f.Title)
			if f.Excerpt != "" {
				fmt.Fprintf(&sb, "  %s\n", strings.ReplaceAll(f.Excerpt, "\n", " "))
			}
		}
	}
	if !b.TextIsNative {
		sb.WriteString("\nNOTE: the deck has no text layer; page images carry the content.\n")
	}
	return sb.String()
}

// GuessCompanyName takes the first short line of deck text that does not
// look like boilerplate, falling back to a cleaned-up file name.
func GuessCompanyName(b *deck.ContentBundle, fileName string) string {
	lines := strings.Split(b.FullText(), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || len(line) >= 50 {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "pitch") || strings.HasPrefix(lower, "deck") || strings.HasPrefix(lower, "presentation") {
			continue
		}
		return line
	}

	base := fileName
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	words := strings.Fields(base)
	if len(words) == 0 {
		return "Unknown Company"
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
