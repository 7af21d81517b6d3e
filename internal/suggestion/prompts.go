package suggestion

import (
	"fmt"

	"social-support-wizard/internal/models"
)

const systemPrompt = "You are an assistant helping people write descriptions for a government social support application. " +
	"Be empathetic, professional, and help them articulate their situation clearly and respectfully. " +
	"Keep responses concise but detailed enough to be helpful."

type promptPair struct {
	fresh   string
	improve string
}

var prompts = map[models.NarrativeField]promptPair{
	models.FieldCurrentFinancialSituation: {
		fresh:   "Help me describe my current financial situation for a social support application. I need to explain my financial hardships clearly and professionally.",
		improve: "Help me improve this description of my current financial situation: %q",
	},
	models.FieldEmploymentCircumstances: {
		fresh:   "Help me describe my employment circumstances for a social support application. I need to explain my current job situation and any challenges I face.",
		improve: "Help me improve this description of my employment circumstances: %q",
	},
	models.FieldReasonForApplying: {
		fresh:   "Help me explain why I am applying for government social support. I need to clearly state my need for assistance and how it would help my situation.",
		improve: "Help me improve this explanation of why I am applying for support: %q",
	},
}

// userPrompt picks the improvement prompt when the user already wrote
// something.
func userPrompt(field models.NarrativeField, existingText string) (string, error) {
	p, ok := prompts[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if existingText == "" {
		return p.fresh, nil
	}
	return fmt.Sprintf(p.improve, existingText), nil
}
