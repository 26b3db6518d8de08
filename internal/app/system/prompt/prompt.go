// Package prompt renders the completion prompt for a family's weekly plan.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dalemusser/mealplanner/internal/domain/models"
)

const intro = "Generate a 7-day weekly meal plan for a family of four, accommodating the following dietary restrictions:\n\n"

const guidance = "Each day's plan should include breakfast, lunch, and dinner for each member. " +
	"Ensure the meals are balanced, varied, and realistic for a family, using common ingredients. " +
	"Avoid any restricted items mentioned above.\n\n"

const priorClause = "The family's previous meal plan is included below for reference. " +
	"Use it to keep the new week varied: do not repeat the same meals where a reasonable alternative exists, " +
	"while still respecting every restriction.\n\n"

const formatHeader = "**Format the response in valid JSON with the following structure**:\n\n"

// Build returns the prompt for rec. When prior is non-empty it is embedded
// verbatim, with an instruction to vary the new plan against it.
//
// All four member slots are listed. A blank slot is rendered with an empty
// name and the restriction "None"; only members with an email appear as keys
// in the JSON example, since a blank key could not be attributed to anyone.
func Build(rec models.RestrictionRecord, prior []byte) string {
	var b strings.Builder

	b.WriteString(intro)
	for i, m := range rec.Members {
		restriction := strings.TrimSpace(m.Restriction)
		if restriction == "" {
			restriction = models.DefaultRestriction
		}
		fmt.Fprintf(&b, "- Member %d (First Name: %s): %s\n", i+1, m.FirstName, restriction)
	}
	b.WriteString("\n")
	b.WriteString(guidance)

	if p := bytes.TrimSpace(prior); len(p) > 0 {
		b.WriteString(priorClause)
		b.WriteString("Previous meal plan:\n")
		b.Write(p)
		b.WriteString("\n\n")
	}

	b.WriteString(formatHeader)
	writeExample(&b, rec)
	return b.String()
}

func writeExample(b *strings.Builder, rec models.RestrictionRecord) {
	b.WriteString("{\n")

	active := 0
	for _, m := range rec.Members {
		if !m.IsEmpty() {
			active++
		}
	}

	written := 0
	for i, m := range rec.Members {
		if m.IsEmpty() {
			continue
		}
		written++
		fmt.Fprintf(b, "  %q: [\n", m.Email)
		for day := 1; day <= models.DaysPerPlan; day++ {
			meal := fmt.Sprintf("Meal for member %d", i+1)
			fmt.Fprintf(b, "    { \"day\": %d, \"breakfast\": %q, \"lunch\": %q, \"dinner\": %q }", day, meal, meal, meal)
			if day < models.DaysPerPlan {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("  ]")
		if written < active {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString("}")
}
