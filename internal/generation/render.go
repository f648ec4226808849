package generation

import (
	"strings"

	"ai-forge/pkg/models"
)

// RenderPlan formats a plan as Markdown for display: heading, overview,
// bulleted features and tech stack, fenced folder structure, numbered steps.
func RenderPlan(prompt string, plan *models.ProjectPlan) string {
	var b strings.Builder

	b.WriteString("# Project Plan: ")
	b.WriteString(prompt)
	b.WriteString("\n\n## Overview\n")
	b.WriteString(plan.Overview)
	b.WriteString("\n\n## Features\n")
	writeBullets(&b, plan.Features)
	b.WriteString("\n## Technology Stack\n")
	writeBullets(&b, plan.TechStack)
	b.WriteString("\n## Folder Structure\n```\n")
	b.WriteString(strings.TrimRight(plan.FolderStructure, "\n"))
	b.WriteString("\n```\n\n## Implementation Steps\n")
	writeNumbered(&b, plan.ImplementationSteps)

	return b.String()
}
