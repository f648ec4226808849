package generation

import (
	"fmt"
	"strings"

	"ai-forge/pkg/models"
)

// SystemPrompt is shared by the planning and code generation stages
const SystemPrompt = `You are an expert Next.js developer who builds modern web applications.
You have deep knowledge of React, TypeScript and the Next.js App Router.
You write clean, maintainable code and follow established conventions.
You use shadcn/ui components and Tailwind CSS for styling.
You organize Next.js projects with a clear, conventional folder layout.`

func planPrompt(idea string) string {
	return fmt.Sprintf(`Create a detailed project plan for the following project idea: "%s".

Provide a structured response with:
- A comprehensive overview of the project
- A list of key features to implement
- A detailed technology stack (focusing on Next.js, React, TypeScript, and shadcn/ui)
- A clear folder structure following Next.js App Router conventions
- Step-by-step implementation instructions

Be specific and detailed in your planning.`, idea)
}

func codegenPrompt(plan *models.ProjectPlan) string {
	var b strings.Builder

	b.WriteString("Based on this project plan:\n\n")
	b.WriteString("Overview: ")
	b.WriteString(plan.Overview)
	b.WriteString("\n\nFeatures:\n")
	writeBullets(&b, plan.Features)
	b.WriteString("\nTechnology Stack:\n")
	writeBullets(&b, plan.TechStack)
	b.WriteString("\nFolder Structure:\n")
	b.WriteString(plan.FolderStructure)
	b.WriteString("\n\nImplementation Steps:\n")
	writeNumbered(&b, plan.ImplementationSteps)

	b.WriteString(`
Generate all the necessary code files for this project. Your response must be a JSON object where:
- Each key is a relative file path (e.g., "app/page.tsx")
- Each value is the complete code for that file as a string

Follow these guidelines:
- Use the Next.js App Router structure
- Implement shadcn/ui components for the UI
- Use Tailwind CSS for styling
- Write clean TypeScript code
- Include all necessary files to make the project functional, including package.json
- Never emit a path that is both a file and a directory
- Ensure the code is complete and follows best practices`)

	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
