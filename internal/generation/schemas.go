package generation

import "ai-forge/internal/schema"

// PlanSchema is the structural contract for the planning stage.
// Every field is required and every string, including array items, must be non-empty.
var PlanSchema = schema.Object("plan",
	schema.Required("overview", schema.NonEmptyString().
		Describe("A comprehensive overview of the project")),
	schema.Required("features", schema.Array(schema.NonEmptyString(), 1).
		Describe("Key features to implement, in priority order")),
	schema.Required("techStack", schema.Array(schema.NonEmptyString(), 1).
		Describe("Technologies, frameworks and libraries to use")),
	schema.Required("folderStructure", schema.NonEmptyString().
		Describe("The project directory layout as a text tree")),
	schema.Required("implementationSteps", schema.Array(schema.NonEmptyString(), 1).
		Describe("Ordered step-by-step implementation instructions")),
)

// FilesSchema is the structural contract for the code generation stage:
// an object mapping relative file paths to complete file contents.
var FilesSchema = schema.Map("files", schema.NonEmptyString(), schema.NonEmptyString().
	Describe("Complete file content")).
	Describe("Map of relative file path to file content")
