package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the retrieval-augmented answer prompt.
	// It carries {context} and {input} placeholders.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt is the built-in answer template.
// {context} receives the retrieved passages and {input} the question.
const DefaultAnswerPrompt = `<s>[INST] You are a technical assistant that answers strictly from provided context.
If unsure, say "I don't know based on my training data". Context: {context}
Question: {input} [/INST]</s>`
