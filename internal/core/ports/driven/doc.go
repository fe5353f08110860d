// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - LedgerStore: Persisted set of already ingested filenames
//   - KnowledgeBase: Folder of source files
//   - DocumentLoader: Extracts page text from a knowledge-base file
//   - Splitter: Cuts documents into chunks
//   - EmbeddingService: Turns text into vectors
//   - VectorStore: Persists chunk vectors and answers similarity queries
//   - LLMService: Generates the final answer
//
// # Optional Interfaces
//
//   - RateLimiter: Front-end request budget per client. Nil disables limiting.
//   - PromptStore: Operator-editable prompt templates. Nil uses the built-in prompt.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
