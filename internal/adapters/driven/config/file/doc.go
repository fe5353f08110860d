// Package file provides file-based configuration adapters.
//
// Adapters:
//   - SettingsStore: TOML settings with .env and environment overrides
//   - PromptStore: user-editable prompt templates under <data_dir>/prompts
package file
