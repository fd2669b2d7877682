// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by the memo
// pipeline.
//
// The package defines the collaborators the pipeline depends on:
//
//   - Transcriber: converts a recording to text
//   - MetadataExtractor: derives descriptive metadata from a recording
//   - Summarizer: condenses a transcript
//   - AIProvider: aggregates services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Summarizer backed by OpenAI-compatible chat APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewSummarizer) return
// interface types. Mock constructors return concrete types so tests can
// inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("gpt-4o-mini"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	summary, err := provider.Summarizer().Summarize(ctx, transcript)
package ai
