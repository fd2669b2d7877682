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


package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "memovault",
		Usage:     "Encrypted local store for voice memo transcriptions, summaries and metadata",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Vault root directory",
				Value:   "./data",
				EnvVars: []string{"MEMOVAULT_ROOT"},
			},
			&cli.StringFlag{
				Name:    "key-file",
				Aliases: []string{"k"},
				Usage:   "Path to the encryption key file (default: <root>/.memovault.key)",
				EnvVars: []string{"MEMOVAULT_KEY_FILE"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Generate a new encryption key",
				Action: keygenCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Replace an existing key; records encrypted under it become unreadable",
					},
				},
			},
			{
				Name:   "put",
				Usage:  "Store a record read from a file or stdin",
				Action: putCommand,
				Flags: []cli.Flag{
					kindFlag(),
					nameFlag(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the payload from this file instead of stdin",
					},
				},
			},
			{
				Name:   "get",
				Usage:  "Print a stored record",
				Action: getCommand,
				Flags:  []cli.Flag{kindFlag(), nameFlag()},
			},
			{
				Name:   "import",
				Usage:  "Transcribe, annotate, summarize and store every memo in a directory",
				Action: importCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Directory holding the memos",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "Memo file extensions to import; each needs a .txt transcript beside it",
						Value: cli.NewStringSlice(".txt"),
					},
					&cli.StringFlag{
						Name:    "anon-salt",
						Usage:   "Salt for hashing location and speaker metadata; empty stores them as extracted",
						EnvVars: []string{"MEMOVAULT_ANON_SALT"},
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of memos processed concurrently",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each transcription, extraction or summary call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				}, llmFlags()...),
			},
			{
				Name:      "ask",
				Usage:     "Answer a chat message about the stored memos",
				ArgsUsage: "<message>",
				Action:    askCommand,
				Flags:     llmFlags(),
			},
			{
				Name:   "rekey",
				Usage:  "Re-encrypt every record under a new key and replace the key file",
				Action: rekeyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "events",
				Usage:  "Show recent storage events",
				Action: eventsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of events to show",
						Value:   20,
					},
				},
			},
		},
	}
}

func kindFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "kind",
		Usage:    "Record kind (transcription, summary, metadata)",
		Required: true,
	}
}

func nameFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "name",
		Usage:    "Record name",
		Required: true,
	}
}

func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "llm-host",
			Usage:   "OpenAI-compatible summarization service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"MEMOVAULT_LLM_HOST"},
		},
		&cli.StringFlag{
			Name:    "llm-model",
			Usage:   "Summarization model name",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"MEMOVAULT_LLM_MODEL"},
		},
		&cli.StringFlag{
			Name:    "llm-token",
			Usage:   "API token for the summarization service",
			EnvVars: []string{"MEMOVAULT_LLM_TOKEN"},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
