package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/memovault"
	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/ingestion"
	"github.com/poiesic/memovault/keys"
	"github.com/poiesic/memovault/privacy"
	"github.com/poiesic/memovault/rekey"
	"github.com/urfave/cli/v2"
)

func keyFilePath(c *cli.Context) string {
	if path := c.String("key-file"); path != "" {
		return path
	}
	return filepath.Join(c.String("root"), memovault.DefaultKeyFile)
}

func openVault(c *cli.Context, opts ...memovault.VaultOption) (*memovault.Vault, error) {
	opts = append([]memovault.VaultOption{memovault.WithKeyFile(keyFilePath(c))}, opts...)
	v, err := memovault.Open(c.String("root"), opts...)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w (run \"memovault keygen\" first)", err)
		}
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return v, nil
}

// firstRunOptions returns WithGenerateKey only when root holds no record
// directories yet. Once records exist, a missing key is an operator error.
func firstRunOptions(c *cli.Context) []memovault.VaultOption {
	root := c.String("root")
	for _, kind := range core.Kinds() {
		if _, err := os.Stat(filepath.Join(root, kind.Dir())); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	return []memovault.VaultOption{memovault.WithGenerateKey()}
}

func aiConfig(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("llm-host")),
		ai.WithModel(c.String("llm-model")),
		ai.WithToken(c.String("llm-token")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func keygenCommand(c *cli.Context) error {
	path := keyFilePath(c)

	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) && !c.Bool("force") {
		if err != nil {
			return fmt.Errorf("failed to check key file %s: %w", path, err)
		}
		return fmt.Errorf("key file %s already exists (use --force to replace it)", path)
	}

	key, err := keys.Generate()
	if err != nil {
		return err
	}
	if err := keys.Persist(key, path); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Key written to %s\n", path)
	fmt.Fprintf(c.App.Writer, "Fingerprint: %s\n", keys.Fingerprint(key))
	return nil
}

func putCommand(c *cli.Context) error {
	ctx := context.Background()

	kind, err := core.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	var data []byte
	if path := c.String("file"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(c.App.Reader)
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	var payload any = string(data)
	if kind == core.KindMetadata {
		var m core.Metadata
		if err := json.Unmarshal(data, &m); err != nil || m == nil {
			return fmt.Errorf("%w: metadata must be a JSON object", core.ErrInvalidPayload)
		}
		payload = m
	}

	v, err := openVault(c, firstRunOptions(c)...)
	if err != nil {
		return err
	}
	defer v.Close()

	return v.Store().Save(ctx, kind, c.String("name"), payload)
}

func getCommand(c *cli.Context) error {
	ctx := context.Background()

	kind, err := core.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	payload, err := v.Store().Load(ctx, kind, c.String("name"))
	if err != nil {
		return err
	}

	if m, ok := payload.(core.Metadata); ok {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	_, err = fmt.Fprintln(c.App.Writer, payload)
	return err
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfig(c)
	if err != nil {
		return err
	}

	memos, err := ingestion.DiscoverMemos(c.String("dir"), c.StringSlice("ext")...)
	if err != nil {
		return fmt.Errorf("failed to list memos: %w", err)
	}
	if len(memos) == 0 {
		fmt.Fprintf(c.App.Writer, "No memos found in %s\n", c.String("dir"))
		return nil
	}

	opts := []ingestion.Option{
		ingestion.WithPoolSize(c.Int("workers")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithProgress(c.App.ErrWriter),
	}
	if salt := c.String("anon-salt"); salt != "" {
		anonymizer, err := privacy.NewHashAnonymizer([]byte(salt))
		if err != nil {
			return err
		}
		opts = append(opts, ingestion.WithAnonymizer(anonymizer))
	}

	v, err := openVault(c, append(firstRunOptions(c), memovault.WithAIConfig(config))...)
	if err != nil {
		return err
	}
	defer v.Close()

	pipeline, err := v.NewIngestionPipeline(ingestion.SidecarTranscriber{}, ingestion.FileMetadataExtractor{}, opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	fmt.Fprintf(c.App.ErrWriter, "Vault: %s\n", v.Root())
	fmt.Fprintf(c.App.ErrWriter, "Key fingerprint: %s\n", v.KeyFingerprint())
	fmt.Fprintf(c.App.ErrWriter, "Summarization model: %s at %s\n", config.Model, config.Host)
	fmt.Fprintln(c.App.ErrWriter)

	report, err := pipeline.Process(ctx, memos...)
	fmt.Fprintf(c.App.Writer, "Imported %d, skipped %d, failed %d\n",
		len(report.Processed), len(report.Skipped), len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(c.App.Writer, "  %s: %v\n", f.Name, f.Err)
	}
	if err != nil {
		return fmt.Errorf("%d memos failed", len(report.Failed))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	message := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return errors.New("a message is required")
	}

	config, err := aiConfig(c)
	if err != nil {
		return err
	}

	v, err := openVault(c, memovault.WithAIConfig(config))
	if err != nil {
		return err
	}
	defer v.Close()

	responder, err := v.NewResponder()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, responder.Respond(ctx, message))
	return err
}

func rekeyCommand(c *cli.Context) error {
	ctx := context.Background()

	config := &rekey.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	path := keyFilePath(c)
	fmt.Fprintf(c.App.ErrWriter, "Vault: %s\n", c.String("root"))
	fmt.Fprintf(c.App.ErrWriter, "Key file: %s\n", path)
	fmt.Fprintln(c.App.ErrWriter)

	result, err := rekey.RotateKey(ctx, c.String("root"), path, config, c.App.ErrWriter)
	if err != nil {
		if result != nil {
			for _, failed := range result.Failed {
				fmt.Fprintf(c.App.Writer, "  not migrated: %s\n", failed)
			}
		}
		return fmt.Errorf("key rotation failed: %w", err)
	}

	key, err := keys.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Re-encrypted %d records\n", result.Migrated+result.Skipped)
	fmt.Fprintf(c.App.Writer, "New fingerprint: %s\n", keys.Fingerprint(key))
	return nil
}

func eventsCommand(c *cli.Context) error {
	ctx := context.Background()

	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	events, err := v.Events().Recent(ctx, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "failed:" + e.ErrorClass
		}
		fmt.Fprintf(c.App.Writer, "%6d  %s  %-4s  %-13s  %-20s  %8d  %s\n",
			e.Id,
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Op,
			e.Kind,
			e.Name,
			e.Bytes,
			status)
	}
	return nil
}
