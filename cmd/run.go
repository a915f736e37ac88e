package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bitergia/grimoirelab-metrics/core"
	"github.com/bitergia/grimoirelab-metrics/internal/cloud"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/grimoirelab"
	"github.com/bitergia/grimoirelab-metrics/internal/opensearch"
	"github.com/bitergia/grimoirelab-metrics/internal/outwriter"
)

// awsServices lazily builds the AWS clients needed by a run.
type awsServices struct {
	region  string
	secrets contract.SecretStore
	objects contract.ObjectStore
}

func (a *awsServices) load(ctx context.Context) error {
	if a.secrets != nil {
		return nil
	}
	awsCfg, err := cloud.LoadAWSConfig(ctx, a.region)
	if err != nil {
		return err
	}
	a.secrets = cloud.NewSecretStoreFromConfig(awsCfg)
	a.objects = cloud.NewObjectStoreFromConfig(awsCfg)
	return nil
}

// resolvePassword replaces the GrimoireLab password with the secret named
// by --grimoirelab-password-secret.
func resolvePassword(ctx context.Context, cfg *contract.Config, aws *awsServices) error {
	if cfg.GrimoireLabPasswordSecret == "" {
		return nil
	}
	if err := aws.load(ctx); err != nil {
		return err
	}
	password, err := aws.secrets.GetSecret(ctx, cfg.GrimoireLabPasswordSecret)
	if err != nil {
		return err
	}
	cfg.GrimoireLabPassword = password
	return nil
}

// newEventSource connects to the OpenSearch index of the config.
func newEventSource(cfg *contract.Config, log *contract.Logger) (*opensearch.Source, error) {
	return opensearch.NewSource(opensearch.Options{
		URL:         cfg.OpenSearchURL,
		Index:       cfg.OpenSearchIndex,
		VerifyCerts: cfg.VerifyCerts,
		Logger:      log,
	})
}

// runMetrics runs the whole SBOM pipeline and writes the metrics document.
// Runs are recorded in store unless it is nil.
func runMetrics(ctx context.Context, cfg *contract.Config, store contract.RunStore) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}
	log := contract.NewStderrLogger(cfg)
	aws := &awsServices{region: cfg.AWSRegion}

	if err := resolvePassword(ctx, cfg, aws); err != nil {
		return fmt.Errorf("resolving GrimoireLab password: %w", err)
	}

	opts := []grimoirelab.Option{grimoirelab.WithLogger(log)}
	if !cfg.VerifyCerts {
		opts = append(opts, grimoirelab.WithInsecureSkipVerify())
	}
	client := grimoirelab.NewClient(cfg.GrimoireLabURL, cfg.GrimoireLabUser, cfg.GrimoireLabPassword, opts...)
	if err := client.Connect(ctx); err != nil {
		return err
	}

	source, err := newEventSource(cfg, log)
	if err != nil {
		return err
	}

	pipeline := &core.Pipeline{
		Tasks:   client,
		Source:  source,
		History: store,
		Log:     log,
	}
	doc, err := pipeline.Run(ctx, cfg)
	if errors.Is(err, core.ErrNoRepositories) {
		return nil
	}
	if err != nil {
		return err
	}

	data, err := outwriter.RenderMetricsDocument(doc, outwriter.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	if err := outwriter.WriteOutput(cfg.OutputFile, data, "Wrote metrics"); err != nil {
		return err
	}
	return uploadDocument(ctx, cfg, aws, data)
}

// uploadDocument copies the rendered document to --s3-uri when set.
func uploadDocument(ctx context.Context, cfg *contract.Config, aws *awsServices, data []byte) error {
	if cfg.S3URI == "" {
		return nil
	}
	if err := aws.load(ctx); err != nil {
		return err
	}
	return aws.objects.Put(ctx, cfg.S3URI, bytes.NewReader(data), outwriter.ContentType(cfg.Output))
}
