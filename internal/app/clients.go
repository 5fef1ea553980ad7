package app

import (
	"fmt"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/gcp"
	"github.com/aksidharth04/SetuAI-sub001/internal/clients/openai"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

type Clients struct {
	OpenaiClient openai.Client
	GcpBucket    gcp.BucketService
	GcpDocument  gcp.Document
	GcpVision    gcp.Vision
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	vision, err := gcp.NewVision(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init vision client: %w", err)
	}
	document, err := gcp.NewDocument(log)
	if err != nil {
		_ = vision.Close()
		return Clients{}, fmt.Errorf("init document client: %w", err)
	}

	clients := Clients{
		OpenaiClient: openaiClient,
		GcpVision:    vision,
		GcpDocument:  document,
	}

	// The bucket is only needed when uploads are stored in GCS.
	if cfg.FileStoreBackend == "gcs" {
		bucket, err := gcp.NewBucketService(log)
		if err != nil {
			_ = document.Close()
			_ = vision.Close()
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		clients.GcpBucket = bucket
	}

	return clients, nil
}

func (c Clients) Close() {
	if c.GcpVision != nil {
		_ = c.GcpVision.Close()
	}
	if c.GcpDocument != nil {
		_ = c.GcpDocument.Close()
	}
	if c.GcpBucket != nil {
		_ = c.GcpBucket.Close()
	}
}
