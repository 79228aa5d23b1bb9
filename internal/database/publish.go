package database

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"gopkg.in/yaml.v3"

	"github.com/rmr-labs/rmr-go/internal/platform/objectstore"
)

func projectObjectName(name string) string {
	return name + ".yaml"
}

// Publish uploads the project to the projects bucket under <name>.yaml.
func Publish(ctx context.Context, client *minio.Client, cfg objectstore.Config, p Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, cfg.BucketProjects, projectObjectName(p.Name),
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/yaml"})
	if err != nil {
		return fmt.Errorf("publish project %s: %w", p.Name, err)
	}
	return nil
}

// Fetch downloads a published project by name.
func Fetch(ctx context.Context, client *minio.Client, cfg objectstore.Config, name string) (Project, error) {
	obj, err := client.GetObject(ctx, cfg.BucketProjects, projectObjectName(name), minio.GetObjectOptions{})
	if err != nil {
		return Project{}, fmt.Errorf("fetch project %s: %w", name, err)
	}
	defer func() { _ = obj.Close() }()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return Project{}, fmt.Errorf("fetch project %s: %w", name, err)
	}
	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Project{}, fmt.Errorf("parse project %s: %w", name, err)
	}
	if err := p.Validate(); err != nil {
		return Project{}, fmt.Errorf("project %s: %w", name, err)
	}
	return p, nil
}
