// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package publish uploads rendered artifacts to an S3 bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/staranto/dpcviz/internal/chart"
)

// PutObjectAPI is the subset of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".csv":  "text/csv; charset=utf-8",
}

// Publisher writes files under Prefix in Bucket.
type Publisher struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

func New(client PutObjectAPI, bucket, prefix string) (*Publisher, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &Publisher{Client: client, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Key is the object key a local file is stored under.
func (p *Publisher) Key(file string) string {
	return path.Join(p.Prefix, filepath.Base(file))
}

// Upload puts one local file and returns its key.
func (p *Publisher) Upload(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	key := p.Key(file)
	in := &s3.PutObjectInput{
		Bucket: awsv2.String(p.Bucket),
		Key:    awsv2.String(key),
		Body:   f,
	}
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(file))]; ok {
		in.ContentType = awsv2.String(ct)
	}

	if _, err := p.Client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", file, p.Bucket, key, err)
	}
	log.Infof("Uploaded %s to s3://%s/%s", file, p.Bucket, key)
	return key, nil
}

// Artifact uploads the dated and latest files of a. A zero artifact is a
// no-op.
func (p *Publisher) Artifact(ctx context.Context, a chart.Artifact) ([]string, error) {
	if a.IsZero() {
		return nil, nil
	}
	var keys []string
	for _, file := range []string{a.Dated, a.Latest} {
		key, err := p.Upload(ctx, file)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
