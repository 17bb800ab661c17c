// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package upload pushes finalized run artifacts to S3 compatible storage.
package upload

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/eztimeline/config"
)

const defaultRegion = "us-east-1"

// ErrConfig is returned for incomplete upload settings.
var ErrConfig = errors.New("invalid upload configuration")

// Store writes objects into one bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string

	initOnce sync.Once
	initErr  error
}

// New validates cfg and creates a client. No connection is made until the
// first Put.
func New(cfg config.Upload) (*Store, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init s3 client")
	}
	return &Store{client: client, bucket: strings.TrimSpace(cfg.Bucket), region: region}, nil
}

// Validate checks that all required settings are present.
func Validate(cfg config.Upload) error {
	switch {
	case strings.TrimSpace(cfg.Endpoint) == "":
		return errors.Wrap(ErrConfig, "endpoint is required")
	case strings.Contains(cfg.Endpoint, "://"):
		return errors.Wrap(ErrConfig, "endpoint must not contain a scheme")
	case strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "":
		return errors.Wrap(ErrConfig, "access key and secret key are required")
	case strings.TrimSpace(cfg.Bucket) == "":
		return errors.Wrap(ErrConfig, "bucket is required")
	}
	return nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put stores size bytes from r under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	key = ObjectKey(key)
	if key == "" {
		return errors.New("object key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return errors.Wrap(err, "ensure bucket")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	return errors.Wrapf(err, "put %s", key)
}

// ObjectKey cleans a slash separated key.
func ObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if key == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
