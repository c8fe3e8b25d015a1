package main

import (
	"context"
	"errors"
	"io"
)

var errNotConfigured = errors.New("collaborator not configured")

// unavailableStore stands in when MinIO is not configured. Import tasks fail
// with a retryable error so they are picked up once storage comes online.
type unavailableStore struct{}

func (unavailableStore) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errNotConfigured
}

// unavailableSummarizer stands in when the AI collaborator is not configured.
type unavailableSummarizer struct{}

func (unavailableSummarizer) Summarize(context.Context, string) (string, error) {
	return "", errNotConfigured
}
