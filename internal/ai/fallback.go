package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Entry names one member of a fallback chain for logging.
type Entry[T any] struct {
	Name   string
	Client T
}

type CompleterEntry = Entry[ICompleter]

type EmbedderEntry = Entry[IEmbedder]

// firstSuccess calls entries in order and returns the first result without error.
// Nil members are skipped; with no usable member the error says kind is not configured.
func firstSuccess[T, R any](ctx context.Context, kind string, entries []Entry[T], call func(T) (R, error)) (R, error) {
	var zero R
	var lastErr error
	for i, entry := range entries {
		if any(entry.Client) == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		res, err := call(entry.Client)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn(kind+" failed", zap.Int("index", i), zap.String("name", entry.Name), zap.Error(err))
	}
	if lastErr == nil {
		return zero, fmt.Errorf("%s not configured", kind)
	}
	return zero, lastErr
}

type fallbackCompleter []CompleterEntry

// NewGroupCompleter tries each entry in order until one succeeds.
func NewGroupCompleter(entries []CompleterEntry) ICompleter {
	if len(entries) == 0 {
		return nil
	}
	return fallbackCompleter(entries)
}

func (f fallbackCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	return firstSuccess(ctx, "completer", []CompleterEntry(f), func(c ICompleter) (string, error) {
		return c.Complete(ctx, messages)
	})
}

type fallbackEmbedder []EmbedderEntry

// NewGroupEmbedder falls back across embedders. Vectors from different models are not comparable,
// so ModelName reports every member.
func NewGroupEmbedder(entries []EmbedderEntry) IEmbedder {
	if len(entries) == 0 {
		return nil
	}
	return fallbackEmbedder(entries)
}

func (f fallbackEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return firstSuccess(ctx, "embedder", []EmbedderEntry(f), func(e IEmbedder) ([]float32, error) {
		return e.Embed(ctx, text, taskType)
	})
}

func (f fallbackEmbedder) ModelName() string {
	names := make([]string, 0, len(f))
	for _, entry := range f {
		if entry.Client != nil {
			names = append(names, entry.Client.ModelName())
		}
	}
	return strings.Join(names, "|")
}
