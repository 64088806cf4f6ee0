// Package bundle packages a compiled resource collection with the system
// configuration it was built against into a single self-describing
// artifact.
//
// A bundle carries a checksum over the canonical JSON of its compiled
// collection. Load verifies the checksum before replaying the collection
// into a new resources.Manager, so a tampered or truncated bundle never
// produces a manager.
package bundle

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/willibrandon/gores/config"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/resources"
)

var (
	// ErrChecksumMismatch indicates a bundle whose compiled collection does
	// not match its recorded checksum.
	ErrChecksumMismatch = errors.New("bundle checksum mismatch")

	// ErrMalformed indicates data that does not decode as a bundle.
	ErrMalformed = errors.New("malformed bundle")

	// ErrUnsupported indicates an unknown format or compression.
	ErrUnsupported = errors.New("unsupported bundle encoding")
)

const checksumPrefix = "blake3:"

// Metadata identifies a bundle.
type Metadata struct {
	ID          string    `json:"id"`
	DateBuilt   time.Time `json:"dateBuilt"`
	Description string    `json:"description,omitempty"`
	Checksum    string    `json:"checksum"`
}

// Bundle is a compiled collection plus the configuration that produced it.
type Bundle struct {
	Metadata Metadata                      `json:"metadata"`
	Config   config.Decl                   `json:"config"`
	Compiled *resources.CompiledCollection `json:"compiled"`
}

// CreateOptions control Create.
type CreateOptions struct {
	Description string
	// FilterForContext and ReduceQualifiers compile a filtered clone.
	FilterForContext map[string]string
	ReduceQualifiers bool
}

// Create compiles m and wraps the result.
func Create(m *resources.Manager, cfg config.Decl, opts CreateOptions) (*Bundle, error) {
	compiled, err := m.GetCompiledResourceCollection(resources.CompileOptions{
		FilterForContext: opts.FilterForContext,
		ReduceQualifiers: opts.ReduceQualifiers,
	})
	if err != nil {
		return nil, err
	}
	sum, err := Checksum(compiled)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Metadata: Metadata{
			ID:          uuid.NewString(),
			DateBuilt:   time.Now().UTC(),
			Description: opts.Description,
			Checksum:    sum,
		},
		Config:   cfg,
		Compiled: compiled,
	}, nil
}

// Checksum returns the blake3 digest of the canonical JSON form of compiled.
func Checksum(compiled *resources.CompiledCollection) (string, error) {
	data, err := resources.CanonicalJSON(compiled)
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	sum := blake3.Sum256(data)
	return checksumPrefix + hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the checksum and compares it with the recorded one.
func (b *Bundle) Verify() error {
	if b.Compiled == nil {
		return fmt.Errorf("%w: missing compiled collection", ErrMalformed)
	}
	if !strings.HasPrefix(b.Metadata.Checksum, checksumPrefix) {
		return fmt.Errorf("%w: unknown checksum %q", ErrChecksumMismatch, b.Metadata.Checksum)
	}
	sum, err := Checksum(b.Compiled)
	if err != nil {
		return err
	}
	if sum != b.Metadata.Checksum {
		return fmt.Errorf("%w: recorded %s, computed %s", ErrChecksumMismatch, b.Metadata.Checksum, sum)
	}
	return nil
}

// SystemConfiguration builds the configuration carried by the bundle.
func (b *Bundle) SystemConfiguration() (*config.SystemConfiguration, error) {
	return config.New(b.Config)
}

// LoadOptions control Load and Manager.
type LoadOptions struct {
	Logger observability.Logger
	// DefaultResourceTypeName is passed to the rebuilt manager.
	DefaultResourceTypeName string
}

// Manager verifies the bundle and replays its compiled collection.
func (b *Bundle) Manager(opts LoadOptions) (*resources.Manager, error) {
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return resources.NewManagerFromCompiled(b.Compiled, resources.ManagerParams{
		DefaultResourceTypeName: opts.DefaultResourceTypeName,
		Logger:                  opts.Logger,
	})
}

// Load decodes data, verifies it and rebuilds the manager.
func Load(ctx context.Context, data []byte, opts LoadOptions) (*Bundle, *resources.Manager, error) {
	start := time.Now()
	logger := observability.OrNull(opts.Logger)

	b, format, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	_, span := observability.StartBundleSpan(ctx, "load", string(format))

	m, err := b.Manager(opts)
	observability.EndSpanWithError(span, err)
	if err != nil {
		return nil, nil, err
	}

	observability.BundleLoadDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	logger.Debug("Loaded bundle {BundleID} ({Format}, {ResourceCount} resources)",
		b.Metadata.ID, format, m.Size())
	return b, m, nil
}
