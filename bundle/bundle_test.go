package bundle

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/config"
	"github.com/willibrandon/gores/resources"
	"github.com/willibrandon/gores/runtime"
)

func newTestBundle(t *testing.T) *Bundle {
	t.Helper()
	decl, err := config.Predefined("default")
	require.NoError(t, err)
	sc, err := config.New(decl)
	require.NoError(t, err)

	m, err := resources.NewManager(resources.ManagerParams{
		Qualifiers:              sc.Qualifiers(),
		ResourceTypes:           sc.ResourceTypes(),
		DefaultResourceTypeName: "json",
	})
	require.NoError(t, err)
	for _, d := range []resources.CandidateDecl{
		{ID: "app.greeting", JSON: map[string]any{"text": "Hello"}},
		{ID: "app.greeting", JSON: map[string]any{"text": "Bonjour"}, Conditions: conditions.FromMap(map[string]string{"language": "fr"})},
		{ID: "app.limits", JSON: map[string]any{"max": 10.0, "tags": []any{"a", "b"}}},
		{ID: "app.limits", IsPartial: true, JSON: map[string]any{"max": 50.0, "tags": nil},
			Conditions: conditions.FromMap(map[string]string{"env": "prod"})},
	} {
		require.NoError(t, m.AddLooseCandidate(d))
	}

	b, err := Create(m, decl, CreateOptions{Description: "test bundle"})
	require.NoError(t, err)
	return b
}

func resolveText(t *testing.T, m *resources.Manager, ctx map[string]string, id string) map[string]any {
	t.Helper()
	r, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: m, Context: ctx})
	require.NoError(t, err)
	v, err := r.ResolveComposedResourceValue(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestCreate(t *testing.T) {
	b := newTestBundle(t)

	assert.NotEmpty(t, b.Metadata.ID)
	assert.False(t, b.Metadata.DateBuilt.IsZero())
	assert.Equal(t, "test bundle", b.Metadata.Description)
	assert.True(t, len(b.Metadata.Checksum) > len(checksumPrefix))
	assert.Len(t, b.Compiled.Resources, 2)
	require.NoError(t, b.Verify())

	sc, err := b.SystemConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "default", sc.Name())
}

func TestEncodeDecode(t *testing.T) {
	b := newTestBundle(t)

	tests := []struct {
		name string
		opts EncodeOptions
	}{
		{"json", EncodeOptions{Format: FormatJSON}},
		{"json indented", EncodeOptions{Format: FormatJSON, Indent: true}},
		{"json zstd", EncodeOptions{Format: FormatJSON, Compression: CompressionZstd}},
		{"cbor", EncodeOptions{Format: FormatCBOR}},
		{"cbor zstd", EncodeOptions{Format: FormatCBOR, Compression: CompressionZstd}},
		{"cbor lz4", EncodeOptions{Format: FormatCBOR, Compression: CompressionLZ4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(b, tt.opts)
			require.NoError(t, err)

			decoded, format, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.opts.Format, format)
			assert.Equal(t, b.Metadata.ID, decoded.Metadata.ID)
			assert.True(t, b.Metadata.DateBuilt.Equal(decoded.Metadata.DateBuilt))
			assert.Equal(t, b.Metadata.Checksum, decoded.Metadata.Checksum)
			require.NoError(t, decoded.Verify())

			m, err := decoded.Manager(LoadOptions{})
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"text": "Bonjour"},
				resolveText(t, m, map[string]string{"language": "fr-CA"}, "app.greeting"))
			assert.Equal(t, map[string]any{"max": 50.0},
				resolveText(t, m, map[string]string{"env": "prod"}, "app.limits"))
		})
	}
}

func TestDeterministicCBOR(t *testing.T) {
	b := newTestBundle(t)
	first, err := Encode(b, EncodeOptions{Format: FormatCBOR})
	require.NoError(t, err)
	second, err := Encode(b, EncodeOptions{Format: FormatCBOR})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoad(t *testing.T) {
	b := newTestBundle(t)
	data, err := Encode(b, EncodeOptions{Format: FormatJSON, Compression: CompressionZstd})
	require.NoError(t, err)

	loaded, m, err := Load(context.Background(), data, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, b.Metadata.ID, loaded.Metadata.ID)
	assert.Equal(t, []string{"app.greeting", "app.limits"}, m.ResourceIDs())
	assert.Equal(t, map[string]any{"text": "Hello"}, resolveText(t, m, nil, "app.greeting"))
}

func TestTamperDetection(t *testing.T) {
	t.Run("modified value", func(t *testing.T) {
		b := newTestBundle(t)
		data, err := Encode(b, EncodeOptions{Format: FormatJSON})
		require.NoError(t, err)

		tampered := bytes.Replace(data, []byte("Bonjour"), []byte("Bonsoir"), 1)
		require.NotEqual(t, data, tampered)

		_, _, err = Load(context.Background(), tampered, LoadOptions{})
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("modified in memory", func(t *testing.T) {
		b := newTestBundle(t)
		b.Compiled.Resources = b.Compiled.Resources[:1]
		_, err := b.Manager(LoadOptions{})
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("missing checksum", func(t *testing.T) {
		b := newTestBundle(t)
		b.Metadata.Checksum = ""
		assert.ErrorIs(t, b.Verify(), ErrChecksumMismatch)
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte{0xff, 0x00, 0x01}, ErrMalformed},
		{"truncated json", []byte(`{"metadata":`), ErrMalformed},
		{"no compiled collection", []byte(`{"metadata":{"id":"x"}}`), ErrMalformed},
		{"corrupt zstd", append(bytes.Clone(zstdMagic), 0x00, 0x01), ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	payload := bytes.Repeat([]byte("gores"), 16<<10)

	for _, c := range []Compression{CompressionZstd, CompressionLZ4} {
		t.Run(string(c), func(t *testing.T) {
			packed, err := compress(payload, c)
			require.NoError(t, err)
			require.Less(t, len(packed), len(payload))

			out, err := decompress(packed, int64(len(payload)))
			require.NoError(t, err)
			assert.Equal(t, payload, out)

			_, err = decompress(packed, 1024)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse(t *testing.T) {
	f, err := ParseFormat("cbor")
	require.NoError(t, err)
	assert.Equal(t, FormatCBOR, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupported)

	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	_, err = ParseCompression("gzip")
	assert.ErrorIs(t, err, ErrUnsupported)
}
