package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/qualifiertypes"
)

func TestDefault(t *testing.T) {
	sc := Default()
	assert.Equal(t, "default", sc.Name())
	assert.Equal(t, 4, sc.QualifierTypes().Len())
	assert.Equal(t, 4, sc.Qualifiers().Len())
	assert.Equal(t, 1, sc.ResourceTypes().Len())

	language, err := sc.Qualifiers().Get("language")
	require.NoError(t, err)
	assert.Equal(t, common.ConditionPriority(850), language.DefaultPriority())
	assert.True(t, language.Type().AllowContextList())

	territory, err := sc.Qualifiers().Get("territory")
	require.NoError(t, err)
	assert.True(t, territory.Type().IsValidConditionValue("us"))
}

func TestPredefined(t *testing.T) {
	assert.Equal(t, []string{"default", "language-priority"}, PredefinedNames())

	sc, err := NewPredefined("language-priority")
	require.NoError(t, err)
	territory, err := sc.Qualifiers().Get("territory")
	require.NoError(t, err)
	assert.Equal(t, common.ConditionPriority(300), territory.DefaultPriority())

	_, err = NewPredefined("nope")
	assert.ErrorIs(t, err, ErrUnknownConfiguration)
}

func TestNewAggregatesErrors(t *testing.T) {
	_, err := New(Decl{
		QualifierTypes: []qualifiertypes.ConfigDecl{{Name: "language", SystemType: qualifiertypes.SystemTypeLanguage}},
		Qualifiers: []qualifiers.Decl{
			{Name: "language", TypeName: "missing", DefaultPriority: 1},
			{Name: "bad name", TypeName: "language", DefaultPriority: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
}

func TestDeclRoundTrip(t *testing.T) {
	original := Default()
	rebuilt, err := New(original.Decl())
	require.NoError(t, err)
	assert.Equal(t, original.Decl(), rebuilt.Decl())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
name: mobile
qualifierTypes:
  - name: language
    systemType: language
  - name: platform
    systemType: literal
    configuration:
      enumeratedValues: [ios, android]
qualifiers:
  - name: language
    typeName: language
    defaultPriority: 900
  - name: platform
    typeName: platform
    defaultPriority: 500
resourceTypes:
  - name: json
    typeName: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mobile", sc.Name())

	platform, err := sc.Qualifiers().Get("platform")
	require.NoError(t, err)
	assert.False(t, platform.Type().IsValidConditionValue("windows"))

	predef, err := LoadFile("predefined:default")
	require.NoError(t, err)
	assert.Equal(t, "default", predef.Name())
}
