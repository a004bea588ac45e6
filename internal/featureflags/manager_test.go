package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BooleanValues(t *testing.T) {
	s, err := Parse("a=on,b=off,c=true,d=false,e=1,f=0")
	require.NoError(t, err)

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, s.Enabled(name, false), name)
	}
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, s.Enabled(name, true), name)
	}
}

func TestEnabled_FallsBackToDefault(t *testing.T) {
	s, err := Parse("swagger=off")
	require.NoError(t, err)

	assert.False(t, s.Enabled(Swagger, true))
	assert.True(t, s.Enabled(Metrics, true))
	assert.False(t, s.Enabled(SeedCategories, false))

	var nilSet *Set
	assert.True(t, nilSet.Enabled(Swagger, true))
	assert.Nil(t, nilSet.Names())
}

func TestParse_NormalizesAndSkipsBlanks(t *testing.T) {
	s, err := Parse("  ,Swagger = ON, metrics=off ,")
	require.NoError(t, err)

	assert.Equal(t, []string{"metrics", "swagger"}, s.Names())
	assert.True(t, s.Enabled("SWAGGER", false))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing value", "swagger"},
		{"missing name", "=on"},
		{"percentage", "metrics=25%"},
		{"unknown word", "metrics=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}
