package modpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseModLoaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ModLoaders
	}{
		{"single", "forge-14.23.4.2715", ModLoaders{{ID: "forge-14.23.4.2715", Primary: true}}},
		{"first is primary", "forge-1,fabric-2", ModLoaders{{ID: "forge-1", Primary: true}, {ID: "fabric-2"}}},
		{"trims spaces", " forge-1 ,  fabric-2 ", ModLoaders{{ID: "forge-1", Primary: true}, {ID: "fabric-2"}}},
		{"drops blanks", ",forge-1,,fabric-2,", ModLoaders{{ID: "forge-1", Primary: true}, {ID: "fabric-2"}}},
		{"empty", "", ModLoaders{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseModLoaders(tt.input))
		})
	}
}

func TestModLoadersRoundTrip(t *testing.T) {
	loaders := ParseModLoaders("forge-1,fabric-2")

	assert.Equal(t, "forge-1,fabric-2", loaders.String())
	primary, ok := loaders.Primary()
	assert.True(t, ok)
	assert.Equal(t, "forge-1", primary.ID)
}

func TestModLoadersStringPutsPrimaryFirst(t *testing.T) {
	loaders := ModLoaders{{ID: "a"}, {ID: "b", Primary: true}, {ID: "c"}}

	assert.Equal(t, "b,a,c", loaders.String())
	// The stored order is left alone.
	assert.Equal(t, "a", loaders[0].ID)
}

func TestModLoadersWithoutPrimary(t *testing.T) {
	loaders := ModLoaders{{ID: "a"}, {ID: "b"}}

	_, ok := loaders.Primary()
	assert.False(t, ok)
	assert.Equal(t, "a,b", loaders.String())
}
