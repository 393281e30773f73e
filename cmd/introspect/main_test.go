package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/cshum/vipscall/internal/memvips"
	"github.com/cshum/vipscall/vips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	vips.Startup(&vips.Config{Library: memvips.New()})
	code := m.Run()
	vips.Shutdown()
	os.Exit(code)
}

func TestBuildCatalog(t *testing.T) {
	current, err := buildCatalog(false)
	require.NoError(t, err)
	all, err := buildCatalog(true)
	require.NoError(t, err)

	assert.Equal(t, "8.16.0", current.Version)
	assert.Len(t, all.Operations, len(current.Operations)+1)
	for i, name := range vips.Operations(false) {
		require.NotNil(t, current.Operations[i])
		assert.Equal(t, name, current.Operations[i].Name)
	}
}

func TestWriteCatalog(t *testing.T) {
	catalog, err := buildCatalog(false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCatalog(&buf, catalog))

	var decoded Catalog
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, catalog.Version, decoded.Version)
	require.Len(t, decoded.Operations, len(catalog.Operations))
	assert.Equal(t, catalog.Operations[0].Name, decoded.Operations[0].Name)
	assert.Equal(t, catalog.Operations[0].RequiredInputs, decoded.Operations[0].RequiredInputs)
}
