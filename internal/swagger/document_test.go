package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocument_Defaults(t *testing.T) {
	t.Parallel()
	doc := BuildDocument(generate(t, shopFixture), Metadata{Title: "Shop", Host: "api.example.com", Schemes: []string{"https"}})

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "Shop", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Equal(t, "api.example.com", doc.Host)
	assert.Equal(t, []string{"https"}, doc.Schemes)
	assert.Equal(t, DefaultMetadata().Consumes, doc.Consumes)
	assert.Equal(t, DefaultMetadata().Produces, doc.Produces)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "Product", doc.Tags[0].Name)
	assert.Equal(t, "A product in the catalog", doc.Tags[0].Description)
	assert.Nil(t, doc.SecurityDefinitions)
}

func TestBuildDocument_SecurityDefinitions(t *testing.T) {
	t.Parallel()
	doc := BuildDocument(generate(t, routeFixture), Metadata{})

	scheme := doc.SecurityDefinitions[SecuritySchemeName]
	require.NotNil(t, scheme)
	assert.Equal(t, "apiKey", scheme.Type)
	assert.Equal(t, "query", scheme.In)
	assert.Equal(t, "access_token", scheme.Name)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"security":[{"access_token":[]}]`)
}
