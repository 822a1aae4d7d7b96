package swagger

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationIDRegistry_Allocate(t *testing.T) {
	t.Parallel()
	diags := newDiagnostics(NopLogger{})
	ids := NewOperationIDRegistry(diags)

	first := &openapi2.Operation{}
	assert.Equal(t, "Product.find", ids.Allocate("Product.find", "get", "/Products", first))
	assert.Equal(t, "Product.find", first.OperationID)

	second := &openapi2.Operation{}
	assert.Equal(t, "Product.find__head", ids.Allocate("Product.find", "head", "/Products", second))
	assert.Equal(t, "Product.find__get", first.OperationID, "first claimant renamed")

	path, verb, ok := ids.Owner("Product.find__get")
	require.True(t, ok)
	assert.Equal(t, "/Products", path)
	assert.Equal(t, "get", verb)

	_, _, ok = ids.Owner("Product.find")
	assert.False(t, ok, "bare id is retired")

	third := &openapi2.Operation{}
	assert.Equal(t, "Product.find__get_Products_legacy",
		ids.Allocate("Product.find", "get", "/Products/legacy", third))
	assert.Equal(t, "Product.find__get", first.OperationID)
	assert.Empty(t, diags.items)
}

func TestOperationIDRegistry_ExhaustedFallbackReports(t *testing.T) {
	t.Parallel()
	diags := newDiagnostics(NopLogger{})
	ids := NewOperationIDRegistry(diags)

	ids.Allocate("A.m", "get", "/a", &openapi2.Operation{})
	ids.Allocate("A.m", "get", "/a", &openapi2.Operation{})
	ids.Allocate("A.m", "get", "/a", &openapi2.Operation{})

	require.Len(t, diags.items, 1)
	assert.Equal(t, DiagOperationIDCollision, diags.items[0].Code)
	assert.Equal(t, "A.m__get_a", diags.items[0].Subject)
}

func TestFlattenPath(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"/Products":                "Products",
		"/Products/{id}/orders":    "Products_id_orders",
		"/a//b--c/":                "a_b_c",
		"":                         "",
		"/Users/{userId}/tokens/x": "Users_userId_tokens_x",
	}
	for in, want := range cases {
		assert.Equal(t, want, flattenPath(in), in)
	}
}
