package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Type
	}{
		{"", Any()},
		{"any", Any()},
		{"file", File()},
		{"stream", File()},
		{"array", ArrayOf(Any())},
		{"String", Primitive("string")},
		{"Date", Primitive("date")},
		{"object", Primitive("object")},
		{"Product", ModelRef("Product")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseType(tc.in), tc.in)
	}
}

func TestType_UnmarshalYAML(t *testing.T) {
	t.Parallel()
	var doc struct {
		Scalar Type `yaml:"scalar"`
		Nested Type `yaml:"nested"`
		Empty  Type `yaml:"empty"`
		Inline Type `yaml:"inline"`
	}
	src := `
scalar: number
nested: [[Product]]
empty: []
inline: {width: number, tags: [string]}
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	assert.Equal(t, Primitive("number"), doc.Scalar)
	assert.Equal(t, "[[Product]]", doc.Nested.String())
	assert.Equal(t, ModelRef("Product"), doc.Nested.Innermost())
	assert.Equal(t, ArrayOf(Any()), doc.Empty)
	require.Equal(t, KindObject, doc.Inline.Kind)
	require.Len(t, doc.Inline.Fields, 2)
	assert.Equal(t, "width", doc.Inline.Fields[0].Name)
	assert.Equal(t, ArrayOf(Primitive("string")), doc.Inline.Fields[1].Type)
}

func TestText_UnmarshalYAML(t *testing.T) {
	t.Parallel()
	var doc struct {
		One  Text `yaml:"one"`
		Many Text `yaml:"many"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("one: hello\nmany: [first, second]\n"), &doc))
	assert.Equal(t, "hello", doc.One.String())
	assert.Equal(t, "first\nsecond", doc.Many.String())
}

func TestProperties_OrderAndForms(t *testing.T) {
	t.Parallel()
	var m Model
	src := `
name: Product
properties:
  zeta: string
  alpha: {type: number, required: true, min: "1", max: 10, default: 5}
  tags: [string]
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &m))
	require.Len(t, m.Properties, 3)
	assert.Equal(t, "zeta", m.Properties[0].Name)
	assert.Equal(t, Primitive("string"), m.Properties[0].Type)

	alpha := m.Properties[1]
	assert.Equal(t, "alpha", alpha.Name)
	assert.True(t, alpha.Required)
	require.NotNil(t, alpha.Min)
	assert.Equal(t, Number(1), *alpha.Min)
	assert.Equal(t, Number(10), *alpha.Max)
	assert.Equal(t, 5, alpha.Default)

	assert.Equal(t, ArrayOf(Primitive("string")), m.Properties[2].Type)
}

func TestRoute_Names(t *testing.T) {
	t.Parallel()
	r := &Route{Method: "Product.prototype.__get__orders"}
	assert.Equal(t, "Product", r.ModelName())
	assert.True(t, r.IsInstance())
	assert.Equal(t, "__get__orders", r.ShortName())

	static := &Route{Method: "Product.find"}
	assert.False(t, static.IsInstance())
	assert.Equal(t, "find", static.ShortName())
}

func TestModel_HasGeneratedID(t *testing.T) {
	t.Parallel()
	generated := &Model{Properties: Properties{{Name: "id", ID: true, Generated: true}}}
	assert.True(t, generated.HasGeneratedID())

	forced := &Model{Properties: Properties{{Name: "id", ID: true}}, Settings: ModelSettings{ForceID: true}}
	assert.True(t, forced.HasGeneratedID())

	natural := &Model{Properties: Properties{{Name: "code", ID: true}}}
	assert.False(t, natural.HasGeneratedID())

	assert.False(t, (&Model{}).HasGeneratedID())
}

func TestACL_GrantsAnonymous(t *testing.T) {
	t.Parallel()
	allow := ACL{Permission: "ALLOW", PrincipalID: "$everyone", Property: "find"}
	assert.True(t, allow.GrantsAnonymous("find"))
	assert.False(t, allow.GrantsAnonymous("create"))

	unauth := ACL{Permission: "allow", PrincipalID: "$unauthenticated", Property: "create"}
	assert.True(t, unauth.GrantsAnonymous("create"))

	// A wildcard rule names no method.
	wildcard := ACL{Permission: "ALLOW", PrincipalID: "$everyone", Property: "*"}
	assert.False(t, wildcard.GrantsAnonymous("create"))

	owner := ACL{Permission: "ALLOW", PrincipalID: "$owner", Property: "find"}
	assert.False(t, owner.GrantsAnonymous("find"))

	deny := ACL{Permission: "DENY", PrincipalID: "$everyone", Property: "*"}
	assert.False(t, deny.GrantsAnonymous("find"))
}

func TestRelation_Kind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, HasManyThrough, Relation{Type: HasMany, Through: "Link"}.Kind())
	assert.True(t, Relation{Type: HasMany}.ToMany())
	assert.False(t, Relation{Type: HasOne}.ToMany())
}
