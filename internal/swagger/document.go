package swagger

import (
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
)

// SwaggerVersion is the value of the top-level "swagger" field.
const SwaggerVersion = "2.0"

// Metadata holds the document-level fields that do not come from the models
// or routes.
type Metadata struct {
	Title       string
	Version     string
	Description string
	BasePath    string
	Host        string
	Schemes     []string
	Consumes    []string
	Produces    []string
}

// DefaultMetadata returns the metadata used when nothing is configured.
func DefaultMetadata() Metadata {
	return Metadata{
		Title:    "LoopBack Application",
		Version:  "1.0.0",
		BasePath: "/api",
		Consumes: []string{
			"application/json",
			"application/x-www-form-urlencoded",
			"application/xml",
			"text/xml",
		},
		Produces: []string{
			"application/json",
			"application/xml",
			"text/xml",
			"application/javascript",
			"text/javascript",
		},
	}
}

// BuildDocument assembles a complete Swagger 2.0 document from a generation
// result. Empty metadata fields fall back to DefaultMetadata.
func BuildDocument(res *Result, meta Metadata) *openapi2.T {
	def := DefaultMetadata()
	if meta.Title == "" {
		meta.Title = def.Title
	}
	if meta.Version == "" {
		meta.Version = def.Version
	}
	if meta.BasePath == "" {
		meta.BasePath = def.BasePath
	}
	if len(meta.Consumes) == 0 {
		meta.Consumes = def.Consumes
	}
	if len(meta.Produces) == 0 {
		meta.Produces = def.Produces
	}

	doc := &openapi2.T{
		Swagger: SwaggerVersion,
		Info: openapi3.Info{
			Title:       meta.Title,
			Version:     meta.Version,
			Description: meta.Description,
		},
		Schemes:     meta.Schemes,
		Consumes:    meta.Consumes,
		Produces:    meta.Produces,
		Host:        meta.Host,
		BasePath:    meta.BasePath,
		Paths:       res.Paths,
		Definitions: res.Definitions,
		Tags:        res.Tags,
	}
	if res.RequiresAuth {
		doc.SecurityDefinitions = map[string]*openapi2.SecurityScheme{
			SecuritySchemeName: {
				Type:        "apiKey",
				In:          "query",
				Name:        SecuritySchemeName,
				Description: "Access token issued by the application",
			},
		}
	}
	return doc
}
