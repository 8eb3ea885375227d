package openapi

import (
	"net/http"
	"strconv"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

const refPrefix = "#/components/schemas/"

// Generate builds the OpenAPI document of api. Shared definitions become
// component schemas, every endpoint a POST operation at its URL.
func Generate(api *fighting.API, info openapi3.Info) *openapi3.T {
	if info.Title == "" {
		info.Title = "API"
	}
	if info.Description == "" {
		info.Description = api.Desc()
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &info,
		Paths:   openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}

	parser := api.Parser()
	for _, name := range parser.SharedNames() {
		s, ok := parser.Shared(name)
		if !ok {
			continue
		}
		doc.Components.Schemas[name] = &openapi3.SchemaRef{Value: Schema(s)}
	}

	for _, ep := range api.Endpoints() {
		op := openapi3.NewOperation()
		op.OperationID = ep.Resource + "." + ep.Action
		op.Tags = []string{ep.Resource}
		op.Summary = ep.Title
		op.Description = ep.Desc

		if ep.Input != nil {
			rb := openapi3.NewRequestBody().WithSchema(Schema(ep.Input), []string{
				"application/json",
				"application/x-www-form-urlencoded",
			})
			op.RequestBody = &openapi3.RequestBodyRef{Value: rb}
		}

		res := openapi3.NewResponse().WithDescription("action result")
		if ep.Output != nil {
			res = res.WithJSONSchemaRef(ref(ep.Output))
		}
		op.Responses = openapi3.Responses{
			strconv.Itoa(http.StatusOK): &openapi3.ResponseRef{Value: res},
			strconv.Itoa(http.StatusBadRequest): &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("invalid input or aborted").
					WithJSONSchema(openapi3.NewSchema()),
			},
		}

		doc.Paths[ep.URL] = &openapi3.PathItem{Post: op}
	}
	return doc
}

// Schema converts a resolved schema. References to shared definitions below
// the root become component refs.
func Schema(s *schema.Schema) *openapi3.Schema {
	out := &openapi3.Schema{Description: s.Desc}
	if s.HasDefault {
		out.Default = s.Default
	}

	switch s.Kind {
	case schema.KindObject:
		out.Type = openapi3.TypeObject
		out.Properties = make(openapi3.Schemas, len(s.Fields))
		for _, f := range s.Fields {
			out.Properties[f.Name] = ref(f.Schema)
			if f.Schema.Required() {
				out.Required = append(out.Required, f.Name)
			}
		}
	case schema.KindArray:
		out.Type = openapi3.TypeArray
		if s.Items != nil {
			out.Items = ref(s.Items)
		}
		if n, ok := s.Params.Int("minlen"); ok {
			out.MinItems = uint64(n)
		}
		if n, ok := s.Params.Int("maxlen"); ok {
			limit := uint64(n)
			out.MaxItems = &limit
		}
	default:
		scalar(out, s)
	}
	if s.Optional {
		out.Nullable = true
	}
	return out
}

func ref(s *schema.Schema) *openapi3.SchemaRef {
	if s.Ref != "" {
		return openapi3.NewSchemaRef(refPrefix+s.Ref, nil)
	}
	return Schema(s).NewRef()
}

var formats = map[string][2]string{
	"str":      {openapi3.TypeString, ""},
	"int":      {openapi3.TypeInteger, ""},
	"float":    {openapi3.TypeNumber, ""},
	"bool":     {openapi3.TypeBoolean, ""},
	"date":     {openapi3.TypeString, "date"},
	"time":     {openapi3.TypeString, "time"},
	"datetime": {openapi3.TypeString, "date-time"},
	"email":    {openapi3.TypeString, "email"},
	"url":      {openapi3.TypeString, "uri"},
	"ipv4":     {openapi3.TypeString, "ipv4"},
	"ipv6":     {openapi3.TypeString, "ipv6"},
	"phone":    {openapi3.TypeString, "phone"},
	"uuid":     {openapi3.TypeString, "uuid"},
	"enum":     {openapi3.TypeString, ""},
}

func scalar(out *openapi3.Schema, s *schema.Schema) {
	f, ok := formats[s.Validator]
	if !ok {
		// any and custom validators accept values of any type
		return
	}
	out.Type, out.Format = f[0], f[1]

	switch s.Validator {
	case "str":
		if n, ok := s.Params.Int("minlen"); ok {
			out.MinLength = uint64(n)
		}
		if n, ok := s.Params.Int("maxlen"); ok {
			limit := uint64(n)
			out.MaxLength = &limit
		}
		if p, ok := s.Params.String("match"); ok {
			out.Pattern = p
		}
	case "int", "float":
		if v, ok := s.Params.Float("min"); ok {
			out.Min = &v
		}
		if v, ok := s.Params.Float("max"); ok {
			out.Max = &v
		}
	case "enum":
		out.Enum = enumValues(s.Params["values"])
	}
}
