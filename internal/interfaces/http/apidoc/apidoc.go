// Package apidoc serves a Swagger description of the mounted API routes.
//
// The document is built from the route table at startup, so it always lists
// what the server actually serves. Request and response schemas are not part
// of it.
package apidoc

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag/v2"

	"github.com/m13/backoffice/internal/interfaces/http/router"
)

// Info describes the API in the document header
type Info struct {
	Title       string
	Description string
	Version     string
}

// Doc is a rendered Swagger 2.0 document
type Doc struct {
	raw string
}

// ReadDoc implements swag.Swagger
func (d *Doc) ReadDoc() string {
	return d.raw
}

type document struct {
	Swagger  string                          `json:"swagger"`
	Info     info                            `json:"info"`
	BasePath string                          `json:"basePath"`
	Schemes  []string                        `json:"schemes,omitempty"`
	Paths    map[string]map[string]operation `json:"paths"`
	Tags     []tag                           `json:"tags,omitempty"`

	SecurityDefinitions map[string]securityScheme `json:"securityDefinitions"`
	Security            []map[string][]string     `json:"security"`
}

type info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type tag struct {
	Name string `json:"name"`
}

type operation struct {
	Tags        []string            `json:"tags"`
	OperationID string              `json:"operationId"`
	Parameters  []parameter         `json:"parameters,omitempty"`
	Responses   map[string]response `json:"responses"`
}

type parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

type response struct {
	Description string `json:"description"`
}

type securityScheme struct {
	Type string `json:"type"`
	Name string `json:"name"`
	In   string `json:"in"`
}

// Build renders the routes into a Swagger document. Gin path parameters
// become Swagger path parameters; routes are tagged with their area.
func Build(meta Info, routes []router.Route) (*Doc, error) {
	doc := document{
		Swagger:  "2.0",
		Info:     info{Title: meta.Title, Description: meta.Description, Version: meta.Version},
		BasePath: "/",
		Paths:    make(map[string]map[string]operation),
		SecurityDefinitions: map[string]securityScheme{
			"BearerAuth": {Type: "apiKey", Name: "Authorization", In: "header"},
		},
		Security: []map[string][]string{{"BearerAuth": {}}},
	}

	seen := make(map[string]bool)
	for _, r := range routes {
		p, params := swaggerPath(r.Path)
		ops, ok := doc.Paths[p]
		if !ok {
			ops = make(map[string]operation)
			doc.Paths[p] = ops
		}
		ops[strings.ToLower(r.Method)] = operation{
			Tags:        []string{r.Area},
			OperationID: operationID(r.Method, r.Path),
			Parameters:  params,
			Responses: map[string]response{
				"200":     {Description: http.StatusText(http.StatusOK)},
				"default": {Description: "error envelope"},
			},
		}
		if !seen[r.Area] {
			seen[r.Area] = true
			doc.Tags = append(doc.Tags, tag{Name: r.Area})
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return &Doc{raw: string(raw)}, nil
}

// Mount registers the document under name and serves the Swagger UI and
// doc.json below /swagger. Names must be unique per process.
func Mount(engine *gin.Engine, name string, doc *Doc) {
	swag.Register(name, doc)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(name)))
}

// swaggerPath turns /orders/:id into /orders/{id} and lists the parameters
func swaggerPath(p string) (string, []parameter) {
	segments := strings.Split(p, "/")
	var params []parameter
	for i, s := range segments {
		if len(s) < 2 || (s[0] != ':' && s[0] != '*') {
			continue
		}
		name := s[1:]
		segments[i] = "{" + name + "}"
		params = append(params, parameter{Name: name, In: "path", Required: true, Type: "string"})
	}
	return strings.Join(segments, "/"), params
}

func operationID(method, p string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, s := range strings.Split(p, "/") {
		s = strings.TrimLeft(s, ":*")
		if s == "" || s == "api" {
			continue
		}
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' }) {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}
