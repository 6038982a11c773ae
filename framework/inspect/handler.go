// Package inspect exposes a read-mostly HTTP view of a container: its
// definitions, materialized objects, namespaces and resolution metrics.
package inspect

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/container"
	gohttp "github.com/km-arc/go-boot/framework/http"
	"github.com/km-arc/go-boot/framework/routing"
	"github.com/km-arc/go-boot/framework/validation"
)

// Handler serves the inspect endpoints for one container.
type Handler struct {
	app    *container.Container
	logger *zap.Logger
}

// NewHandler creates a Handler for app.
func NewHandler(app *container.Container) *Handler {
	return &Handler{app: app, logger: app.Logger().Named("inspect")}
}

// Routes mounts the endpoints on r:
//
//	GET  /definitions          ?scope=&namespace=
//	GET  /definitions/{id}
//	GET  /objects
//	GET  /namespaces
//	GET  /metrics
//	POST /resolve              {"id": "logService"}
func (h *Handler) Routes(r *routing.Router) {
	r.Get("/definitions", h.definitions)
	r.Get("/definitions/{id}", h.definition)
	r.Get("/objects", h.objects)
	r.Get("/namespaces", h.namespaces)
	r.Get("/metrics", h.metrics)
	r.Group(func(g *routing.Router) {
		g.Middleware(routing.RequestScope(h.app))
		g.Post("/resolve", h.resolve)
	})
}

var filterRules = validation.Rules{
	"scope":     "nullable|in_ci:singleton,request,prototype",
	"namespace": "nullable|alpha_dash",
}

func (h *Handler) definitions(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	filter := req.Queries()
	if err := validation.Make(filter, filterRules).Validate(); err != nil {
		res.Fail(err)
		return
	}

	out := []container.DefinitionInfo{}
	for _, info := range h.app.Definitions() {
		if s := filter["scope"]; s != "" && !strings.EqualFold(info.Scope, s) {
			continue
		}
		if ns := filter["namespace"]; ns != "" && info.Namespace != ns {
			continue
		}
		out = append(out, info)
	}
	res.Success(out)
}

func (h *Handler) definition(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("id")
	info, ok := h.app.Describe(id)
	if !ok {
		res.Fail(&container.DefinitionNotFoundError{Identifier: id})
		return
	}
	res.Success(info)
}

func (h *Handler) objects(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).Success(h.app.ObjectIDs())
}

func (h *Handler) namespaces(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).Success(h.app.Namespaces())
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	var buf bytes.Buffer
	metrics.WriteJSONOnce(h.app.Metrics(), &buf)
	var snapshot map[string]any
	if err := json.Unmarshal(buf.Bytes(), &snapshot); err != nil {
		res.Fail(err)
		return
	}
	res.Success(snapshot)
}

type resolveRequest struct {
	ID string `json:"id"`
}

type resolveResult struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Materialized bool   `json:"materialized"`
}

// resolve builds an identifier inside the request scope and reports what
// came back. Materialized covers singletons and request objects of this
// request; singletons stay cached afterwards.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	var body resolveRequest
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	rules := validation.Rules{"id": "required"}
	if err := validation.Make(map[string]string{"id": body.ID}, rules).Validate(); err != nil {
		res.Fail(err)
		return
	}

	scope := routing.Container(r)
	obj, err := scope.Get(r.Context(), body.ID)
	if err != nil {
		h.logger.Warn("resolve failed", zap.String("id", body.ID), zap.Error(err))
		res.Fail(err)
		return
	}
	res.Success(resolveResult{
		ID:           body.ID,
		Type:         typeName(obj),
		Materialized: h.app.HasObject(body.ID) || scope.HasObject(body.ID),
	})
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
