package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/cache"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// CacheStatusHeader reports whether a collection came from the response cache.
const CacheStatusHeader = "X-Cache"

// Pipeline bundles the collaborators shared by every resource handler.
type Pipeline struct {
	Registry   *resource.Registry
	Store      store.EntityStore
	Records    service.RecordService
	Gate       *authz.Gate
	Serializer *resource.Serializer
	Paginator  resource.Paginator
	Cache      *cache.ResponseCache
	Logger     *slog.Logger
}

// ResourceHandler serves the standard actions of one resource type.
type ResourceHandler struct {
	def *resource.Definition
	Pipeline
	logger *slog.Logger
}

// NewResourceHandler creates the handler for def.
func NewResourceHandler(def *resource.Definition, p Pipeline) *ResourceHandler {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ResourceHandler{
		def:      def,
		Pipeline: p,
		logger:   log.With(slog.String("component", "resource_handler"), slog.String("resource", def.Type)),
	}
}

// Routes mounts the actions the definition supports under /<type>.
func (h *ResourceHandler) Routes(r chi.Router) {
	r.Route("/"+h.def.Type, func(r chi.Router) {
		if h.def.Supports(authz.ActionList) {
			r.Get("/", h.List)
		}
		if h.def.Supports(authz.ActionNew) {
			r.Get("/new", h.New)
		}
		if h.def.Supports(authz.ActionCreate) {
			r.Post("/", h.Create)
		}
		if h.def.Supports(authz.ActionRead) {
			r.Get("/{id}", h.Show)
		}
		if h.def.Supports(authz.ActionUpdate) {
			r.Patch("/{id}", h.Update)
			r.Put("/{id}", h.Update)
		}
		if h.def.Supports(authz.ActionDelete) {
			r.Delete("/{id}", h.Delete)
		}
	})
}

// List handles GET /<type>.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)
	p := shared.PrincipalFrom(ctx)

	if err := h.Gate.Authorize(ctx, h.def, p, authz.ActionList, nil); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	// Parse and check the request shape before touching the store
	q := resource.ParseQuery(r.URL.Query())
	includes := q.Includes(h.def, authz.ActionList)
	if err := h.Registry.ValidateIncludes(h.def, includes); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	// Narrow to what the filters ask for and the principal may see
	scope := resource.BaseScope(h.def, authz.ActionList, q)
	scope = resource.ApplyFilter(h.def, scope, q.Filter)
	scope = h.Gate.VisibleScope(ctx, h.def, p, scope)

	page, err := h.Paginator.Paginate(ctx, h.Store, scope, q.Page, q.PerPage)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	// Serve the rendered page from cache, rendering it on a miss
	parts, err := resource.CollectionKeyParts(ctx, h.Store, h.Registry, h.def, page, includes, q, p)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	body, hit, err := h.Cache.Fetch(ctx, parts.Fingerprint(), func() ([]byte, error) {
		meta := page.Meta()
		meta["message"] = h.def.Message(authz.ActionList)
		doc, err := h.Serializer.Many(ctx, h.def, page.Records, resource.Options{
			Includes:  includes,
			Fields:    q.Fields,
			Principal: p,
			Meta:      meta,
			Links:     page.Links(q.LinkBase(h.def, authz.ActionList, r.URL.Path)),
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("collection rendered",
		slog.Int("page", page.Page),
		slog.Int("count", page.Count),
		slog.Bool("cache_hit", hit))
	if hit {
		w.Header().Set(CacheStatusHeader, "HIT")
	} else {
		w.Header().Set(CacheStatusHeader, "MISS")
	}
	shared.RespondWithBody(w, r, http.StatusOK, body)
}

// New handles GET /<type>/new, rendering an unsaved record with defaults.
func (h *ResourceHandler) New(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := shared.PrincipalFrom(ctx)

	if err := h.Gate.Authorize(ctx, h.def, p, authz.ActionCreate, nil); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	blank, err := h.Records.Build(ctx, h.def, resource.Input{})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := h.Gate.Authorize(ctx, h.def, p, authz.ActionCreate, blank); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, authz.ActionNew, blank)
}

// Create handles POST /<type>.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := shared.PrincipalFrom(ctx)

	if err := h.Gate.Authorize(ctx, h.def, p, authz.ActionCreate, nil); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	attrs, err := shared.ResourceAttributes(r, h.def.Singular)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	in := h.def.Permit(authz.ActionCreate, attrs)

	rec, err := h.Records.Build(ctx, h.def, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := h.Gate.Authorize(ctx, h.def, p, authz.ActionCreate, rec); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := h.Records.Create(ctx, h.def, rec, in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.render(w, r, http.StatusCreated, authz.ActionCreate, rec)
}

// Show handles GET /<type>/{id}.
func (h *ResourceHandler) Show(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.fetch(w, r, authz.ActionRead)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, authz.ActionRead, rec)
}

// Update handles PATCH and PUT /<type>/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.fetch(w, r, authz.ActionUpdate)
	if !ok {
		return
	}
	attrs, err := shared.ResourceAttributes(r, h.def.Singular)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	in := h.def.Permit(authz.ActionUpdate, attrs)
	if err := h.Records.Update(r.Context(), h.def, rec, in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, authz.ActionUpdate, rec)
}

// Delete handles DELETE /<type>/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.fetch(w, r, authz.ActionDelete)
	if !ok {
		return
	}
	if err := h.Records.Delete(r.Context(), h.def, rec); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resource.Document{
		Meta: map[string]any{"message": h.def.Message(authz.ActionDelete)},
	})
}

// fetch runs the shared prologue of member actions: reject anonymous
// callers, validate includes, find the record and authorize it.
func (h *ResourceHandler) fetch(w http.ResponseWriter, r *http.Request, action authz.Action) (*domain.Record, bool) {
	ctx := r.Context()
	p := shared.PrincipalFrom(ctx)

	if err := h.Gate.Authorize(ctx, h.def, p, action, nil); err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	q := resource.ParseQuery(r.URL.Query())
	if err := h.Registry.ValidateIncludes(h.def, q.Includes(h.def, action)); err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}

	rec, err := resource.Find(ctx, h.Store, h.def, resource.BaseScope(h.def, action, q), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	if err := h.Gate.Authorize(ctx, h.def, p, action, rec); err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	return rec, true
}

func (h *ResourceHandler) render(w http.ResponseWriter, r *http.Request, status int, action authz.Action, rec *domain.Record) {
	ctx := r.Context()
	q := resource.ParseQuery(r.URL.Query())
	doc, err := h.Serializer.One(ctx, h.def, rec, resource.Options{
		Includes:  q.Includes(h.def, action),
		Fields:    q.Fields,
		Principal: shared.PrincipalFrom(ctx),
		Meta:      map[string]any{"message": h.def.Message(action)},
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, status, doc)
}
