// server.go — интерфейс сервера и обёртка, привязывающая параметры к обработчикам.
// Разбор path/query параметров — через oapi-codegen/runtime, маршрутизация — chi.
package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
)

type contextKey string

// SessionScopes — ключ контекста, выставляемый для операций с security-требованием.
// Проверяется middleware.RequireSession.
const SessionScopes contextKey = "sessionCookie.Scopes"

// WithSessionRequired помечает контекст операции security-требованием.
func WithSessionRequired(ctx context.Context) context.Context {
	return context.WithValue(ctx, SessionScopes, []string{})
}

// RequiresSession возвращает true, если операция запроса требует сессии.
func RequiresSession(ctx context.Context) bool {
	_, ok := ctx.Value(SessionScopes).([]string)
	return ok
}

// ServerInterface — операции API архива.
type ServerInterface interface {
	// POST /api/v1/auth/login
	Login(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/auth/logout
	Logout(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/auth/session
	GetSession(w http.ResponseWriter, r *http.Request)

	// GET /api/v1/items
	ListItems(w http.ResponseWriter, r *http.Request, params ListItemsParams)
	// POST /api/v1/items
	CreateItem(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/items/tags
	ListTags(w http.ResponseWriter, r *http.Request, params ListTagsParams)
	// GET /api/v1/items/{id}
	GetItem(w http.ResponseWriter, r *http.Request, id ItemId)
	// PUT /api/v1/items/{id}
	UpdateItem(w http.ResponseWriter, r *http.Request, id ItemId)
	// DELETE /api/v1/items/{id}
	DeleteItem(w http.ResponseWriter, r *http.Request, id ItemId)
	// POST /api/v1/items/{id}/move
	MoveItem(w http.ResponseWriter, r *http.Request, id ItemId)

	// GET /api/v1/categories
	ListCategories(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/categories
	AddCategory(w http.ResponseWriter, r *http.Request)
	// DELETE /api/v1/categories
	DeleteCategory(w http.ResponseWriter, r *http.Request, params DeleteCategoryParams)
	// GET /api/v1/categories/tree
	GetCategoryTree(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/categories/rename
	RenameCategory(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/categories/move
	MoveCategory(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/categories/reorder
	ReorderCategories(w http.ResponseWriter, r *http.Request)
	// PUT /api/v1/categories/order
	UpdateCategoryOrder(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/categories/delete
	HandleCategoryDeletion(w http.ResponseWriter, r *http.Request)

	// GET /api/v1/people
	ListPeople(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/people/{kind}
	AddPerson(w http.ResponseWriter, r *http.Request, kind PersonKind)
	// PUT /api/v1/people/{kind}/{id}
	UpdatePerson(w http.ResponseWriter, r *http.Request, kind PersonKind, id string)
	// DELETE /api/v1/people/{kind}/{id}
	DeletePerson(w http.ResponseWriter, r *http.Request, kind PersonKind, id string)

	// POST /api/v1/maintenance/reconcile
	RunReconcile(w http.ResponseWriter, r *http.Request)

	// GET /health/live
	HealthLive(w http.ResponseWriter, r *http.Request)
	// GET /health/ready
	HealthReady(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// GET /api/openapi.json
	GetOpenAPI(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc оборачивает обработчик отдельной операции.
type MiddlewareFunc func(http.Handler) http.Handler

// InvalidParamFormatError — параметр не удалось разобрать.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("некорректный формат параметра %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper разбирает параметры и вызывает ServerInterface.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// serve применяет middleware операции. secured помечает контекст security-требованием.
func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, secured bool, fn http.HandlerFunc) {
	if secured {
		r = r.WithContext(WithSessionRequired(r.Context()))
	}
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// pathParam привязывает path-параметр в стиле simple.
func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// queryParam привязывает query-параметр в стиле form.
func (siw *ServerInterfaceWrapper) queryParam(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// --- Auth ---

func (siw *ServerInterfaceWrapper) Login(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.Login)
}

func (siw *ServerInterfaceWrapper) Logout(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.Logout)
}

func (siw *ServerInterfaceWrapper) GetSession(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.GetSession)
}

// --- Items ---

func (siw *ServerInterfaceWrapper) ListItems(w http.ResponseWriter, r *http.Request) {
	var params ListItemsParams
	if !siw.queryParam(w, r, "category", false, &params.Category) ||
		!siw.queryParam(w, r, "subtree", false, &params.Subtree) ||
		!siw.queryParam(w, r, "tag", false, &params.Tag) ||
		!siw.queryParam(w, r, "type", false, &params.Type) ||
		!siw.queryParam(w, r, "search", false, &params.Search) ||
		!siw.queryParam(w, r, "sort", false, &params.Sort) ||
		!siw.queryParam(w, r, "limit", false, &params.Limit) ||
		!siw.queryParam(w, r, "offset", false, &params.Offset) {
		return
	}
	siw.serve(w, r, false, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListItems(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) CreateItem(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.CreateItem)
}

func (siw *ServerInterfaceWrapper) ListTags(w http.ResponseWriter, r *http.Request) {
	var params ListTagsParams
	if !siw.queryParam(w, r, "category", false, &params.Category) ||
		!siw.queryParam(w, r, "subtree", false, &params.Subtree) {
		return
	}
	siw.serve(w, r, false, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTags(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) GetItem(w http.ResponseWriter, r *http.Request) {
	var id ItemId
	if !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, false, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetItem(w, r, id)
	})
}

func (siw *ServerInterfaceWrapper) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var id ItemId
	if !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateItem(w, r, id)
	})
}

func (siw *ServerInterfaceWrapper) DeleteItem(w http.ResponseWriter, r *http.Request) {
	var id ItemId
	if !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteItem(w, r, id)
	})
}

func (siw *ServerInterfaceWrapper) MoveItem(w http.ResponseWriter, r *http.Request) {
	var id ItemId
	if !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.MoveItem(w, r, id)
	})
}

// --- Categories ---

func (siw *ServerInterfaceWrapper) ListCategories(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.ListCategories)
}

func (siw *ServerInterfaceWrapper) AddCategory(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.AddCategory)
}

func (siw *ServerInterfaceWrapper) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	var params DeleteCategoryParams
	if !siw.queryParam(w, r, "path", true, &params.Path) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteCategory(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.GetCategoryTree)
}

func (siw *ServerInterfaceWrapper) RenameCategory(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.RenameCategory)
}

func (siw *ServerInterfaceWrapper) MoveCategory(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.MoveCategory)
}

func (siw *ServerInterfaceWrapper) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.ReorderCategories)
}

func (siw *ServerInterfaceWrapper) UpdateCategoryOrder(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.UpdateCategoryOrder)
}

func (siw *ServerInterfaceWrapper) HandleCategoryDeletion(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.HandleCategoryDeletion)
}

// --- People ---

func (siw *ServerInterfaceWrapper) ListPeople(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.ListPeople)
}

func (siw *ServerInterfaceWrapper) AddPerson(w http.ResponseWriter, r *http.Request) {
	var kind PersonKind
	if !siw.pathParam(w, r, "kind", &kind) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.AddPerson(w, r, kind)
	})
}

func (siw *ServerInterfaceWrapper) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var kind PersonKind
	var id string
	if !siw.pathParam(w, r, "kind", &kind) || !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdatePerson(w, r, kind, id)
	})
}

func (siw *ServerInterfaceWrapper) DeletePerson(w http.ResponseWriter, r *http.Request) {
	var kind PersonKind
	var id string
	if !siw.pathParam(w, r, "kind", &kind) || !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.serve(w, r, true, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeletePerson(w, r, kind, id)
	})
}

// --- Maintenance & system ---

func (siw *ServerInterfaceWrapper) RunReconcile(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, true, siw.Handler.RunReconcile)
}

func (siw *ServerInterfaceWrapper) HealthLive(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.HealthLive)
}

func (siw *ServerInterfaceWrapper) HealthReady(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.HealthReady)
}

func (siw *ServerInterfaceWrapper) GetMetrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.GetMetrics)
}

func (siw *ServerInterfaceWrapper) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, false, siw.Handler.GetOpenAPI)
}

// ChiServerOptions — параметры монтирования.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux монтирует операции на существующий chi-роутер.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions монтирует операции с middleware и обработчиком ошибок параметров.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			apierrors.ValidationError(w, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Post(base+"/api/v1/auth/login", wrapper.Login)
		r.Post(base+"/api/v1/auth/logout", wrapper.Logout)
		r.Get(base+"/api/v1/auth/session", wrapper.GetSession)

		r.Get(base+"/api/v1/items", wrapper.ListItems)
		r.Post(base+"/api/v1/items", wrapper.CreateItem)
		r.Get(base+"/api/v1/items/tags", wrapper.ListTags)
		r.Get(base+"/api/v1/items/{id}", wrapper.GetItem)
		r.Put(base+"/api/v1/items/{id}", wrapper.UpdateItem)
		r.Delete(base+"/api/v1/items/{id}", wrapper.DeleteItem)
		r.Post(base+"/api/v1/items/{id}/move", wrapper.MoveItem)

		r.Get(base+"/api/v1/categories", wrapper.ListCategories)
		r.Post(base+"/api/v1/categories", wrapper.AddCategory)
		r.Delete(base+"/api/v1/categories", wrapper.DeleteCategory)
		r.Get(base+"/api/v1/categories/tree", wrapper.GetCategoryTree)
		r.Post(base+"/api/v1/categories/rename", wrapper.RenameCategory)
		r.Post(base+"/api/v1/categories/move", wrapper.MoveCategory)
		r.Post(base+"/api/v1/categories/reorder", wrapper.ReorderCategories)
		r.Put(base+"/api/v1/categories/order", wrapper.UpdateCategoryOrder)
		r.Post(base+"/api/v1/categories/delete", wrapper.HandleCategoryDeletion)

		r.Get(base+"/api/v1/people", wrapper.ListPeople)
		r.Post(base+"/api/v1/people/{kind}", wrapper.AddPerson)
		r.Put(base+"/api/v1/people/{kind}/{id}", wrapper.UpdatePerson)
		r.Delete(base+"/api/v1/people/{kind}/{id}", wrapper.DeletePerson)

		r.Post(base+"/api/v1/maintenance/reconcile", wrapper.RunReconcile)

		r.Get(base+"/health/live", wrapper.HealthLive)
		r.Get(base+"/health/ready", wrapper.HealthReady)
		r.Get(base+"/metrics", wrapper.GetMetrics)
		r.Get(base+"/api/openapi.json", wrapper.GetOpenAPI)
	})

	return r
}
