package router

import (
	"context"
	"github.com/julienschmidt/httprouter"
	"net/http"
)

// Move to interface and this to new package for wrapper
// Route implmentations need to implement the interface
// Get maybe, but mos imporant NamedParams()
type Router struct {
	*httprouter.Router
}

func (r *Router) Get(path string, handler http.Handler) {
	r.Handler("GET", path, handler)
}

func (r *Router) Post(path string, handler http.Handler) {
	r.Handler("POST", path, handler)
}

// Handle registers handler for an arbitrary method, for callers that
// don't know the method at compile time (e.g. a table of routes).
func (r *Router) Handle(method, path string, handler http.Handler) {
	r.Handler(method, path, handler)
}

func New() *Router {
	return &Router{httprouter.New()}
}

// Implementations of iface router should define also struct implementing NamedParams
// TODO when own package, rename
type HttpRouterNamedParams struct{}

// Transform the httprouter context variable in touter independent Params
func (np *HttpRouterNamedParams) Get(ctx context.Context) Params {
	pms, _ := ctx.Value(httprouter.ParamsKey).(httprouter.Params)

	var params Params

	for _, v := range pms {
		p := Param{Key: v.Key, Value: v.Value}
		params = append(params, p)
	}

	return params
}

// Param is a single named URL parameter.
type Param struct {
	Key   string
	Value string
}

// Params is the router-independent list of a request's named URL parameters.
type Params []Param

func NewHttpRouterNamedParams() *HttpRouterNamedParams {
	return &HttpRouterNamedParams{}
}
