// Package clienttest provides an in-memory tenant API backend for tests.
package clienttest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenantadmin/pkg/httputil"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// Route names, identical to the client operation names
const (
	RouteListUsers             = "list_users"
	RouteListUserRoles         = "list_user_roles"
	RouteListUserActivity      = "list_user_activity"
	RouteAssignRole            = "assign_role"
	RouteReplaceRole           = "replace_role"
	RouteRemoveRole            = "remove_role"
	RouteListRoles             = "list_roles"
	RouteGetRole               = "get_role"
	RouteCreateRole            = "create_role"
	RouteUpdateRole            = "update_role"
	RouteUpdateRolePermissions = "update_role_permissions"
	RouteDeleteRole            = "delete_role"
	RouteAvailablePermissions  = "available_permissions"
	RouteListModules           = "list_modules"
)

// Shape selects how list endpoints wrap their collection
type Shape = httputil.Envelope

const (
	ShapeBare   = httputil.EnvelopeBare
	ShapeData   = httputil.EnvelopeData
	ShapeItems  = httputil.EnvelopeItems
	ShapePlural = httputil.EnvelopePlural
)

type failure struct {
	status  int
	message string
}

// Server is a fake tenant API. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     []map[string]any
	roles     []map[string]any
	modules   []map[string]any
	userRoles map[string][]string
	activity  map[string][]map[string]any
	nextID    int

	shape    Shape
	errStyle httputil.ErrorStyle
	calls    map[string]int
	failures map[string][]failure
	holds    map[string]chan struct{}
	headers  map[string]http.Header
	bodies   map[string]map[string]any
}

// New starts a fake backend that is closed when the test ends
func New(t testing.TB) *Server {
	s := &Server{
		userRoles: make(map[string][]string),
		activity:  make(map[string][]map[string]any),
		nextID:    100,
		shape:     ShapePlural,
		errStyle:  httputil.ErrorStyleMessage,
		calls:     make(map[string]int),
		failures:  make(map[string][]failure),
		holds:     make(map[string]chan struct{}),
		headers:   make(map[string]http.Header),
		bodies:    make(map[string]map[string]any),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/tenant").Subrouter()

	api.HandleFunc("/users", s.handle(RouteListUsers, s.listUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/roles", s.handle(RouteListUserRoles, s.listUserRoles)).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/activity", s.handle(RouteListUserActivity, s.listActivity)).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/roles/{roleId}", s.handle(RouteAssignRole, s.assignRole)).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/roles/{roleId}", s.handle(RouteReplaceRole, s.replaceRole)).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}/roles/{roleId}", s.handle(RouteRemoveRole, s.removeRole)).Methods(http.MethodDelete)

	api.HandleFunc("/roles", s.handle(RouteListRoles, s.listRoles)).Methods(http.MethodGet)
	api.HandleFunc("/roles", s.handle(RouteCreateRole, s.createRole)).Methods(http.MethodPost)
	api.HandleFunc("/roles/{roleId}", s.handle(RouteGetRole, s.getRole)).Methods(http.MethodGet)
	api.HandleFunc("/roles/{roleId}", s.updateRoleDispatch).Methods(http.MethodPut)
	api.HandleFunc("/roles/{roleId}", s.handle(RouteDeleteRole, s.deleteRole)).Methods(http.MethodDelete)
	api.HandleFunc("/roles/{roleId}/permissions/available", s.handle(RouteAvailablePermissions, s.available)).Methods(http.MethodGet)

	api.HandleFunc("/modules", s.handle(RouteListModules, s.listModules)).Methods(http.MethodGet)
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, body map[string]any)

// handle wraps a route with call counting, header capture, holds and failure injection
func (s *Server) handle(route string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := httputil.DecodeBody(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serve(route, fn, w, r, body)
	}
}

func (s *Server) serve(route string, fn handlerFunc, w http.ResponseWriter, r *http.Request, body map[string]any) {
	s.mu.Lock()
	s.calls[route]++
	s.headers[route] = r.Header.Clone()
	s.bodies[route] = body
	hold := s.holds[route]
	style := s.errStyle
	var fail *failure
	if queue := s.failures[route]; len(queue) > 0 {
		fail = &queue[0]
		s.failures[route] = queue[1:]
	}
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if fail != nil {
		httputil.WriteError(w, fail.status, style, fail.message)
		return
	}
	fn(w, r, body)
}

// Both role updates share PUT /tenant/roles/{roleId}; the body decides
func (s *Server) updateRoleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.DecodeBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := body["permission_ids"]; ok {
		s.serve(RouteUpdateRolePermissions, s.updateRolePermissions, w, r, body)
		return
	}
	s.serve(RouteUpdateRole, s.updateRole, w, r, body)
}

// SetShape changes how list endpoints wrap their payload
func (s *Server) SetShape(shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shape = shape
}

// SetErrorStyle changes the payload shape of every error response
func (s *Server) SetErrorStyle(style httputil.ErrorStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errStyle = style
}

// Fail makes the next request to route answer with status and message.
// Calls queue up.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// Hold blocks requests to route until the returned release func is called
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests route has received
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastHeader returns a header of the most recent request to route
func (s *Server) LastHeader(route, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route].Get(key)
}

// LastBody returns the decoded body of the most recent request to route
func (s *Server) LastBody(route string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[route]
}

// AddUser seeds a raw user object. status may be a string or an object.
func (s *Server) AddUser(id, email string, status any) {
	s.AddRawUser(map[string]any{"id": id, "email": email, "status": status})
}

// AddRawUser seeds a user object exactly as the backend would send it
func (s *Server) AddRawUser(user map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
}

// AddRole seeds a role
func (s *Server) AddRole(id, name string, permissions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, map[string]any{
		"id":          id,
		"name":        name,
		"permissions": toAny(permissions),
	})
}

// AddModule seeds a module of the permission catalog
func (s *Server) AddModule(id, name string, permissions ...rbac.Permission) {
	perms := make([]any, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, map[string]any{"id": p.ID, "type": string(p.Type), "displayName": p.DisplayName})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = append(s.modules, map[string]any{"id": id, "name": name, "permissions": perms})
}

// AddActivity seeds activity entries of a user
func (s *Server) AddActivity(userID string, entries ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[userID] = append(s.activity[userID], entries...)
}

// UserRoleIDs returns the role ids currently assigned to a user
func (s *Server) UserRoleIDs(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userRoles[userID]...)
}

// RoleIDs returns the ids of every stored role, sorted
func (s *Server) RoleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.roles))
	for _, r := range s.roles {
		ids = append(ids, r["id"].(string))
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) writeList(w http.ResponseWriter, plural string, items []map[string]any) {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}

	s.mu.Lock()
	shape := s.shape
	s.mu.Unlock()

	_ = httputil.WriteList(w, shape, plural, list)
}

// writeError must not be called with s.mu held
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.mu.Lock()
	style := s.errStyle
	s.mu.Unlock()
	httputil.WriteError(w, status, style, message)
}

func (s *Server) writeErrorLocked(w http.ResponseWriter, status int, message string) {
	httputil.WriteError(w, status, s.errStyle, message)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	s.mu.Lock()
	users := append([]map[string]any(nil), s.users...)
	s.mu.Unlock()
	s.writeList(w, "users", users)
}

func (s *Server) listUserRoles(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	userID := mux.Vars(r)["userId"]
	s.mu.Lock()
	var roles []map[string]any
	for _, id := range s.userRoles[userID] {
		if role := s.findRoleLocked(id); role != nil {
			roles = append(roles, role)
		}
	}
	s.mu.Unlock()
	s.writeList(w, "roles", roles)
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	userID := mux.Vars(r)["userId"]
	s.mu.Lock()
	entries := append([]map[string]any(nil), s.activity[userID]...)
	s.mu.Unlock()
	s.writeList(w, "activity", entries)
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findRoleLocked(vars["roleId"]) == nil {
		s.writeErrorLocked(w, http.StatusNotFound, "role not found")
		return
	}
	for _, id := range s.userRoles[vars["userId"]] {
		if id == vars["roleId"] {
			s.writeErrorLocked(w, http.StatusConflict, "role already assigned")
			return
		}
	}
	s.userRoles[vars["userId"]] = append(s.userRoles[vars["userId"]], vars["roleId"])
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) replaceRole(w http.ResponseWriter, r *http.Request, body map[string]any) {
	vars := mux.Vars(r)
	newRoleID, err := httputil.StringField(body, "new_role_id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findRoleLocked(newRoleID) == nil {
		s.writeErrorLocked(w, http.StatusNotFound, "role not found")
		return
	}
	ids := s.userRoles[vars["userId"]]
	for i, id := range ids {
		if id == vars["roleId"] {
			ids[i] = newRoleID
			httputil.WriteNoContent(w)
			return
		}
	}
	s.writeErrorLocked(w, http.StatusNotFound, "role is not assigned to the user")
}

func (s *Server) removeRole(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.userRoles[vars["userId"]]
	for i, id := range ids {
		if id == vars["roleId"] {
			s.userRoles[vars["userId"]] = append(ids[:i:i], ids[i+1:]...)
			httputil.WriteNoContent(w)
			return
		}
	}
	s.writeErrorLocked(w, http.StatusNotFound, "role is not assigned to the user")
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	s.mu.Lock()
	roles := append([]map[string]any(nil), s.roles...)
	s.mu.Unlock()
	s.writeList(w, "roles", roles)
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	s.mu.Lock()
	role := s.findRoleLocked(mux.Vars(r)["roleId"])
	s.mu.Unlock()
	if role == nil {
		s.writeError(w, http.StatusNotFound, "role not found")
		return
	}
	_ = httputil.WriteItem(w, http.StatusOK, role)
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request, body map[string]any) {
	name, err := httputil.StringField(body, "name")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range s.roles {
		if role["name"] == name {
			s.writeErrorLocked(w, http.StatusConflict, fmt.Sprintf("role %q already exists", name))
			return
		}
	}
	s.nextID++
	role := map[string]any{
		"id":          strconv.Itoa(s.nextID),
		"name":        name,
		"description": body["description"],
		"permissions": body["permissions"],
	}
	s.roles = append(s.roles, role)
	_ = httputil.WriteJSON(w, http.StatusCreated, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role := s.findRoleLocked(mux.Vars(r)["roleId"])
	if role == nil {
		s.writeErrorLocked(w, http.StatusNotFound, "role not found")
		return
	}
	for _, key := range []string{"name", "description", "permissions"} {
		if v, ok := body[key]; ok {
			role[key] = v
		}
	}
	_ = httputil.WriteJSON(w, http.StatusOK, role)
}

func (s *Server) updateRolePermissions(w http.ResponseWriter, r *http.Request, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role := s.findRoleLocked(mux.Vars(r)["roleId"])
	if role == nil {
		s.writeErrorLocked(w, http.StatusNotFound, "role not found")
		return
	}
	role["permissions"] = body["permission_ids"]
	httputil.WriteNoContent(w)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	id := mux.Vars(r)["roleId"]
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, role := range s.roles {
		if role["id"] == id {
			s.roles = append(s.roles[:i:i], s.roles[i+1:]...)
			httputil.WriteNoContent(w)
			return
		}
	}
	s.writeErrorLocked(w, http.StatusNotFound, "role not found")
}

func (s *Server) available(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	s.mu.Lock()
	role := s.findRoleLocked(mux.Vars(r)["roleId"])
	if role == nil {
		s.mu.Unlock()
		s.writeError(w, http.StatusNotFound, "role not found")
		return
	}
	assigned := make(map[string]bool)
	if perms, ok := role["permissions"].([]any); ok {
		for _, p := range perms {
			if id, ok := p.(string); ok {
				assigned[id] = true
			}
		}
	}

	modules := make([]map[string]any, 0, len(s.modules))
	for _, m := range s.modules {
		var perms []any
		for _, p := range m["permissions"].([]any) {
			perm := p.(map[string]any)
			annotated := map[string]any{"assigned": assigned[perm["id"].(string)]}
			for k, v := range perm {
				annotated[k] = v
			}
			perms = append(perms, annotated)
		}
		modules = append(modules, map[string]any{"id": m["id"], "name": m["name"], "permissions": perms})
	}
	s.mu.Unlock()

	s.writeList(w, "modules", modules)
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	s.mu.Lock()
	modules := append([]map[string]any(nil), s.modules...)
	s.mu.Unlock()
	s.writeList(w, "modules", modules)
}

func (s *Server) findRoleLocked(id string) map[string]any {
	for _, role := range s.roles {
		if role["id"] == id {
			return role
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
