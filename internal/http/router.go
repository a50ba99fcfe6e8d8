package http

import (
	"net/http"
	"strings"
	"time"

	"taskpay/internal/domain/user"
	"taskpay/internal/http/handlers"
	httpmw "taskpay/internal/http/middleware"
)

type RouterDependencies struct {
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	ProfileHandler     *handlers.ProfileHandler
	TaskHandler        *handlers.TaskHandler
	ApplicationHandler *handlers.ApplicationHandler
	AttachmentHandler  *handlers.AttachmentHandler
	AdminHandler       *handlers.AdminHandler
	LookupHandler      *handlers.LookupHandler
	AuthMiddleware     *httpmw.AuthMiddleware
	RoleGuard          *httpmw.RoleGuard
	AuthGuard          *httpmw.IPGuard
	RequestTimeout     time.Duration
	MaxBodyBytes       int64
}

type Router struct {
	deps RouterDependencies
}

func NewRouter(deps RouterDependencies) http.Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	return &Router{deps: deps}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := httpmw.Chain(r.baseHandler(), httpmw.RequestID, httpmw.Logging, httpmw.SecurityHeaders, httpmw.BodyLimit(r.deps.MaxBodyBytes), httpmw.Recover, httpmw.Timeout(r.deps.RequestTimeout))
	handler.ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		switch {
		case req.Method == http.MethodGet && path == "/health":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		case req.Method == http.MethodGet && path == "/lookups/categories":
			r.deps.LookupHandler.Categories(w, req)
			return
		case req.Method == http.MethodGet && path == "/lookups/locations":
			r.deps.LookupHandler.Locations(w, req)
			return
		case req.Method == http.MethodGet && path == "/tasks/available":
			r.deps.TaskHandler.ListAvailable(w, req)
			return
		case req.Method == http.MethodGet && strings.HasPrefix(path, "/tasks/"):
			r.deps.TaskHandler.Get(w, req)
			return
		}

		if strings.HasPrefix(path, "/auth/") {
			r.deps.AuthGuard.Wrap(http.HandlerFunc(r.handleAuth)).ServeHTTP(w, req)
			return
		}

		if strings.HasPrefix(path, "/profile") || strings.HasPrefix(path, "/uploads") || strings.HasPrefix(path, "/applications") || strings.HasPrefix(path, "/client") || strings.HasPrefix(path, "/admin") {
			protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(r.handleProtected))
			protected.ServeHTTP(w, req)
			return
		}

		http.NotFound(w, req)
	})
}

func (r *Router) handleAuth(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	switch {
	case req.Method == http.MethodPost && path == "/auth/register":
		r.deps.AuthHandler.Register(w, req)
	case req.Method == http.MethodPost && path == "/auth/login":
		r.deps.AuthHandler.Login(w, req)
	case req.Method == http.MethodPost && path == "/auth/refresh":
		r.deps.AuthHandler.Refresh(w, req)
	case req.Method == http.MethodPost && path == "/auth/switch-role":
		r.deps.AuthHandler.SwitchRole(w, req)
	case req.Method == http.MethodPost && path == "/auth/logout":
		r.deps.AuthHandler.Logout(w, req)
	default:
		http.NotFound(w, req)
	}
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	applicant := r.deps.RoleGuard.Require(user.RoleApplicant)
	client := r.deps.RoleGuard.Require(user.RoleClient)
	admin := r.deps.RoleGuard.Require(user.RoleAdmin)

	switch {
	case req.Method == http.MethodGet && path == "/profile/form":
		applicant(http.HandlerFunc(r.deps.ProfileHandler.GetForm)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/profile/form":
		applicant(http.HandlerFunc(r.deps.ProfileHandler.SubmitForm)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/uploads/resume":
		applicant(http.HandlerFunc(r.deps.AttachmentHandler.UploadResume)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/uploads/resume":
		applicant(http.HandlerFunc(r.deps.AttachmentHandler.GetResume)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/applications/tasks/") && strings.HasSuffix(path, "/apply"):
		applicant(http.HandlerFunc(r.deps.ApplicationHandler.Apply)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/applications/") && strings.HasSuffix(path, "/withdraw"):
		applicant(http.HandlerFunc(r.deps.ApplicationHandler.Withdraw)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/applications/my":
		applicant(http.HandlerFunc(r.deps.ApplicationHandler.ListMine)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/client/tasks":
		client(http.HandlerFunc(r.deps.TaskHandler.Create)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/client/tasks":
		client(http.HandlerFunc(r.deps.TaskHandler.ListByClient)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/client/tasks/") && strings.HasSuffix(path, "/status"):
		client(http.HandlerFunc(r.deps.TaskHandler.UpdateStatus)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/client/tasks/") && strings.HasSuffix(path, "/hire"):
		client(http.HandlerFunc(r.deps.TaskHandler.Hire)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/client/tasks/"):
		client(http.HandlerFunc(r.deps.TaskHandler.Update)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/client/completed-tasks":
		client(http.HandlerFunc(r.deps.TaskHandler.ListCompletedByClient)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/client/stats":
		client(http.HandlerFunc(r.deps.TaskHandler.Stats)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/client/profile":
		client(http.HandlerFunc(r.deps.UserHandler.GetProfile)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/admin/applicants":
		admin(http.HandlerFunc(r.deps.AdminHandler.ListApplicants)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/admin/applications/") && strings.HasSuffix(path, "/status"):
		admin(http.HandlerFunc(r.deps.ApplicationHandler.UpdateStatus)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/admin/tasks/") && strings.HasSuffix(path, "/applications"):
		admin(http.HandlerFunc(r.deps.ApplicationHandler.ListByTask)).ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}
