// Package httpserver exposes the inventory over HTTP: server-rendered
// browser routes that redirect to the login page, and /api JSON routes that
// answer 401 and 403 with an error envelope.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
)

// SessionFlow opens, resolves and closes sessions from signed tokens.
type SessionFlow interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Resolve(ctx context.Context, token string) (*models.Identity, error)
	Logout(ctx context.Context, token string) error
}

// UserManager is the user maintenance surface used by the handlers.
type UserManager interface {
	Register(ctx context.Context, requester *models.Identity, in services.RegisterInput) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, requester *models.Identity, id string, in services.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, requester *models.Identity, id string) error
}

// CategoryManager is the part category surface used by the handlers.
type CategoryManager interface {
	List(ctx context.Context) ([]*models.PartCategory, error)
	Get(ctx context.Context, id string) (*models.PartCategory, error)
	Create(ctx context.Context, requester *models.Identity, in services.CategoryInput) (*models.PartCategory, error)
	Delete(ctx context.Context, requester *models.Identity, id string) error
}

// Pinger reports backend readiness. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Observer receives one call per finished request.
type Observer interface {
	ObserveHTTP(method string, status int, elapsed time.Duration)
}

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Handler carries the dependencies of every route.
type Handler struct {
	sessions   SessionFlow
	users      UserManager
	categories CategoryManager
	ready      Pinger
	observer   Observer
	metrics    http.Handler
	cookie     CookieOptions
	renderer   *Renderer
	log        logging.Logger
}

// Deps groups the constructor arguments of Handler. Ready, Observer and
// Metrics are optional.
type Deps struct {
	Sessions   SessionFlow
	Users      UserManager
	Categories CategoryManager
	Ready      Pinger
	Observer   Observer
	Metrics    http.Handler
	Cookie     CookieOptions
	Logger     logging.Logger
}

// NewHandler builds a Handler and parses the embedded page templates.
func NewHandler(d Deps) (*Handler, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	log := d.Logger
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{
		sessions:   d.Sessions,
		users:      d.Users,
		categories: d.Categories,
		ready:      d.Ready,
		observer:   d.Observer,
		metrics:    d.Metrics,
		cookie:     d.Cookie,
		renderer:   renderer,
		log:        log.With("module", "http"),
	}, nil
}
