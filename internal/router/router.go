package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"vet-clinic/internal/adapters/notify/inproc"
	mem "vet-clinic/internal/adapters/storage/memory"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/activity"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/dashboard"
	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/domain/sessions"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/domain/workflow"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/auth"
	"vet-clinic/internal/ports/notify"

	_ "vet-clinic/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Verifier del idToken de POST /auth/session. nil => 503 en login.
	Verifier auth.AuthVerifier

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB           *sql.DB
	StoreTimeout time.Duration

	// Bus de RoleChanged. nil => in-process.
	Bus notify.Bus

	Location      *time.Location
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	// DevMode habilita X-Debug-User-ID / X-Debug-Role.
	DevMode bool

	// Intentos de login por minuto e IP. 0 => 10.
	LoginRatePerMinute int
	// TrustProxy habilita RealIP. Sin proxy propio adelante, X-Forwarded-For lo pone el cliente.
	TrustProxy bool

	Log logger.Logger

	// Clock fecha las consultas walk-in. nil => time.Now.
	Clock func() time.Time
}

type repos struct {
	roles         permissions.Repository
	users         users.Repository
	owners        owners.Repository
	appointments  appointments.Repository
	consultations consultations.Repository
	inventory     inventory.Repository
	activity      activity.Repository
}

func newRepos(opts Options) repos {
	if opts.DB != nil {
		db := pg.NewDB(opts.DB, opts.StoreTimeout, opts.Log)
		return repos{
			roles:         pg.NewRolesRepo(db),
			users:         pg.NewUsersRepo(db),
			owners:        pg.NewOwnersRepo(db),
			appointments:  pg.NewAppointmentsRepo(db),
			consultations: pg.NewConsultationsRepo(db),
			inventory:     pg.NewInventoryRepo(db),
			activity:      pg.NewActivityRepo(db),
		}
	}
	return repos{
		roles:         mem.NewRoleRepo(),
		users:         mem.NewUserRepo(),
		owners:        mem.NewOwnerRepo(),
		appointments:  mem.NewAppointmentRepo(),
		consultations: mem.NewConsultationRepo(),
		inventory:     mem.NewInventoryRepo(),
		activity:      mem.NewActivityRepo(),
	}
}

func NewRouter(opts Options) (http.Handler, error) {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Bus == nil {
		opts.Bus = inproc.NewBus()
	}
	if opts.LoginRatePerMinute <= 0 {
		opts.LoginRatePerMinute = 10
	}

	manager, err := sessions.NewManager(sessions.Config{
		Secret: opts.SessionSecret,
		TTL:    opts.SessionTTL,
		Secure: opts.SecureCookies,
	})
	if err != nil {
		return nil, err
	}

	rp := newRepos(opts)

	// Permisos
	store := permissions.NewStore(rp.roles, opts.Log)
	authz := permissions.NewAuthorizer(store, permissions.NewSessionCache(), opts.Log)
	guard := access.NewGuard(authz, opts.Log)
	require := guard.Require

	// Services por módulo
	usersSvc := users.NewService(rp.users, opts.Bus, opts.Log)
	ownersSvc := owners.NewService(rp.owners)
	apptSvc := appointments.NewService(rp.appointments)
	consSvc := consultations.NewService(rp.consultations)
	invSvc := inventory.NewService(rp.inventory)
	actSvc := activity.NewService(rp.activity)
	dashSvc := dashboard.NewService(apptSvc, consSvc, invSvc, opts.Location)

	engine := workflow.NewEngine(workflow.Deps{
		Authz:         authz,
		Owners:        ownersSvc,
		Appointments:  apptSvc,
		Consultations: consSvc,
		Inventory:     invSvc,
		Activity:      actSvc,
		Location:      opts.Location,
		Log:           opts.Log,
		Clock:         opts.Clock,
	})

	opts.Bus.SubscribeRoleChanged(func(ev notify.RoleChanged) {
		authz.RoleChanged(ev.UID)
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(middleware.Recover(opts.Log))

	r.Use(middleware.AuthContext(middleware.AuthOptions{
		CookieName: sessions.CookieName,
		Sessions:   manager,
		Roles:      usersSvc,
		DevMode:    opts.DevMode,
		Log:        opts.Log,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	sessions.RegisterRoutes(r, sessions.HandlerDeps{
		Manager:  manager,
		Verifier: opts.Verifier,
		Users:    usersSvc,
		OnLogout: authz.EndSession,
		Limit:    middleware.RateLimit(opts.LoginRatePerMinute, opts.LoginRatePerMinute),
		Log:      opts.Log,
	})
	users.RegisterRoutes(r, usersSvc, require)
	permissions.RegisterRoutes(r, store, require)
	access.RegisterRoutes(r, guard)

	owners.RegisterRoutes(r, ownersSvc, require)
	appointments.RegisterRoutes(r, apptSvc, require)
	consultations.RegisterRoutes(r, consSvc, opts.Location, require)
	inventory.RegisterRoutes(r, invSvc, require)
	activity.RegisterRoutes(r, actSvc, require)
	dashboard.RegisterRoutes(r, dashSvc, require)
	workflow.RegisterRoutes(r, engine, opts.Location, require)

	return r, nil
}

// Seed siembra los roles faltantes y, si adminUID viene, lo deja como admin.
func Seed(ctx context.Context, db *sql.DB, timeout time.Duration, log logger.Logger, adminUID, adminEmail, adminNombre string) error {
	if log == nil {
		log = logger.Nop()
	}
	rp := newRepos(Options{DB: db, StoreTimeout: timeout, Log: log})

	if err := permissions.NewStore(rp.roles, log).Seed(ctx); err != nil {
		return err
	}
	if adminUID == "" {
		return nil
	}
	_, err := users.NewService(rp.users, inproc.NewBus(), log).Bootstrap(ctx, adminUID, adminEmail, adminNombre)
	return err
}
