package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"librarium/api/internal/config"
	"librarium/api/internal/identity"
	"librarium/api/internal/middleware"
	"librarium/api/internal/repository"
	"librarium/api/internal/service"
	"librarium/api/internal/storage"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	provider     identity.Provider
	resolver     *service.ResolverService
	access       *service.AccessService
	sessions     *service.SessionService
	verification *service.VerificationService
	registration *service.RegistrationService
	members      *repository.MemberRepository
	books        *repository.BookRepository
	purchases    *repository.PurchaseRepository
	store        *storage.ObjectStore
	db           *pgxpool.Pool
	cache        *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	provider identity.Provider,
	cfg *config.AppConfig,
) HandlerSet {
	memberRepo := repository.NewMemberRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookRepo := repository.NewBookRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	resolver := service.NewResolverService(memberRepo, operatorRepo, log)
	access := service.NewAccessService(purchaseRepo)
	sessions := service.NewSessionService(sessionRepo, log)
	verification := service.NewVerificationService(memberRepo, provider, log)
	registration := service.NewRegistrationService(memberRepo, operatorRepo, cfg, log)

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		provider:     provider,
		resolver:     resolver,
		access:       access,
		sessions:     sessions,
		verification: verification,
		registration: registration,
		members:      memberRepo,
		books:        bookRepo,
		purchases:    purchaseRepo,
		store:        store,
		db:           db,
		cache:        cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.Auth(h.provider, h.resolver), h.Logout)

		// Registration runs before a profile exists, so it verifies the
		// token without resolving a class: role discovery would sync a
		// member row first and defeat the registration path.
		v1.POST("/members/register", middleware.VerifyToken(h.provider), h.RegisterMember)

		members := v1.Group("/members")
		members.Use(middleware.Auth(h.provider, h.resolver))
		members.POST("/sync", h.SyncMember)
		members.GET("/me", middleware.RequireMember(), h.Me)
		members.POST("/complete-profile", middleware.RequireMember(), h.CompleteProfile)
		members.POST("/id-proof", middleware.RequireMember(), h.UploadIDProof)

		books := v1.Group("/books")
		books.Use(middleware.Auth(h.provider, h.resolver), middleware.RequireMember())
		books.GET("/:id/access", h.BookAccess)

		v1.POST("/admin/register", middleware.VerifyToken(h.provider), h.RegisterOperator)

		operator := v1.Group("/admin")
		operator.Use(middleware.Auth(h.provider, h.resolver), middleware.RequireOperator())
		operator.GET("/members", h.ListMembers)
		operator.GET("/members/:subjectId", h.GetMember)
		operator.POST("/members/:subjectId/verify", h.ReviewIDProof)
		operator.POST("/members/:subjectId/suspend", h.SuspendMember)
		operator.POST("/members/:subjectId/purchases", h.RecordPurchase)
		operator.GET("/sessions", h.ListSessions)
	}
}
