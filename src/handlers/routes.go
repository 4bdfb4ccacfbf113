package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/utils"
)

// Services bundles what the router dispatches to.
type Services struct {
	Trades     services.TradeService
	CloseQueue services.CloseQueueService
	Comments   services.CommentService
	Config     services.ConfigService
	Accounts   services.AccountService
}

// RouterOptions tunes the HTTP plumbing around the API.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Backend        string
}

// NewRouter mounts the dashboard API. Every route exists both bare and with
// the DB suffix used by the relational dashboard; both are served by the one
// backend configured for the process.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	tradeHandler := NewTradeHandler(svc.Trades, svc.CloseQueue)
	commentHandler := NewCommentHandler(svc.Comments)
	configHandler := NewConfigHandler(svc.Config)
	accountHandler := NewAccountHandler(svc.Accounts)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(CORSMiddleware(opts.AllowedOrigins))
	if opts.RateLimitRPS > 0 {
		r.Use(NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Middleware)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, http.StatusOK, map[string]string{
			"status":  utils.StatusSuccess,
			"message": "Trading dashboard API is running",
			"backend": opts.Backend,
		})
	})

	r.Route("/api", func(r chi.Router) {
		for _, suffix := range []string{"", "DB"} {
			r.Get("/trades"+suffix, tradeHandler.HandleGetTrades)
			r.Get("/capital"+suffix, tradeHandler.HandleGetCapital)
			r.Post("/trades/add"+suffix, tradeHandler.HandleAddTrade)
			r.Post("/trades/edit"+suffix, tradeHandler.HandleEditTrade)
			r.Post("/trades/closes"+suffix, tradeHandler.HandleRequestClose)
			r.Post("/trades/pending_closes"+suffix, tradeHandler.HandlePendingCloses)

			r.Post("/account/update"+suffix, accountHandler.HandleUpdateAccount)

			r.Get("/config"+suffix, configHandler.HandleGetConfig)
			r.Post("/config"+suffix, configHandler.HandleEditConfig)
			r.Post("/config/edit"+suffix, configHandler.HandleEditConfig)

			r.Get("/comments"+suffix, commentHandler.HandleGetComments)
			r.Post("/comments/add"+suffix, commentHandler.HandleAddComment)
			r.Post("/comments/edit"+suffix, commentHandler.HandleEditComment)
			r.Post("/comments/delete"+suffix, commentHandler.HandleDeleteComment)
		}
		r.Post("/account/editDB", accountHandler.HandleUpdateAccount)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
