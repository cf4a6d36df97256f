package v1

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/middleware"
	"github.com/yomuhub/yomu/progress"
	"github.com/yomuhub/yomu/recommend"
	"github.com/yomuhub/yomu/store"
	"github.com/yomuhub/yomu/worker"
	"github.com/yomuhub/yomu/ws"
)

type Handler struct {
	store      *store.Store
	progress   *progress.Service
	engine     *recommend.Engine
	hub        *ws.Hub
	uploadPool worker.WorkPool
	router     *mux.Router
}

func Server(router *mux.Router, store *store.Store, progressService *progress.Service, engine *recommend.Engine, hub *ws.Hub, uploadPool worker.WorkPool) {
	handler := &Handler{
		store:      store,
		progress:   progressService,
		engine:     engine,
		hub:        hub,
		uploadPool: uploadPool,
		router:     router,
	}

	sr := router.PathPrefix("/api/v1").Subrouter()
	middleware := middleware.NewMiddleware(handler.store)
	sr.Use(middleware.HandleCORS)
	sr.Use(middleware.LoggingRequest)
	sr.Use(NewAuthInterceptor(store, config.Opts.JWTSecret).AuthenticationInterceptor)
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/signup", handler.signUp).Methods(http.MethodPost)
	sr.HandleFunc("/signin", handler.signIn).Methods(http.MethodPost)
	sr.HandleFunc("/users/me", handler.currentUser).Methods(http.MethodGet)

	// Static manga routes have to be registered before /manga/{mangaID}.
	sr.HandleFunc("/manga/popular", handler.popularManga).Methods(http.MethodGet)
	sr.HandleFunc("/manga/trending", handler.trendingManga).Methods(http.MethodGet)
	sr.HandleFunc("/manga/recently-added", handler.recentlyAddedManga).Methods(http.MethodGet)
	sr.HandleFunc("/manga/new-user", handler.newUserManga).Methods(http.MethodGet)
	sr.HandleFunc("/recommendations", handler.recommendations).Methods(http.MethodGet)

	sr.HandleFunc("/manga", handler.listManga).Methods(http.MethodGet)
	sr.HandleFunc("/manga/{mangaID}", handler.getManga).Methods(http.MethodGet)
	sr.HandleFunc("/manga/{mangaID}/volumes", handler.listVolumes).Methods(http.MethodGet)
	sr.HandleFunc("/manga/{mangaID}/chapters", handler.listChapters).Methods(http.MethodGet)
	sr.HandleFunc("/manga/{mangaID}/similar", handler.similarManga).Methods(http.MethodGet)
	sr.HandleFunc("/chapters/{chapterID}/pages", handler.listPages).Methods(http.MethodGet)

	sr.HandleFunc("/progress", handler.saveProgress).Methods(http.MethodPost)
	sr.HandleFunc("/manga/{mangaID}/progress", handler.getProgress).Methods(http.MethodGet)
	sr.HandleFunc("/manga/{mangaID}/chapters/{chapterID}/complete", handler.markChapterCompleted).Methods(http.MethodPost)
	sr.HandleFunc("/manga/{mangaID}/statistics", handler.mangaStatistics).Methods(http.MethodGet)
	sr.HandleFunc("/continue-reading", handler.continueReading).Methods(http.MethodGet)

	sr.HandleFunc("/lists", handler.listUserLists).Methods(http.MethodGet)
	sr.HandleFunc("/lists", handler.createUserList).Methods(http.MethodPost)
	sr.HandleFunc("/lists/{listID}", handler.deleteUserList).Methods(http.MethodDelete)
	sr.HandleFunc("/lists/{listID}/entries", handler.listEntries).Methods(http.MethodGet)
	sr.HandleFunc("/lists/{listID}/entries", handler.upsertListEntry).Methods(http.MethodPost, http.MethodPut)
	sr.HandleFunc("/lists/{listID}/entries/{mangaID}", handler.removeListEntry).Methods(http.MethodDelete)

	sr.HandleFunc("/favorites", handler.listFavorites).Methods(http.MethodGet)
	sr.HandleFunc("/favorites/{mangaID}", handler.addFavorite).Methods(http.MethodPost, http.MethodPut)
	sr.HandleFunc("/favorites/{mangaID}", handler.removeFavorite).Methods(http.MethodDelete)

	sr.HandleFunc("/manga/{mangaID}/comments", handler.listComments).Methods(http.MethodGet)
	sr.HandleFunc("/comments", handler.createComment).Methods(http.MethodPost)
	sr.HandleFunc("/comments/{commentID}", handler.updateComment).Methods(http.MethodPut)
	sr.HandleFunc("/comments/{commentID}", handler.deleteComment).Methods(http.MethodDelete)
	sr.HandleFunc("/ws/comments/{mangaID}", handler.serveCommentStream).Methods(http.MethodGet)

	sr.HandleFunc("/chapters/upload", handler.uploadChapter).Methods(http.MethodPost)
	sr.HandleFunc("/jobs", handler.listJobs).Methods(http.MethodGet)
}
