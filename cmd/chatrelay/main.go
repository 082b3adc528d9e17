package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/goevery/chatrelay/internal/auth"
	"github.com/goevery/chatrelay/internal/handler"
	"github.com/goevery/chatrelay/internal/persistence/mongodb"
	"github.com/goevery/chatrelay/internal/relay"
	"github.com/goevery/chatrelay/internal/server"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

type App struct {
	logger          *zap.Logger
	settings        Settings
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
	messageStore    *mongodb.MessageStore
	userStore       *mongodb.UserStore
}

func NewApp(logger *zap.Logger, settings Settings, mongoClient *mongo.Client) *App {
	messageStore := mongodb.NewMessageStore(mongoClient, settings.Database)
	userStore := mongodb.NewUserStore(mongoClient, settings.Database)
	groupStore := mongodb.NewGroupStore(mongoClient, settings.Database)

	authenticator := auth.NewAuthenticator(settings.JWTSecret, tokenTTL)

	relayService := relay.NewService(logger)
	recorder := handler.NewMessageRecorder(logger, messageStore)

	identifierValidator := handler.NewIdentifierValidator()
	heartbeatHandler := handler.NewHeartbeatHandler()
	joinHandler := handler.NewJoinHandler(identifierValidator, relayService)
	joinGroupHandler := handler.NewJoinGroupHandler(identifierValidator, relayService, groupStore, settings.GroupAuth)
	sendPrivateHandler := handler.NewSendPrivateHandler(identifierValidator, relayService, recorder)
	sendGroupHandler := handler.NewSendGroupHandler(identifierValidator, relayService, recorder)

	router := server.NewRouter(
		logger,
		heartbeatHandler,
		joinHandler,
		joinGroupHandler,
		sendPrivateHandler,
		sendGroupHandler,
	)

	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		relayService,
		router,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		userStore,
		groupStore,
		messageStore,
	)

	return &App{
		logger,
		settings,
		websocketServer,
		restServer,
		messageStore,
		userStore,
	}
}

func (a *App) setup(ctx context.Context) error {
	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.messageStore.Setup(setupCtx)
	if err != nil {
		return fmt.Errorf("setup message store: %w", err)
	}

	err = a.userStore.Setup(setupCtx)
	if err != nil {
		return fmt.Errorf("setup user store: %w", err)
	}

	a.startHttpServer(ctx)

	return nil
}

func (a *App) startHttpServer(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		panic("failed to parse settings from environment: " + err.Error())
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(settings.MongoDBURI))
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	app := NewApp(logger, settings, mongoClient)

	err = app.setup(ctx)
	if err != nil {
		logger.Fatal("failed to setup", zap.Error(err))
	}
}
