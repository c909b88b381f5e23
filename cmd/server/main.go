package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sirupsen/logrus"

	"github.com/scriptcoffee/challenge/internal/handlers"
	"github.com/scriptcoffee/challenge/internal/history"
	"github.com/scriptcoffee/challenge/internal/middleware"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}
	logrus.SetLevel(logger.GetLevel())

	// Match history is optional; the server runs fine without Redis.
	if err := history.Connect(); err != nil {
		logger.Warnf("match history disabled: %v", err)
	}

	srv := handlers.NewServer(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.HandleFunc("/ws", srv.WSHandler())
	mux.HandleFunc("/sessions", srv.SessionsHandler)
	mux.HandleFunc("/tournament/start", srv.TournamentStartHandler)
	mux.HandleFunc("/tournament/ranking", srv.RankingHandler)

	server := &http.Server{
		Handler:     middleware.LogMiddleware(logger)(mux),
		ReadTimeout: time.Second * 10,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
