package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	https_server "VectorLink/api/http"
	"VectorLink/internal/config"
	"VectorLink/pkg/zlog"
)

func main() {
	conf := config.GetConfig()
	zlog.Init(conf.LogConfig.LogPath)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		zlog.Info("server starting, listening on " + addr)
		if err := https_server.GE.Run(addr); err != nil {
			zlog.Fatal("server failed to start: " + err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server...")
	zlog.Sync()
	zlog.Info("server stopped")
}
