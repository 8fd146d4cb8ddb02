// Command demo serves collaborative rich text documents over HTTP.
//
// Endpoints:
//
//	GET  /doc?id=ID   latest document and revision
//	POST /submit      commit a change: {"id", "rev", "author", "delta"}
//	GET  /ws?id=ID    websocket streaming revisions and accepting changes
package main

import (
	"fmt"
	"net/http"

	"github.com/brunokim/delta/ot"
	"github.com/brunokim/delta/store"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func openStore(cfg config) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.DBPath)
}

func main() {
	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync()

	cfg, err := loadConfig(viper.New())
	if err != nil {
		logger.Fatal("error reading config", zap.Error(err))
	}
	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("error opening store", zap.String("db_path", cfg.DBPath), zap.Error(err))
	}
	defer st.Close()

	debug := createDebug(cfg, logger)
	defer debug.close()

	s := &state{
		server: ot.NewServer(ot.Options{Store: st, Logger: logger}),
		logger: logger,
		debug:  debug,
	}
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("serving", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, s.routes(cfg.StaticDir)); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
