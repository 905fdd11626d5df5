package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"vision-server/internal/engine"
	"vision-server/internal/server"
	"vision-server/internal/storage"
	"vision-server/internal/version"
	"vision-server/pkg/logger"
	"vision-server/pkg/uvtt"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var importPath string
	var mapName string
	flag.StringVar(&importPath, "import", "", "Path to .dd2vtt file to import, then exit")
	flag.StringVar(&mapName, "name", "", "Map name for -import (defaults to file name)")
	flag.Parse()

	logger.Log.Info("Starting vision server...")
	logger.Log.Info(version.String())

	cfg, err := engine.LoadConfig()
	if err != nil {
		logger.Log.Fatal("Config error: ", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Log.Fatal("Storage error: ", err)
	}

	// РЕЖИМ ИМПОРТА
	if importPath != "" {
		logger.Log.Info("📥 Mode: UVTT import")
		if err := runImport(store, importPath, mapName); err != nil {
			logger.Log.Fatal("Import failed: ", err)
		}
		store.Close()
		return
	}

	// 2. Инициализация ядра
	svc := engine.NewService(store)

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 3. Запуск сервера
	srv := server.New(svc, fmt.Sprintf("%d", cfg.Port), cfg.AllowedOrigin)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error: ", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")
	svc.Shutdown()
	logger.Log.Info("Done.")
}

// runImport разбирает UVTT-файл и кладет карту со всей геометрией в базу.
func runImport(store *storage.Store, path, name string) error {
	file, err := uvtt.ParseFile(path)
	if err != nil {
		return err
	}

	if name == "" {
		name = path
	}
	imp := file.Convert(uuid.NewString(), name)

	if err := store.CreateMap(imp.Meta); err != nil {
		return err
	}
	for _, w := range imp.Walls {
		if err := store.AddWall(imp.Meta.ID, w); err != nil {
			return err
		}
	}
	for _, p := range imp.Portals {
		if err := store.AddPortal(imp.Meta.ID, p); err != nil {
			return err
		}
	}
	for _, l := range imp.Lights {
		if err := store.AddLight(imp.Meta.ID, l); err != nil {
			return err
		}
	}

	logger.Log.Infof("Imported map %q with id %s", name, imp.Meta.ID)
	return nil
}
