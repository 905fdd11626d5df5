package main

import (
	"fmt"
	"os"

	"vision-server/internal/storage"
	"vision-server/pkg/logger"
)

func main() {
	logger.Init()

	if len(os.Args) < 3 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "maps":
		listMaps(os.Args[2])
	case "fog":
		if len(os.Args) < 4 {
			fmt.Println("Usage: fogtool fog <file.db> <map_id>")
			return
		}
		showFog(os.Args[2], os.Args[3])
	case "reset":
		if len(os.Args) < 4 {
			fmt.Println("Usage: fogtool reset <file.db> <map_id>")
			return
		}
		resetFog(os.Args[2], os.Args[3])
	default:
		printHelp()
	}
}

func openStore(path string) *storage.Store {
	store, err := storage.Open(path)
	if err != nil {
		fmt.Printf("Cannot open %s: %v\n", path, err)
		os.Exit(1)
	}
	return store
}

func listMaps(path string) {
	store := openStore(path)
	defer store.Close()

	maps, err := store.ListMaps()
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		os.Exit(1)
	}
	for _, m := range maps {
		fog := "fog:off"
		if m.FogEnabled {
			fog = "fog:on"
		}
		fmt.Printf("%s  %q  %dx%dpx grid=%d %s\n", m.ID, m.Name, m.WidthPx, m.HeightPx, m.GridSizePx, fog)
	}
}

func showFog(path, mapID string) {
	store := openStore(path)
	defer store.Close()

	meta, err := store.GetMap(mapID)
	if err != nil {
		fmt.Printf("Map %s: %v\n", mapID, err)
		os.Exit(1)
	}
	fog, err := store.LoadFog(mapID, meta)
	if err != nil {
		fmt.Printf("Fog load failed: %v\n", err)
		os.Exit(1)
	}

	cols, rows := meta.Cols(), meta.Rows()
	total := cols * rows
	revealed := fog.Revealed.Count()
	fmt.Printf("%s: %dx%d cells, revealed %d/%d\n", mapID, cols, rows, revealed, total)

	// ASCII-срез раскрытого тумана: '#' раскрыто, '.' скрыто.
	for y := 0; y < rows; y++ {
		line := make([]byte, cols)
		for x := 0; x < cols; x++ {
			if fog.Revealed.Get(x, y) {
				line[x] = '#'
			} else {
				line[x] = '.'
			}
		}
		fmt.Println(string(line))
	}
}

func resetFog(path, mapID string) {
	store := openStore(path)
	defer store.Close()

	if err := store.DeleteFog(mapID); err != nil {
		fmt.Printf("Reset failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Fog for %s cleared\n", mapID)
}

func printHelp() {
	fmt.Println(`Fog Tool - инспекция тумана войны в базе сервера
Commands:
  maps <file.db>            - список карт в базе
  fog <file.db> <map_id>    - сводка и ASCII-карта раскрытого тумана
  reset <file.db> <map_id>  - удалить сохраненный туман карты`)
}
