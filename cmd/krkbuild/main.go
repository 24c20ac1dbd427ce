// Command krkbuild classifies and solves the King+Rook-vs-King endgame
// for a given board and block size, and can serve the result over the
// probe protocol. Its flag handling and log.Fatal-on-setup-error style
// follow cmd/chessplay-uci/main.go; the build/serve split and exit-code
// contract follow spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/CarloWood/infchessKRvK-sub000/internal/catalog"
	"github.com/CarloWood/infchessKRvK-sub000/internal/classify"
	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/persistence"
	"github.com/CarloWood/infchessKRvK-sub000/internal/probe"
	"github.com/CarloWood/infchessKRvK-sub000/internal/record"
	"github.com/CarloWood/infchessKRvK-sub000/internal/retrograde"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "build":
		return runBuild(rest)
	case "serve":
		return runServe(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown verb %q\n", verb)
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  krkbuild build  -prefix DIR -board WxH -block WxH [-j N]")
	fmt.Fprintln(os.Stderr, "  krkbuild serve  -prefix DIR -board WxH -block WxH [-listen ADDR]")
}

func parseWxH(s string) (x, y int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &x, &y); err != nil {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	return x, y, nil
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "data prefix directory")
	boardFlag := fs.String("board", "", "board size, e.g. 64x64")
	blockFlag := fs.String("block", "", "block size, e.g. 8x8")
	workers := fs.Int("j", runtime.GOMAXPROCS(0)-1, "worker pool width")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *prefix == "" || *boardFlag == "" || *blockFlag == "" {
		usage()
		return 2
	}
	if *workers < 1 {
		*workers = 1
	}

	boardX, boardY, err := parseWxH(*boardFlag)
	if err != nil {
		log.Printf("invalid -board: %v", err)
		return 2
	}
	blockX, blockY, err := parseWxH(*blockFlag)
	if err != nil {
		log.Printf("invalid -block: %v", err)
		return 2
	}

	d, err := geometry.New(boardX, boardY, blockX, blockY)
	if err != nil {
		log.Printf("invalid board/block configuration: %v", err)
		return 2
	}

	cat, err := catalog.Open(*prefix)
	if err != nil {
		log.Printf("opening catalog: %v", err)
		return 1
	}
	defer cat.Close()

	complete, err := cat.IsComplete(boardX, boardY, blockX, blockY)
	if err != nil {
		log.Printf("checking catalog: %v", err)
		return 1
	}
	if complete {
		log.Printf("board %dx%d/block %dx%d is already built under %s; refusing to overwrite", boardX, boardY, blockX, blockY, *prefix)
		return 1
	}

	dir, err := catalog.BoardDir(*prefix, boardX, boardY, d.GridX, d.GridY)
	if err != nil {
		log.Printf("preparing data directory: %v", err)
		return 1
	}
	dataPath := dir + "/tablebase.dat"
	if _, err := os.Stat(dataPath); err == nil {
		log.Printf("%s already exists; refusing to overwrite", dataPath)
		return 1
	}

	if err := cat.StartBuild(boardX, boardY, blockX, blockY); err != nil {
		log.Printf("recording build start: %v", err)
		return 1
	}

	log.Printf("classifying %s board with %d workers (%s positions per side)", *boardFlag, *workers, humanize.Comma(int64(d.N())))
	start := time.Now()

	store := record.NewHeapStore(d)
	defer store.Close()

	classifyResult, err := classify.Run(context.Background(), d, store, *workers)
	if err != nil {
		log.Printf("classify: %v", err)
		return 1
	}
	log.Printf("classified in %s, initial frontier: %s positions", time.Since(start), humanize.Comma(int64(len(classifyResult.Frontier))))

	bfsStart := time.Now()
	result, err := retrograde.Run(context.Background(), d, store, classifyResult.Frontier, *workers)
	if err != nil {
		log.Printf("retrograde BFS: %v", err)
		return 1
	}
	log.Printf("retrograde BFS resolved %d levels in %s", result.MaxPly+1, time.Since(bfsStart))

	if err := persistence.Write(dataPath, d, store, result.MaxPly+1); err != nil {
		log.Printf("writing tablebase: %v", err)
		return 1
	}

	info, err := os.Stat(dataPath)
	if err != nil {
		log.Printf("stat %s: %v", dataPath, err)
		return 1
	}
	if err := cat.FinishBuild(boardX, boardY, blockX, blockY, result.MaxPly, info.Size()); err != nil {
		log.Printf("recording build completion: %v", err)
		return 1
	}

	log.Printf("build complete: %s, max ply %d, %s total", dataPath, result.MaxPly, humanize.Bytes(uint64(info.Size())))
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "data prefix directory")
	boardFlag := fs.String("board", "", "board size, e.g. 64x64")
	blockFlag := fs.String("block", "", "block size, e.g. 8x8")
	listenAddr := fs.String("listen", "", "address to listen on (default 127.0.0.1:2000+board width)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *prefix == "" || *boardFlag == "" || *blockFlag == "" {
		usage()
		return 2
	}

	boardX, boardY, err := parseWxH(*boardFlag)
	if err != nil {
		log.Printf("invalid -board: %v", err)
		return 2
	}
	blockX, blockY, err := parseWxH(*blockFlag)
	if err != nil {
		log.Printf("invalid -block: %v", err)
		return 2
	}

	d, err := geometry.New(boardX, boardY, blockX, blockY)
	if err != nil {
		log.Printf("invalid board/block configuration: %v", err)
		return 2
	}
	if *listenAddr == "" {
		*listenAddr = fmt.Sprintf("127.0.0.1:%d", 2000+boardX)
	}

	dir, err := catalog.BoardDir(*prefix, boardX, boardY, d.GridX, d.GridY)
	if err != nil {
		log.Printf("resolving data directory: %v", err)
		return 1
	}
	dataPath := dir + "/tablebase.dat"

	view, err := persistence.Open(dataPath, d)
	if err != nil {
		log.Printf("opening tablebase: %v", err)
		return 1
	}
	defer view.Close()

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Printf("listen %s: %v", *listenAddr, err)
		return 1
	}
	defer ln.Close()

	log.Printf("serving %s on %s (%d levels)", dataPath, ln.Addr(), view.LevelCount())
	if err := probe.Serve(ln, d, view); err != nil {
		log.Printf("serve: %v", err)
		return 1
	}
	return 0
}
