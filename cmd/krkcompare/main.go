// Command krkcompare opens two completed tablebase builds for the same
// board/block size and streams their differences to stdout. The
// compare loop — iterate every position, assert the two stores agree
// on size, look up the corresponding record, compare classification and
// ply — is ported from original_source/src/Graph1.cxx's cross-version
// comparison operator==, generalized from an in-memory map lookup to a
// PositionIndex lookup against two internal/persistence.Views.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/persistence"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("krkcompare", flag.ContinueOnError)
	boardFlag := fs.String("board", "", "board size, e.g. 64x64")
	blockFlag := fs.String("block", "", "block size, e.g. 8x8")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *boardFlag == "" || *blockFlag == "" || fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: krkcompare -board WxH -block WxH FILE_A FILE_B")
		return 2
	}

	var boardX, boardY, blockX, blockY int
	if _, err := fmt.Sscanf(*boardFlag, "%dx%d", &boardX, &boardY); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -board: %v\n", err)
		return 2
	}
	if _, err := fmt.Sscanf(*blockFlag, "%dx%d", &blockX, &blockY); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -block: %v\n", err)
		return 2
	}

	d, err := geometry.New(boardX, boardY, blockX, blockY)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid board/block configuration: %v\n", err)
		return 2
	}

	pathA, pathB := fs.Arg(0), fs.Arg(1)

	a, err := persistence.Open(pathA, d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", pathA, err)
		return 1
	}
	defer a.Close()

	b, err := persistence.Open(pathB, d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", pathB, err)
		return 1
	}
	defer b.Close()

	diffs := compare(d, a, b)
	for _, d := range diffs {
		fmt.Println(d)
	}

	if len(diffs) > 0 {
		fmt.Fprintf(os.Stderr, "%d differences found\n", len(diffs))
		return 1
	}
	fmt.Println("no differences found")
	return 0
}

func compare(d geometry.Dims, a, b *persistence.View) []string {
	var diffs []string
	for idx := 0; idx < d.N(); idx++ {
		for _, side := range [2]position.Side{position.Black, position.White} {
			ra, rb := a.Get(side, idx), b.Get(side, idx)
			if ra.Classification != rb.Classification || ra.Ply != rb.Ply {
				bk, wk, wr := d.DecodePositionIndex(idx)
				diffs = append(diffs, fmt.Sprintf(
					"side=%v bk=%v wk=%v wr=%v: classification %v vs %v, ply %d vs %d",
					side, bk, wk, wr, ra.Classification, rb.Classification, ra.Ply, rb.Ply))
			}
		}
	}
	return diffs
}
