// Package probe implements the tablebase query protocol of spec.md §6:
// a client sends one or more fixed 6-byte board requests over a TCP
// connection and receives, for each, two fixed 4-byte classification
// records (Black-to-move, then White-to-move).
//
// This is a direct port of original_source/src/version2/mmap_server.cxx's
// handle_client: a single-threaded accept loop, one connection served to
// completion before the next is accepted, because the whole point is
// that an mmap'ed lookup is cheap enough not to need concurrency on the
// server side. The read-dispatch-and-continue-until-EOF shape inside one
// connection mirrors internal/uci/uci.go's protocol loop.
package probe

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/persistence"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/record"
)

// RequestSize is the wire size of one board query: bkx, bky, wkx, wky,
// wrx, wry, one byte each.
const RequestSize = 6

// infoSize is the wire size of one classification record: an 11-bit
// mate_in_ply field and a 5-bit classification field packed into one
// uint16, followed by a uint16 child count. Multi-byte fields are in
// host byte order on the wire: the protocol is local-only, so no byte
// swapping is done.
const infoSize = 4

// ResponseSize is the wire size of one query's reply: Black-to-move
// then White-to-move, infoSize bytes each.
const ResponseSize = 2 * infoSize

// Board is one query: a king/king/rook square triple. Side to move is
// not part of the wire format — the server always returns both.
type Board struct {
	BlackKing, WhiteKing, WhiteRook geometry.Square
}

func decodeBoard(buf []byte) Board {
	return Board{
		BlackKing: geometry.Square{X: int(buf[0]), Y: int(buf[1])},
		WhiteKing: geometry.Square{X: int(buf[2]), Y: int(buf[3])},
		WhiteRook: geometry.Square{X: int(buf[4]), Y: int(buf[5])},
	}
}

func encodeBoard(buf []byte, b Board) {
	buf[0], buf[1] = byte(b.BlackKing.X), byte(b.BlackKing.Y)
	buf[2], buf[3] = byte(b.WhiteKing.X), byte(b.WhiteKing.Y)
	buf[4], buf[5] = byte(b.WhiteRook.X), byte(b.WhiteRook.Y)
}

func encodeInfo(buf []byte, r record.Record, layout record.Layout) {
	plyBits := layout.EncodePly(r.Ply) & 0x7FF
	word := uint16(plyBits) | uint16(r.Classification&0x1F)<<11
	binary.NativeEndian.PutUint16(buf[0:2], word)
	binary.NativeEndian.PutUint16(buf[2:4], uint16(r.Children))
}

func decodeInfo(buf []byte, layout record.Layout) record.Record {
	word := binary.NativeEndian.Uint16(buf[0:2])
	ply := layout.DecodePly(uint64(word & 0x7FF))
	classification := record.Classification((word >> 11) & 0x1F)
	children := binary.NativeEndian.Uint16(buf[2:4])
	return record.Record{Classification: classification, Ply: ply, Children: int(children)}
}

// Serve accepts and serves connections on ln until it returns an error
// (typically because ln was closed). Each connection is served to
// completion, sequentially, before the next is accepted.
func Serve(ln net.Listener, d geometry.Dims, view *persistence.View) error {
	layout := record.NewLayout(d)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		handleConn(conn, d, layout, view)
	}
}

func handleConn(conn net.Conn, d geometry.Dims, layout record.Layout, view *persistence.View) {
	defer conn.Close()

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if n%RequestSize != 0 {
			// malformed request: disconnect, as the original does on any framing error
			log.Printf("probe: %d-byte read from %s is not a whole number of requests; closing connection", n, conn.RemoteAddr())
			return
		}

		numBoards := n / RequestSize
		resp := make([]byte, numBoards*ResponseSize)
		for i := 0; i < numBoards; i++ {
			board := decodeBoard(buf[i*RequestSize:])
			idx := d.PositionIndex(board.BlackKing, board.WhiteKing, board.WhiteRook)

			off := i * ResponseSize
			encodeInfo(resp[off:off+infoSize], view.Get(position.Black, idx), layout)
			encodeInfo(resp[off+infoSize:off+ResponseSize], view.Get(position.White, idx), layout)
		}

		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

// Query is a minimal client: it sends one board per request and reads
// back exactly one response. Repeated calls reuse the connection.
type Query struct {
	conn   net.Conn
	layout record.Layout
	buf    []byte
}

// Dial opens a probe connection to a running server for board
// dimensions d (needed to decode the server's ply encoding).
func Dial(addr string, d geometry.Dims) (*Query, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("probe: dial %s: %w", addr, err)
	}
	return &Query{conn: conn, layout: record.NewLayout(d), buf: make([]byte, ResponseSize)}, nil
}

// Ask queries one board and returns its Black-to-move and White-to-move
// records.
func (q *Query) Ask(b Board) (black, white record.Record, err error) {
	req := make([]byte, RequestSize)
	encodeBoard(req, b)
	if _, err := q.conn.Write(req); err != nil {
		return record.Record{}, record.Record{}, fmt.Errorf("probe: write request: %w", err)
	}
	if _, err := fillFull(q.conn, q.buf); err != nil {
		return record.Record{}, record.Record{}, fmt.Errorf("probe: read response: %w", err)
	}
	black = decodeInfo(q.buf[0:infoSize], q.layout)
	white = decodeInfo(q.buf[infoSize:ResponseSize], q.layout)
	return black, white, nil
}

// Close closes the underlying connection.
func (q *Query) Close() error { return q.conn.Close() }

func fillFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
