package headerchain

import (
	"encoding/hex"

	"github.com/walletcore/chainsync/internal/codec"
	"github.com/walletcore/chainsync/internal/synerr"
)

// Cache is the in-memory header-chunk cache (C4). Chunks hold up to
// ChunkSize headers each, concatenated as raw bytes; only the last chunk
// may be short.
type Cache struct {
	chunks        [][]byte // each chunk is a contiguous buffer of HeaderSize*N bytes
	lastBlockHash string   // display-order hex, derived state
}

// New returns an empty header chunk cache.
func New() *Cache {
	c := &Cache{}
	c.updateLastBlockHash()
	return c
}

// PushHeader appends one header, starting a new chunk when the cache is
// empty or the last chunk is already full.
func (c *Cache) PushHeader(hexHeader string) error {
	raw, err := hexToRaw(hexHeader)
	if err != nil {
		return err
	}
	if len(c.chunks) == 0 || c.lastChunkHeaderCount() == ChunkSize {
		c.chunks = append(c.chunks, append([]byte{}, raw...))
	} else {
		last := len(c.chunks) - 1
		c.chunks[last] = append(c.chunks[last], raw...)
	}
	c.updateLastBlockHash()
	return nil
}

// PopHeader removes the last header, dropping the last chunk if it
// becomes empty.
func (c *Cache) PopHeader() error {
	if len(c.chunks) == 0 {
		return &synerr.RangeError{Op: "popHeader", Index: 0, Count: 0}
	}
	last := len(c.chunks) - 1
	buf := c.chunks[last]
	c.chunks[last] = buf[:len(buf)-HeaderSize]
	if len(c.chunks[last]) == 0 {
		c.chunks = c.chunks[:last]
	}
	c.updateLastBlockHash()
	return nil
}

// GetBlockCount returns the total number of headers held.
func (c *Cache) GetBlockCount() int {
	total := 0
	for _, chunk := range c.chunks {
		total += len(chunk) / HeaderSize
	}
	return total
}

// GetHeader returns the hex header at global index i.
func (c *Cache) GetHeader(i int) (string, error) {
	count := c.GetBlockCount()
	if i < 0 || i >= count {
		return "", &synerr.RangeError{Op: "getHeader", Index: i, Count: count}
	}
	chunkIdx := i / ChunkSize
	offset := (i % ChunkSize) * HeaderSize
	raw := c.chunks[chunkIdx][offset : offset+HeaderSize]
	return rawToHex(raw), nil
}

// GetChunk returns the full hex string of chunk i, suitable for returning
// verbatim as a protocol frame.
func (c *Cache) GetChunk(i int) (string, error) {
	if i < 0 || i >= len(c.chunks) {
		return "", &synerr.RangeError{Op: "getChunk", Index: i, Count: len(c.chunks)}
	}
	return rawToHex(c.chunks[i]), nil
}

// LastBlockHash returns the display-order hex hash of the last header, or
// the zero hash when the cache is empty.
func (c *Cache) LastBlockHash() string {
	return c.lastBlockHash
}

// updateLastBlockHash recomputes lastBlockHash from the last header, or
// sets it to the zero hash if the cache is empty.
func (c *Cache) updateLastBlockHash() {
	count := c.GetBlockCount()
	if count == 0 {
		c.lastBlockHash = codec.ZeroHashHex
		return
	}
	hexHeader, _ := c.GetHeader(count - 1)
	hdr, err := ParseHeaderHex(hexHeader)
	if err != nil {
		c.lastBlockHash = codec.ZeroHashHex
		return
	}
	c.lastBlockHash = codec.HashToHex(hdr.Hash())
}

func (c *Cache) lastChunkHeaderCount() int {
	if len(c.chunks) == 0 {
		return 0
	}
	return len(c.chunks[len(c.chunks)-1]) / HeaderSize
}

func hexToRaw(hexHeader string) ([]byte, error) {
	hdr, err := ParseHeaderHex(hexHeader)
	if err != nil {
		return nil, err
	}
	return hdr.Serialize(), nil
}

func rawToHex(raw []byte) string {
	return hex.EncodeToString(raw)
}
