package util

import (
	"testing"
)

func TestReadVarInt(t *testing.T) {
	tests := []struct {
		data []byte
		want uint64
		n    int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0xfc}, 0xfc, 1},
		{[]byte{0xfd, 0xfe, 0xff}, 0xfffe, 3},
		{[]byte{0xfe, 0xff, 0xff, 0xff, 0xff}, 0xffffffff, 5},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0xffffffffffffffff, 9},
	}

	for _, tc := range tests {
		got, n, err := ReadVarInt(tc.data)
		if err != nil {
			t.Errorf("ReadVarInt(%x) error: %v", tc.data, err)
			continue
		}
		if got != tc.want || n != tc.n {
			t.Errorf("ReadVarInt(%x) = (%d, %d), want (%d, %d)", tc.data, got, n, tc.want, tc.n)
		}
	}
}

func TestReadVarIntErrors(t *testing.T) {
	// Empty data
	_, _, err := ReadVarInt([]byte{})
	if err == nil {
		t.Error("ReadVarInt should fail on empty data")
	}

	// Truncated 3-byte varint
	_, _, err = ReadVarInt([]byte{0xfd, 0x01})
	if err == nil {
		t.Error("ReadVarInt should fail on truncated uint16")
	}

	// Truncated 5-byte varint
	_, _, err = ReadVarInt([]byte{0xfe, 0x01, 0x02, 0x03})
	if err == nil {
		t.Error("ReadVarInt should fail on truncated uint32")
	}

	// Truncated 9-byte varint
	_, _, err = ReadVarInt([]byte{0xff, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	if err == nil {
		t.Error("ReadVarInt should fail on truncated uint64")
	}
}
