package crc32c

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumMatchesHexRoundTrip(t *testing.T) {
	sum := Checksum(Seed, []byte("orig"))
	hex := HexString(sum)
	require.Len(t, hex, 8)

	// recomputing from the same bytes must reproduce the same hex text
	require.Equal(t, hex, HexString(Checksum(Seed, []byte("orig"))))
}

func TestChecksumChains(t *testing.T) {
	whole := Checksum(Seed, []byte("helloworld"))
	chained := Checksum(Checksum(Seed, []byte("hello")), []byte("world"))
	require.Equal(t, whole, chained)
}

func TestOfStringStable(t *testing.T) {
	require.Equal(t, OfString("/media/doNotBackupMe.txt_START.pers"), OfString("/media/doNotBackupMe.txt_START.pers"))
	require.NotEqual(t, OfString("a"), OfString("b"))
}
