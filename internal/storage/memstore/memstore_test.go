package memstore

import (
	"testing"

	"github.com/walletcore/chainsync/internal/storage"
	"github.com/walletcore/chainsync/internal/storage/storagetest"
)

func TestMemstore_Conformance(t *testing.T) {
	storagetest.RunConformanceSuite(t, func(t *testing.T) storage.Store {
		return New()
	})
}
