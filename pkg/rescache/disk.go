package rescache

// disk.go is the optional Badger-backed L2 tier, grounded on the
// teacher's examples/disk_eject/main.go (EjectCallback writing to Badger,
// loader consulting it on miss). Unlike that example, which persisted the
// full cached value, rescache's disk tier only ever persists an opaque
// blob the caller supplies explicitly via Pool.PersistBlob/LoadBlob: a
// serialized pipeline-state object, never shader source, keeping
// spec.md's "specific shader content" Non-goal intact.
//
// © 2025 vkforge authors. MIT License.

import (
	badger "github.com/dgraph-io/badger/v4"
)

type diskTier struct {
	db *badger.DB
}

func newDiskTier(db *badger.DB) *diskTier {
	return &diskTier{db: db}
}

func (d *diskTier) load(key []byte) ([]byte, bool) {
	var out []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			out = append([]byte(nil), b...)
			return nil
		})
	})
	return out, err == nil
}

func (d *diskTier) persist(key, blob []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, blob)
	})
}
