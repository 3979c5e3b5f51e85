package storage

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/boltdb/bolt"
	"time"
)

const COMMIT_BUCKET = "commits"

// BoltDB is the commit runner's journal: a single-file key-value
// store holding one CommitItem per session that has been dispatched
// but not yet finished. A runner that crashes leaves its items here,
// and the next runner to open the file picks them up.
type BoltDB struct {
	db       *bolt.DB
	filePath string
}

// NewBoltDB opens a bolt database, creating the DB file if it doesn't
// already exist. Bolt holds an exclusive lock on the file, so only
// one process at a time can open it.
func NewBoltDB(filePath string) (boltDB *BoltDB, err error) {
	db, err := bolt.Open(filePath, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err == nil {
		boltDB = &BoltDB{
			db:       db,
			filePath: filePath,
		}
		err = boltDB.initBuckets()
	}
	return boltDB, err
}

func (boltDB *BoltDB) initBuckets() error {
	return boltDB.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(COMMIT_BUCKET))
		if err != nil {
			return fmt.Errorf("Error creating commit bucket: %s", err)
		}
		return nil
	})
}

// FilePath returns the path to the bolt DB file.
func (boltDB *BoltDB) FilePath() string {
	return boltDB.filePath
}

// Close closes the bolt database.
func (boltDB *BoltDB) Close() {
	boltDB.db.Close()
}

// SaveCommitItem writes item under its session id, replacing any
// earlier record for that session.
func (boltDB *BoltDB) SaveCommitItem(item *models.CommitItem) error {
	data, err := item.ToJson()
	if err != nil {
		return err
	}
	return boltDB.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(COMMIT_BUCKET))
		return bucket.Put([]byte(item.SessionId), data)
	})
}

// GetCommitItem returns the item recorded for sessionId.
// If there is none, this returns nil and no error.
func (boltDB *BoltDB) GetCommitItem(sessionId string) (*models.CommitItem, error) {
	var item *models.CommitItem
	err := boltDB.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(COMMIT_BUCKET))
		value := bucket.Get([]byte(sessionId))
		if len(value) == 0 {
			return nil
		}
		var err error
		item, err = models.CommitItemFromJson(value)
		return err
	})
	return item, err
}

// DeleteCommitItem removes the record for sessionId. Deleting a
// missing record is not an error.
func (boltDB *BoltDB) DeleteCommitItem(sessionId string) error {
	return boltDB.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(COMMIT_BUCKET))
		return bucket.Delete([]byte(sessionId))
	})
}

// CommitItems returns every recorded item in session id order.
func (boltDB *BoltDB) CommitItems() ([]*models.CommitItem, error) {
	items := make([]*models.CommitItem, 0)
	err := boltDB.ForEach(func(k, v []byte) error {
		item, err := models.CommitItemFromJson(v)
		if err != nil {
			return fmt.Errorf("Bad journal record for %s: %v", string(k), err)
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

// ForEach calls the specified function for each key in the commit bucket.
func (boltDB *BoltDB) ForEach(fn func(k, v []byte) error) error {
	return boltDB.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(COMMIT_BUCKET))
		return bucket.ForEach(fn)
	})
}

// Keys returns a list of all keys in the database.
func (boltDB *BoltDB) Keys() []string {
	keys := make([]string, 0)
	boltDB.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(COMMIT_BUCKET))
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys
}
