package models

import (
	"sync"
)

// SynchronizedMap is a string map shared across go routines. The
// commit runner uses it to track which sessions it is working on,
// mapping session id to task reference.
type SynchronizedMap struct {
	data  map[string]string
	mutex *sync.RWMutex
}

func NewSynchronizedMap() *SynchronizedMap {
	return &SynchronizedMap{
		data:  make(map[string]string),
		mutex: &sync.RWMutex{},
	}
}

func (syncMap *SynchronizedMap) HasKey(key string) bool {
	syncMap.mutex.RLock()
	defer syncMap.mutex.RUnlock()
	_, hasKey := syncMap.data[key]
	return hasKey
}

// AddIfAbsent adds key/value and returns true, unless key is already
// present, in which case the map is unchanged and this returns false.
func (syncMap *SynchronizedMap) AddIfAbsent(key, value string) bool {
	syncMap.mutex.Lock()
	defer syncMap.mutex.Unlock()
	if _, hasKey := syncMap.data[key]; hasKey {
		return false
	}
	syncMap.data[key] = value
	return true
}

func (syncMap *SynchronizedMap) Get(key string) string {
	syncMap.mutex.RLock()
	defer syncMap.mutex.RUnlock()
	return syncMap.data[key]
}

func (syncMap *SynchronizedMap) Delete(key string) {
	syncMap.mutex.Lock()
	delete(syncMap.data, key)
	syncMap.mutex.Unlock()
}

func (syncMap *SynchronizedMap) Len() int {
	syncMap.mutex.RLock()
	defer syncMap.mutex.RUnlock()
	return len(syncMap.data)
}

// Returns a slice of all keys in the map.
func (syncMap *SynchronizedMap) Keys() []string {
	syncMap.mutex.RLock()
	defer syncMap.mutex.RUnlock()
	keys := make([]string, 0, len(syncMap.data))
	for key := range syncMap.data {
		keys = append(keys, key)
	}
	return keys
}
