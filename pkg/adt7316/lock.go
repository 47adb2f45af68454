package adt7316

import (
	"reflect"
	"sync"
)

// busLocks maps raw transport handles without a lock of their own to the mutex
// every backend on that handle shares. Entries live as long as the process.
var busLocks sync.Map

// transportLock returns the exclusion boundary of a raw transport.
// Handles that own a lock share it between every backend bound to them,
// other handles get one mutex per handle.
func transportLock(conn any) sync.Locker {
	if l, ok := conn.(sync.Locker); ok {
		return l
	}
	if t := reflect.TypeOf(conn); t == nil || !t.Comparable() {
		// copies of a value handle can not be told apart
		return &sync.Mutex{}
	}
	l, _ := busLocks.LoadOrStore(conn, &sync.Mutex{})
	return l.(*sync.Mutex)
}
