package service

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// therapistLocks serializes booking and reschedule commits per therapist.
// The therapist is the contention unit: many clients may race to book the
// same therapist, while a single client issues at most one booking request at
// a time. The lock is held across the whole validate+commit; the partial
// unique session index remains as the last-resort guard if a second process
// bypasses the lock.
type therapistLocks struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func newTherapistLocks() *therapistLocks {
	return &therapistLocks{locks: make(map[primitive.ObjectID]*sync.Mutex)}
}

// acquire locks the mutex for the therapist and returns its release func.
func (l *therapistLocks) acquire(therapistID primitive.ObjectID) func() {
	l.mu.Lock()
	m, ok := l.locks[therapistID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[therapistID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
