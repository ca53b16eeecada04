package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
// Two timers must never drive the wake lock and ambient audio at once.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	instancePortMin = 20000
	instancePortMax = 39999
)

// InstanceLock holds the single-instance listener.
type InstanceLock struct {
	listener net.Listener
}

// AcquireInstanceLock binds a localhost port derived from appName.
func AcquireInstanceLock(appName string) (*InstanceLock, error) {
	address := InstanceAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, address)
	}
	return &InstanceLock{listener: listener}, nil
}

// Release frees the lock. It is safe on a nil lock.
func (lock *InstanceLock) Release() error {
	if lock == nil || lock.listener == nil {
		return nil
	}
	err := lock.listener.Close()
	lock.listener = nil
	return err
}

// InstanceAddress returns the loopback address reserved for appName.
func InstanceAddress(appName string) string {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	span := uint32(instancePortMax - instancePortMin + 1)
	return fmt.Sprintf("127.0.0.1:%d", instancePortMin+int(hash.Sum32()%span))
}
