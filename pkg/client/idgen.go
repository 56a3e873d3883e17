package client

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var connectionSequence atomic.Int64

// generateConnectionId builds the canonical ID:host-pid-timestamp-seq
// connection id, unique across processes and within this one.
func generateConnectionId() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return "ID:" + host +
		"-" + strconv.Itoa(os.Getpid()) +
		"-" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
		"-" + strconv.FormatInt(connectionSequence.Add(1), 10)
}

// generateClientId supplies a default client id when the application does
// not set one.
func generateClientId() string {
	return "openwire-client-" + uuid.NewString()
}
