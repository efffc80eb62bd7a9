package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Initialize sets up the Snowflake generator with the node ID of this process.
// Calling it again replaces the node.
func Initialize(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("invalid snowflake node id %d: %w", nodeID, err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

func current() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	return node
}

// GenerateID generates a new Snowflake ID as a decimal string
func GenerateID() string {
	return current().Generate().String()
}

// RequestID generates a short base58 ID for tagging web requests in logs
func RequestID() string {
	return current().Generate().Base58()
}
