package uid

import (
	"errors"
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// ErrInvalidNode is returned when the node number is outside the snowflake range.
var ErrInvalidNode = errors.New("uid: snowflake node must be between 0 and 1023")

// Snowflake generates time ordered int64 IDs backed by bwmarrin/snowflake.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node. A negative node derives
// one from the hostname so replicas do not need explicit numbering.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 {
		node = hostNode()
	}
	if node > 1023 {
		return nil, ErrInvalidNode
	}

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns the next ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostNode() int64 {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return 0
	}
	f := fnv.New32a()
	_, _ = f.Write([]byte(h))
	return int64(f.Sum32() % 1024)
}
