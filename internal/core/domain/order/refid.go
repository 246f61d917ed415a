// internal/core/domain/order/refid.go
package order

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// RefIDGenerator выдает уникальные идентификаторы заказов.
// Реализации обязаны быть безопасны для конкурентного вызова.
type RefIDGenerator interface {
	NewRefID() string
}

// UUIDGenerator - случайные UUID v4
type UUIDGenerator struct{}

func (UUIDGenerator) NewRefID() string {
	return uuid.NewString()
}

// SnowflakeGenerator - монотонные идентификаторы в пределах узла
type SnowflakeGenerator struct {
	node *snowflake.Node
}

func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

func (g *SnowflakeGenerator) NewRefID() string {
	return "TOPUP" + g.node.Generate().String()
}

// NewRefIDGenerator выбирает генератор по имени из конфигурации
func NewRefIDGenerator(kind string, nodeID int64) (RefIDGenerator, error) {
	switch kind {
	case "", "uuid":
		return UUIDGenerator{}, nil
	case "snowflake":
		return NewSnowflakeGenerator(nodeID)
	default:
		return nil, fmt.Errorf("unknown ref_id generator %q", kind)
	}
}
