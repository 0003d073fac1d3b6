package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/gabapcia/movewatch/internal/moveschema"
)

// moduleStoragePrefix defines the base key prefix used for storing
// Move module definitions in Redis.
const moduleStoragePrefix = "moveschema"

// moduleStorageKey returns the Redis key under which the definition of the
// specified module is stored.
//
// Format: "moveschema:module:{address}::{name}"
func moduleStorageKey(id moveschema.ModuleID) string {
	return fmt.Sprintf("%s:module:%s::%s", moduleStoragePrefix, id.Address, id.Name)
}

// PublishModule stores the JSON-encoded definition of a Move module, making
// it available to subsequent GetModule lookups. Publishing an already
// registered module overwrites its previous definition.
//
// Parameters:
//   - ctx: context used for cancellation and timeout control.
//   - module: the module definition to register.
//
// Returns:
//   - An error if the definition cannot be encoded or the Redis write fails.
func (c *client) PublishModule(ctx context.Context, module *moveschema.ModuleDefinition) error {
	data, err := json.Marshal(module)
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, moduleStorageKey(module.ID), data, 0).Err()
}

// GetModule implements the moveschema.ModuleResolver interface using plain
// Redis keys.
//
// Parameters:
//   - ctx: context used for cancellation and timeout control.
//   - id: the address and name identifying the module.
//
// Returns:
//   - The stored module definition.
//   - moveschema.ErrModuleNotFound if no definition is registered under id.
//   - Any other error from the Redis query or from decoding the stored value.
func (c *client) GetModule(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	data, err := c.conn.Get(ctx, moduleStorageKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s::%s", moveschema.ErrModuleNotFound, id.Address, id.Name)
		}
		return nil, err
	}

	var module moveschema.ModuleDefinition
	if err := json.Unmarshal(data, &module); err != nil {
		return nil, err
	}

	return &module, nil
}

// Compile-time assertion to ensure *client satisfies the moveschema.ModuleResolver interface
var _ moveschema.ModuleResolver = new(client)
