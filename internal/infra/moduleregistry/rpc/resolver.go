// Package rpc implements the moveschema.ModuleResolver interface on top of a
// full node's JSON-RPC API. It fetches module definitions on demand, which
// makes it a natural fallback behind a local registry.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/transport/jsonrpc"
)

// getModuleMethod is the JSON-RPC method that returns the definition of a
// published Move module.
const getModuleMethod = "movewatch_getModule"

// resolver fetches Move module definitions from a full node.
type resolver struct {
	conn jsonrpc.Client // Underlying JSON-RPC client used to talk to the full node
}

// Ensure resolver implements the moveschema.ModuleResolver interface at compile time.
var _ moveschema.ModuleResolver = (*resolver)(nil)

// GetModule fetches the definition of the identified module from the full
// node. A null result means the node does not know the module, which is
// reported as moveschema.ErrModuleNotFound.
func (r *resolver) GetModule(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	result, err := r.conn.Fetch(ctx, getModuleMethod, fmt.Sprintf("%s::%s", id.Address, id.Name))
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, fmt.Errorf("%w: %s::%s", moveschema.ErrModuleNotFound, id.Address, id.Name)
	}

	var module moveschema.ModuleDefinition
	if err := json.Unmarshal(result, &module); err != nil {
		return nil, err
	}

	return &module, nil
}

// NewResolver creates a module resolver backed by the provided JSON-RPC
// connection.
func NewResolver(conn jsonrpc.Client) *resolver {
	return &resolver{
		conn: conn,
	}
}
