package operation

import (
	"errors"
	"fmt"

	"github.com/vk/precomp/internal/config"
)

// Errors reported while compiling an operation block.
var (
	ErrInvalidType   = errors.New("invalid variable type")
	ErrInvalidKey    = errors.New("invalid key")
	ErrNoOperation   = errors.New("no operation specified")
	ErrNoDestination = errors.New("no destination specified")
	ErrReservedName  = errors.New("not permitted as a variable name")
	ErrDuplicateName = errors.New("variable declared twice")
	ErrEmptyName     = errors.New("empty variable name")
)

// ConfigError reports a block that could not be compiled. Callers decide
// whether to skip the block or stop.
type ConfigError struct {
	Block *config.Block
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("operation %s: %v", e.Block, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
