package seq

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

// Serializer encodes a wire payload into a request body. Implementations
// must fail on values they cannot represent instead of emitting partial
// output.
type Serializer interface {
	Serialize(value any) ([]byte, error)
}

// JSONSerializer is the default encoder.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(value any) ([]byte, error) {
	return json.Marshal(value)
}

var (
	serializersMutex sync.RWMutex
	serializers      = map[string]func() Serializer{
		"json": func() Serializer { return JSONSerializer{} },
	}
)

// RegisterSerializer makes a constructor available to NewSerializer under
// the given name. Registering an existing name replaces it.
func RegisterSerializer(name string, constructor func() Serializer) {
	serializersMutex.Lock()
	defer serializersMutex.Unlock()

	serializers[name] = constructor
}

// NewSerializer builds the serializer registered under name. An unknown
// name or a constructor returning nil is a ConfigurationError.
func NewSerializer(name string) (Serializer, error) {
	serializersMutex.RLock()
	constructor, ok := serializers[name]
	serializersMutex.RUnlock()

	if !ok {
		return nil, &logging.ConfigurationError{Reason: fmt.Sprintf("unknown serializer %q", name)}
	}

	serializer := constructor()
	if serializer == nil {
		return nil, &logging.ConfigurationError{Reason: fmt.Sprintf("serializer %q constructor returned nil", name)}
	}

	return serializer, nil
}
