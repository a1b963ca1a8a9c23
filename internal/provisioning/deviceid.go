package provisioning

import (
	"hash/fnv"
	"strconv"

	"github.com/google/uuid"
)

// NewDeviceID returns a short base-36 identifier derived from a random
// UUID through 64-bit FNV-1a. It is unique in practice, not unguessable;
// device secrets live in the issued credentials.
func NewDeviceID() string {
	h := fnv.New64a()
	h.Write([]byte(uuid.NewString()))
	return strconv.FormatUint(h.Sum64(), 36)
}
