package peer

import (
	"crypto/rand"

	"zrpc/wire"
)

func freshRequestID() (wire.RequestID, error) {
	var id wire.RequestID
	if _, err := rand.Read(id[:]); err != nil {
		return id, err
	}
	return id, nil
}
