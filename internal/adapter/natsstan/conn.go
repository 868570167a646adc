package natsstan

import (
	"fmt"

	"github.com/google/uuid"
	stan "github.com/nats-io/stan.go"
)

// Connect открывает соединение NATS Streaming; пустой clientID заменяется уникальным.
func Connect(clusterID, clientID, url string) (stan.Conn, error) {
	if clientID == "" {
		clientID = "library-svc-" + uuid.NewString()
	}
	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(url))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	return sc, nil
}
