package notifier

import (
	"encoding/json"

	"github.com/lomoval/alarmd/internal/rabbit"
	"github.com/lomoval/alarmd/internal/storage"
	log "github.com/sirupsen/logrus"
)

// Log writes fired alarms to the process log, the default notifier.
type Log struct{}

func (Log) Notify(a storage.Alarm) error {
	log.WithField("id", a.ID).WithField("dueAt", a.DueAt).Warnf("ALARM: %s", a.Description)
	return nil
}

// Rabbit publishes fired alarms to a RabbitMQ queue consumed by the
// sender daemon.
type Rabbit struct {
	provider *rabbit.Provider
}

func NewRabbit(provider *rabbit.Provider) *Rabbit {
	return &Rabbit{provider: provider}
}

func (n *Rabbit) Notify(a storage.Alarm) error {
	data, err := json.Marshal(rabbit.Message{
		ID:          a.ID,
		Description: a.Description,
		Time:        a.DueAt,
		Recurrence:  a.Recurrence.String(),
	})
	if err != nil {
		return err
	}
	return n.provider.Publish(data)
}
