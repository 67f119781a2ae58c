package outbox

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
)

type decoder func(state []byte) (domain.Event, error)

// Codec turns a stored row state back into its concrete event, keyed by topic.
type Codec struct {
	decoders map[string]decoder
}

func NewCodec() *Codec {
	return &Codec{decoders: map[string]decoder{}}
}

// Register binds topic to event type E. Registering a topic twice panics.
func Register[E domain.Event](c *Codec, topic string) {
	if _, ok := c.decoders[topic]; ok {
		panic(fmt.Sprintf("outbox: topic %q registered twice", topic))
	}
	c.decoders[topic] = func(state []byte) (domain.Event, error) {
		var e E
		if err := json.Unmarshal(state, &e); err != nil {
			return nil, apperr.Wrap(apperr.ErrDeserialization, err)
		}
		return e, nil
	}
}

func (c *Codec) Decode(topic string, state []byte) (domain.Event, error) {
	dec, ok := c.decoders[topic]
	if !ok {
		return nil, apperr.Newf(apperr.ErrEventNotFound, "no decoder for topic %q", topic)
	}
	return dec(state)
}

func (c *Codec) Topics() []string {
	topics := make([]string, 0, len(c.decoders))
	for t := range c.decoders {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
